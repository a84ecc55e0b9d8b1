package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"resolutionengine/src/database"
	"resolutionengine/src/engine"
	"resolutionengine/src/notifier"
	"resolutionengine/src/repository"
	"resolutionengine/src/server"
)

var APP_NAME = os.Getenv("APP_NAME")

func SetupLogger() {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))

	level, err := logger.ParseLevel(levelStr)
	if err != nil {
		level = logger.DebugLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
}

func main() {
	SetupLogger()
	defer handlePanic()

	var store engine.Store
	if database.GetConfig().EnableDB {
		if err := database.InitMainDB(); err != nil {
			logger.WithError(err).Fatal("Failed to connect to database")
		}
		store = repository.NewStore()
	}

	hub := notifier.NewHub()

	e, err := engine.NewFromEnv(engine.GetConfig(), store, hub)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build resolution engine")
	}

	e.Start(context.Background())

	server.StartServer(server.GetConfig().Port, e, hub)
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error(fmt.Sprintf("Application %s panic", APP_NAME))
	}
	//nolint
	time.Sleep(time.Second * 5)
}
