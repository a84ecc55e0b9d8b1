package resolver

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"resolutionengine/src/database"
	"resolutionengine/src/engine"
	"resolutionengine/src/repository"
)

// Resolver runs the resolution engine headless: health monitor plus
// autonomous resolution, no HTTP surface.
type Resolver struct{}

func (t *Resolver) Start() error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	var store engine.Store
	if database.GetConfig().EnableDB {
		if err := database.InitMainDB(); err != nil {
			logrus.WithError(err).Error("Failed to connect to main database")
			return err
		}
		store = repository.NewStore()
	}

	e, err := engine.NewFromEnv(engine.GetConfig(), store, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to build resolution engine")
		return err
	}

	e.Start(ctx)
	logrus.Info("resolution engine running, waiting for shutdown signal")

	<-ctx.Done()
	e.Stop()

	return nil
}
