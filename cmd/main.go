package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"resolutionengine/cmd/resolver"
	"resolutionengine/src/engine"
	"resolutionengine/src/model"
	"resolutionengine/src/monitor"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "Resolution Engine CMD"
	app.Usage = "The resolution engine command line interface"

	app.Commands = []cli.Command{
		engineCMD,
		probeCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	engineCMD = cli.Command{
		Name:        "engine",
		Usage:       "run the resolution engine",
		Action:      engineAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run the autonomous exception resolution engine headless`,
	}
	probeCMD = cli.Command{
		Name:        "probe",
		Usage:       "run health probes once",
		Action:      probeAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run every configured health probe once and report the results`,
	}
)

func engineAction(_ *cli.Context) error {
	t := resolver.Resolver{}

	if err := t.Start(); err != nil {
		logrus.WithError(err).Error("Failed to start resolution engine")
		return err
	}
	return nil
}

// probeAction runs each configured probe once, outside the engine loop.
func probeAction(_ *cli.Context) error {
	config := engine.GetConfig()
	if len(config.ProbeURLs) == 0 {
		return fmt.Errorf("no health probes configured (HEALTH_PROBE_URLS)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	failed := 0
	for name, url := range config.ProbeURLs {
		probe := monitor.NewHTTPProbe(name, url, model.TypeSystemError, config.CollaboratorTimeout)

		ok, detail := probe.Check(ctx)
		if ok {
			logrus.WithField("probe", name).Info("probe healthy")
			continue
		}

		failed++
		logrus.WithFields(logrus.Fields{
			"probe":  name,
			"detail": detail,
		}).Error("probe failed")
	}

	if failed > 0 {
		return fmt.Errorf("%d probe(s) failed", failed)
	}
	return nil
}
