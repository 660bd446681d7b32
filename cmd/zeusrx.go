package main

import (
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/urfave/cli/v2"
	"github.com/womat/debug"

	"zeusrx/pkg/app"
	"zeusrx/pkg/app/config"
)

const defaultConfigFile = "/opt/womat/config/" + app.MODULE + ".yaml"

func main() {
	exitCode := 1
	defer func() {
		os.Exit(exitCode)
	}()

	// cfg holds the application configuration
	cfg := config.NewConfig()

	cliApp := &cli.App{
		Name:    app.MODULE,
		Usage:   "Receiver for 433 MHz Zeus sensor messages on a gpio line",
		Version: app.VERSION,
		Description: "Capture the transmissions of the radio receiver connected to a gpio line," +
			"\n decode the messages and forward them to mqtt, a serial port and a SQLite data file." +
			"\n With --emulate no hardware is needed: a test message is sent on an emulated line.",
		UsageText: "zeusrx [--config <file>] [--log standard|debug|trace] [--emulate <interval>]" +
			"\n\nEXAMPLE:" +
			"\n\tstart the receiver and use the configuration file zeusrx.yaml" +
			"\n\t\tzeusrx --config /opt/womat/zeusrx.yaml" +
			"\n\trun the whole pipeline without hardware, one test transmission every 5 seconds" +
			"\n\t\tzeusrx --config /opt/womat/zeusrx.yaml --emulate 5s",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Destination: &cfg.Flag.ConfigFile, Value: defaultConfigFile, Usage: "load configuration from `FILE`"},
			&cli.StringFlag{Name: "log", Aliases: []string{"l"}, Destination: &cfg.Flag.Debug, Usage: "`LEVEL` defines the log level (standard|debug|trace)"},
			&cli.DurationFlag{Name: "emulate", Aliases: []string{"e"}, Destination: &cfg.Flag.Emulate, Usage: "send a test message on an emulated line every `INTERVAL`"},
		},
		Action: func(ctx *cli.Context) error {
			if err := cfg.LoadConfig(); err != nil {
				return err
			}

			debug.SetDebug(cfg.Debug.File, cfg.Debug.Flag)
			defer func() {
				debug.InfoLog.Printf("closing debug file %s", cfg.Debug.FileString)
				_ = cfg.Debug.File.Close()
			}()

			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer func() {
				debug.InfoLog.Printf("closing app %s", app.Version())
				_ = a.Close()
			}()

			debug.InfoLog.Printf("starting app %s", app.Version())
			if err = a.Run(); err != nil {
				return err
			}

			// capture exit signals to ensure resources are released on exit.
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(quit)

			select {
			case sig := <-quit:
				debug.InfoLog.Printf("Got %s signal. Aborting...", sig)
			case <-a.Shutdown():
				debug.InfoLog.Print("shutdown requested")
			}

			return nil
		},
	}

	// we expect to have more command line flags in the future - sort them
	sort.Sort(cli.FlagsByName(cliApp.Flags))
	sort.Sort(cli.CommandsByName(cliApp.Commands))

	err := cliApp.Run(os.Args)
	if err != nil {
		debug.FatalLog.Print(err)
		exitCode = 1
		return
	}

	exitCode = 0
}
