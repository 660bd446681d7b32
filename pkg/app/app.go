package app

import (
	"context"
	"net/url"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"

	"zeusrx/pkg/app/config"
	"zeusrx/pkg/mqtt"
	"zeusrx/pkg/raspberry"
	"zeusrx/pkg/receiver"
	"zeusrx/pkg/store"
	"zeusrx/pkg/uart"
)

// App is the main application struct.
// App is where the application is wired up.
type App struct {
	// web is the fiber web framework instance
	web *fiber.App

	// config is the application configuration
	config *config.Config

	// urlParsed contains the parsed Config.Url parameter
	// and makes it easier to get params out of e.g.
	// url: https://0.0.0.0:7844/?minTls=1.2&bodyLimit=50MB
	urlParsed *url.URL

	// mqtt is the handler to the mqtt broker
	mqtt *mqtt.Handler

	// line is the gpio line the radio receiver is connected to
	line raspberry.Line

	// receiver captures and decodes the transmissions on line
	receiver *receiver.Receiver

	// store is the message log, nil if no data file is configured
	store *store.Store

	// uart forwards the messages to a serial port, nil if no port is configured
	uart *uart.Writer

	// messages filters the repeated messages and keeps the latest records
	messages *filter

	// cancel stops the receiver service and the mqtt service
	cancel context.CancelFunc
	// services waits for the goroutines using the gpio line
	services sync.WaitGroup

	// restart signals application restart
	restart chan struct{}
	// shutdown signals application shutdown
	shutdown chan struct{}
}

// New checks the Web server URL and initialize the main app structure
func New(config *config.Config) (*App, error) {
	u, err := url.Parse(config.Webserver.URL)
	if err != nil {
		debug.ErrorLog.Printf("Error parsing url %q: %s", config.Webserver.URL, err.Error())
		return &App{}, err
	}

	return &App{
		config:    config,
		urlParsed: u,

		web:      fiber.New(fiber.Config{DisableStartupMessage: true}),
		mqtt:     mqtt.New(),
		messages: newFilter(config.RepeatWindow, recentSize),

		restart:  make(chan struct{}),
		shutdown: make(chan struct{}),
	}, err
}

// Run starts the application.
func (app *App) Run() error {
	if err := app.init(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	app.cancel = cancel

	go app.mqtt.Service(ctx)
	go app.runWebServer()

	app.services.Add(1)
	go func() {
		defer app.services.Done()
		app.runReceiver(ctx)
	}()

	if app.config.Flag.Emulate > 0 {
		app.services.Add(1)
		go func() {
			defer app.services.Done()
			app.runEmulator(ctx, app.config.Flag.Emulate)
		}()
	}

	return nil
}

// init initializes the application.
func (app *App) init() (err error) {
	if app.line, err = raspberry.Open(app.config.Backend, app.config.Chip, app.config.Gpio, app.config.Terminator); err != nil {
		debug.ErrorLog.Printf("can't open gpio: %v", err)
		return err
	}

	proto := receiver.Zeus
	proto.Parity = app.config.Parity

	if app.receiver, err = receiver.New(app.line, app.line, receiver.WithProtocol(proto)); err != nil {
		debug.ErrorLog.Printf("can't create receiver: %v", err)
		return err
	}

	if err = app.receiver.Open(); err != nil {
		debug.ErrorLog.Printf("can't open receiver: %v", err)
		return err
	}

	if app.config.DataFile != "" {
		if app.store, err = store.Open(app.config.DataFile); err != nil {
			debug.ErrorLog.Printf("can't open data file: %v", err)
			return err
		}
	}

	if app.config.Serial.Port != "" {
		if app.uart, err = uart.Open(app.config.Serial.Port, app.config.Serial.BaudRate); err != nil {
			debug.ErrorLog.Printf("can't open serial port: %v", err)
			return err
		}
	}

	if err = app.mqtt.Connect(app.config.MQTT.Connection, MODULE); err != nil {
		debug.ErrorLog.Printf("can't open mqtt broker %v", err)
		return err
	}

	// initDefaultRoutes should be always called last because it accesses the handlers
	// which must be initialized before
	app.initDefaultRoutes()

	return nil
}

// Restart returns the read only restart channel.
// Restart is used to be able to react on application restart. (see cmd/main.go)
func (app *App) Restart() <-chan struct{} {
	return app.restart
}

// Shutdown returns the read only shutdown channel.
// Shutdown is used to be able to react on application shutdown. (see cmd/main.go)
func (app *App) Shutdown() <-chan struct{} {
	return app.shutdown
}

// Close stops the services and releases the gpio line, the data file and the serial port.
func (app *App) Close() error {
	if app.cancel != nil {
		app.cancel()
		app.services.Wait()
	}

	if app.web != nil {
		_ = app.web.Shutdown()
	}
	if app.mqtt != nil {
		_ = app.mqtt.Disconnect()
	}
	if app.receiver != nil {
		_ = app.receiver.Close()
	}
	if app.line != nil {
		_ = app.line.Close()
	}
	if app.uart != nil {
		_ = app.uart.Close()
	}
	if app.store != nil {
		_ = app.store.Close()
	}
	return nil
}
