package app

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"

	"zeusrx/pkg/message"
	"zeusrx/pkg/receiver"
)

const (
	defaultLimit = 10
	maxLimit     = 1000
)

// runWebServer starts the applications web server and listens for web requests.
//  It's designed to run in a separate go function to not block the main go function.
//  e.g.: go runWebServer()
//  See app.Run()
func (app *App) runWebServer() {
	err := app.web.Listen(app.urlParsed.Host)
	debug.ErrorLog.Print(err)
}

// HandleMessages returns the latest received messages, newest first.
//  The query parameter limit defines the number of messages (default 10).
//  The messages are read from the data file, or from memory if no data file is configured.
func (app *App) HandleMessages() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		debug.InfoLog.Print("web request messages")

		limit := ctx.QueryInt("limit", defaultLimit)
		if limit < 1 || limit > maxLimit {
			return fiber.NewError(http.StatusBadRequest, "limit must be between 1 and 1000")
		}

		var records []message.Record
		if app.store != nil {
			var err error
			if records, err = app.store.Latest(ctx.UserContext(), limit); err != nil {
				debug.ErrorLog.Printf("read messages: %v", err)
				return fiber.NewError(http.StatusInternalServerError, err.Error())
			}
		} else {
			records = app.messages.latest(limit)
		}

		return ctx.JSON(records)
	}
}

// HandleStats returns the counters of the receiver and the mqtt handler.
func (app *App) HandleStats() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		debug.InfoLog.Print("web request stats")

		var stats receiver.Stats
		if app.receiver != nil {
			stats = app.receiver.Stats()
		}
		published, dropped := app.mqtt.Published()

		return ctx.JSON(struct {
			Receiver      receiver.Stats
			MQTTPublished uint64
			MQTTDropped   uint64
		}{
			Receiver:      stats,
			MQTTPublished: published,
			MQTTDropped:   dropped,
		})
	}
}
