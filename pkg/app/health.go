package app

import (
	"os"
	"runtime"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"
)

// health is the answer of the health web service.
type health struct {
	Version       string
	GoVersion     string
	HostName      string
	Time          string
	NumGoroutines int
	HeapMB        uint64
	SysMB         uint64

	Backend     string
	Gpio        int
	Receiving   bool
	LastMessage string
	MQTTDropped uint64
}

// HandleHealth returns the state of the process, the input line and the outputs.
//  LastMessage is empty until the first message is received.
func (app *App) HandleHealth() fiber.Handler {
	host, _ := os.Hostname()

	return func(ctx *fiber.Ctx) error {
		debug.InfoLog.Print("web request health")

		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		h := health{
			Version:       VERSION,
			GoVersion:     runtime.Version(),
			HostName:      host,
			Time:          time.Now().Format(time.RFC3339),
			NumGoroutines: runtime.NumGoroutine(),
			HeapMB:        m.Alloc >> 20,
			SysMB:         m.Sys >> 20,
			Backend:       app.config.Backend,
			Gpio:          app.config.Gpio,
			Receiving:     app.receiver != nil && app.line != nil,
		}

		if r := app.messages.latest(1); len(r) > 0 {
			h.LastMessage = r[0].Time.Format(time.RFC3339)
		}
		_, h.MQTTDropped = app.mqtt.Published()

		return ctx.JSON(h)
	}
}
