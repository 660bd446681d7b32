package app

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"

	"zeusrx/pkg/receiver"
)

// VERSION is <major>.<minor>.<patch>+<build date>.
//  The minor version changes with the record layout published on mqtt and stored in the
//  data file, the patch version with everything else.
const (
	VERSION = "1.0.0+20241001"
	MODULE  = "zeusrx"
)

// HandleVersion returns the version and the decoded protocol.
func (app *App) HandleVersion() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		debug.InfoLog.Print("web request version")

		proto := receiver.Zeus
		if app.receiver != nil {
			proto = app.receiver.Protocol()
		}

		return ctx.JSON(fiber.Map{
			"version":     VERSION,
			"description": MODULE,
			"about":       Version(),
			"protocol":    proto.Name,
			"parity":      proto.Parity.String(),
		})
	}
}

// Version returns module name and version without build date, e.g. "zeusrx V1.0.0".
func Version() string {
	v, _, _ := strings.Cut(VERSION, "+")
	return MODULE + " V" + v
}
