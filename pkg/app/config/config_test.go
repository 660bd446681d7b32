package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/womat/debug"

	"zeusrx/pkg/message"
	"zeusrx/pkg/raspberry"
	"zeusrx/pkg/receiver"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "zeusrx.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	c := NewConfig()
	c.Flag.ConfigFile = writeConfig(t, `
gpio: 27
backend: gpiomem
terminator: pullup
parity: odd
repeatwindow: 5
datafile: /tmp/zeusrx.db
debug:
  file: stdout
  flag: debug
webserver:
  url: http://0.0.0.0:4100
  webservices:
    stats: false
mqtt:
  connection: tcp://broker:1883
  topic: home/zeus
  format: cbor
serial:
  port: /dev/ttyUSB0
`)

	require.NoError(t, c.LoadConfig())
	assert.Equal(t, 27, c.Gpio)
	assert.Equal(t, "gpiochip0", c.Chip)
	assert.Equal(t, raspberry.Gpiomem, c.Backend)
	assert.Equal(t, "pullup", c.Terminator)
	assert.Equal(t, receiver.ParityOdd, c.Parity)
	assert.Equal(t, 5*time.Second, c.RepeatWindow)
	assert.Equal(t, "/tmp/zeusrx.db", c.DataFile)
	assert.Equal(t, os.Stdout, c.Debug.File)
	assert.Equal(t, debug.Warning|debug.Info|debug.Error|debug.Fatal|debug.Debug, c.Debug.Flag)
	assert.Equal(t, "http://0.0.0.0:4100", c.Webserver.URL)
	assert.False(t, c.Webserver.Webservices["stats"])
	assert.True(t, c.Webserver.Webservices["messages"], "defaults are kept for missing keys")
	assert.Equal(t, "home/zeus", c.MQTT.Topic)
	assert.Equal(t, message.CBOR, c.MQTT.Format)
	assert.Equal(t, "/dev/ttyUSB0", c.Serial.Port)
	assert.Equal(t, 115200, c.Serial.BaudRate)
}

func TestLoadConfigFlags(t *testing.T) {
	c := NewConfig()
	c.Flag.ConfigFile = writeConfig(t, "gpio: 4\n")
	c.Flag.Debug = "trace"
	c.Flag.Emulate = 10 * time.Second

	require.NoError(t, c.LoadConfig())
	assert.Equal(t, debug.Full, c.Debug.Flag)
	assert.Equal(t, raspberry.Emulated, c.Backend)
	assert.Equal(t, receiver.ParityNone, c.Parity)
	assert.Equal(t, message.JSON, c.MQTT.Format)
	assert.Equal(t, 2*time.Second, c.RepeatWindow)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := map[string]string{
		"parity":       "parity: mark\n",
		"format":       "mqtt:\n  format: xml\n",
		"backend":      "backend: sysfs\n",
		"repeatwindow": "repeatwindow: -1\n",
		"baudrate":     "serial:\n  port: /dev/ttyUSB0\n  baudrate: 0\n",
		"debug flag":   "debug:\n  flag: verbose\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			c := NewConfig()
			c.Flag.ConfigFile = writeConfig(t, content)
			assert.Error(t, c.LoadConfig())
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	c := NewConfig()
	c.Flag.ConfigFile = filepath.Join(t.TempDir(), "missing.yaml")
	assert.ErrorIs(t, c.LoadConfig(), os.ErrNotExist)
}
