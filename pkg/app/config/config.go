package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/womat/debug"
	"gopkg.in/yaml.v2"

	"zeusrx/pkg/message"
	"zeusrx/pkg/raspberry"
	"zeusrx/pkg/receiver"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the application configuration.
// Config defines the struct of global config and the struct of the configuration file
type Config struct {
	Gpio            int                 `yaml:"gpio"`
	Chip            string              `yaml:"chip"`
	Backend         string              `yaml:"backend"`
	Terminator      string              `yaml:"terminator"`
	ParityString    string              `yaml:"parity"`
	Parity          receiver.ParityType `yaml:"-"`
	RepeatWindowInt int                 `yaml:"repeatwindow"`
	RepeatWindow    time.Duration       `yaml:"-"`
	DataFile        string              `yaml:"datafile"`
	Flag            FlagConfig          `yaml:"-"`
	Debug           DebugConfig         `yaml:"debug"`
	Webserver       WebserverConfig     `yaml:"webserver"`
	MQTT            MQTTConfig          `yaml:"mqtt"`
	Serial          SerialConfig        `yaml:"serial"`
}

// FlagConfig defines the configured flags (parameters)
type FlagConfig struct {
	Debug      string
	ConfigFile string
	Emulate    time.Duration
}

// WebserverConfig defines the struct of the webserver and webservice configuration and configuration file
type WebserverConfig struct {
	URL         string          `yaml:"url"`
	Webservices map[string]bool `yaml:"webservices"`
}

// MQTTConfig defines the struct of the mqtt client configuration and configuration file
type MQTTConfig struct {
	Connection   string         `yaml:"connection"`
	Topic        string         `yaml:"topic"`
	FormatString string         `yaml:"format"`
	Format       message.Format `yaml:"-"`
}

// SerialConfig defines the serial port the messages are forwarded to, an empty port disables it.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baudrate"`
}

// DebugConfig defines the struct of the debug configuration and configuration file
type DebugConfig struct {
	File       io.WriteCloser `yaml:"-"`
	Flag       int            `yaml:"-"`
	FlagString string         `yaml:"flag"`
	FileString string         `yaml:"file"`
}

func NewConfig() *Config {
	return &Config{
		Gpio:            17,
		Chip:            "gpiochip0",
		Backend:         raspberry.Chardev,
		Terminator:      "none",
		ParityString:    "none",
		RepeatWindowInt: 2,
		RepeatWindow:    2 * time.Second,
		DataFile:        "",
		Flag:            FlagConfig{},
		Debug: DebugConfig{
			FileString: "stderr",
			FlagString: "standard",
		},
		Webserver: WebserverConfig{
			URL: "http://0.0.0.0:4000",
			Webservices: map[string]bool{
				"version":  true,
				"health":   true,
				"messages": true,
				"stats":    true,
			},
		},
		MQTT: MQTTConfig{
			Connection:   "tcp://127.0.0.1:1883",
			Topic:        "zeusrx/message",
			FormatString: string(message.JSON),
		},
		Serial: SerialConfig{
			BaudRate: 115200,
		},
	}
}

// LoadConfig reads the configuration file, applies the command line flags and
// converts the raw values of the file.
func (c *Config) LoadConfig() error {
	if err := c.readConfigFile(); err != nil {
		return fmt.Errorf("error reading config file %q: %w", c.Flag.ConfigFile, err)
	}

	if c.Flag.Debug != "" {
		c.Debug.FlagString = c.Flag.Debug
	}
	if c.Flag.Emulate > 0 {
		c.Backend = raspberry.Emulated
	}

	if err := c.convert(); err != nil {
		return err
	}

	if err := c.setDebugConfig(); err != nil {
		return fmt.Errorf("unable to open debug file %q: %w", c.Debug.FileString, err)
	}

	return nil
}

func (c *Config) readConfigFile() error {
	file, err := os.Open(c.Flag.ConfigFile)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	decoder := yaml.NewDecoder(file)
	if err = decoder.Decode(c); err != nil {
		return err
	}

	return nil
}

// convert checks the raw values of the config file and sets the derived fields.
func (c *Config) convert() (err error) {
	if c.Parity, err = receiver.ParseParity(c.ParityString); err != nil {
		return fmt.Errorf("parity: %w", err)
	}
	if c.MQTT.Format, err = message.ParseFormat(c.MQTT.FormatString); err != nil {
		return fmt.Errorf("mqtt format: %w", err)
	}

	if c.RepeatWindowInt < 0 {
		return fmt.Errorf("repeatwindow %d: %w", c.RepeatWindowInt, ErrInvalidConfig)
	}
	c.RepeatWindow = time.Duration(c.RepeatWindowInt) * time.Second

	switch c.Backend {
	case raspberry.Chardev, raspberry.Gpiomem, raspberry.Emulated:
	default:
		return fmt.Errorf("backend %q: %w", c.Backend, ErrInvalidConfig)
	}

	if c.Serial.Port != "" && c.Serial.BaudRate <= 0 {
		return fmt.Errorf("serial baudrate %d: %w", c.Serial.BaudRate, ErrInvalidConfig)
	}

	return nil
}

func (c *Config) setDebugConfig() (err error) {
	// defines Debug section of global.Config
	switch c.Debug.FlagString {
	case "trace", "full":
		c.Debug.Flag = debug.Full
	case "debug":
		c.Debug.Flag = debug.Warning | debug.Info | debug.Error | debug.Fatal | debug.Debug
	case "standard":
		c.Debug.Flag = debug.Standard
	default:
		return fmt.Errorf("debug flag %q: %w", c.Debug.FlagString, ErrInvalidConfig)
	}

	switch c.Debug.FileString {
	case "stderr":
		c.Debug.File = os.Stderr
	case "stdout":
		c.Debug.File = os.Stdout
	default:
		if c.Debug.File, err = os.OpenFile(c.Debug.FileString, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666); err != nil {
			return
		}
	}

	return
}
