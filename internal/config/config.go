package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

// Capture modes selectable with CAPTURE_MODE.
const (
	ModeFilter      = "filter"
	ModeBurst       = "burst"
	ModePlaceholder = "placeholder"
)

type Config struct {
	Port         int    `env:"PORT" envDefault:"8000"`
	Password     string `env:"PASSWORD"`
	WebRoot      string `env:"WEB_ROOT" envDefault:"public"`
	LogDirectory string `env:"LOG_DIR" envDefault:"logs"`
	DatabasePath string `env:"DB_PATH" envDefault:"data/captures.db"`
	CaptureMode  string `env:"CAPTURE_MODE" envDefault:"filter"`

	// SerialPort is taken from the command line, never from the environment.
	SerialPort string
	SerialBaud int `env:"SERIAL_BAUD" envDefault:"9600"`

	Camera CameraConfig `envPrefix:"CAMERA_"`
	Filter FilterConfig `envPrefix:"FILTER_"`
	MQTT   MQTTConfig   `envPrefix:"MQTT_"`
}

// CameraConfig describes how every picture is taken. It is built once at
// startup and shared read-only by all capture runs.
type CameraConfig struct {
	Width   int    `env:"WIDTH" envDefault:"1280"`
	Height  int    `env:"HEIGHT" envDefault:"720"`
	Quality int    `env:"QUALITY" envDefault:"100"`
	Output  string `env:"OUTPUT" envDefault:"jpeg"` // jpeg or png
	Device  int    `env:"DEVICE" envDefault:"0"`
	// Delivery is one of location, buffer, base64.
	Delivery string `env:"DELIVERY" envDefault:"location"`
	Verbose  bool   `env:"VERBOSE" envDefault:"false"`
}

// Extension returns the file extension (with dot) for the configured output.
func (c CameraConfig) Extension() string {
	if c.Output == "png" {
		return ".png"
	}
	return ".jpg"
}

type FilterConfig struct {
	BaseURL        string        `env:"BASE_URL"`
	Name           string        `env:"NAME" envDefault:"sepia"`
	PollInterval   time.Duration `env:"POLL_INTERVAL" envDefault:"1s"`
	PollTimeout    time.Duration `env:"POLL_TIMEOUT" envDefault:"2m"` // 0 polls forever
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
}

type MQTTConfig struct {
	Broker      string `env:"BROKER"`
	ClientID    string `env:"CLIENT_ID" envDefault:"picturebridge"`
	Username    string `env:"USERNAME"`
	Password    string `env:"PASSWORD"`
	TopicPrefix string `env:"TOPIC_PREFIX" envDefault:"picturebridge"`
}

// Load reads an optional .env file and parses the environment into a Config.
func Load(serialPort string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{SerialPort: serialPort}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that env parsing cannot.
func (c *Config) Validate() error {
	if c.SerialPort == "" {
		return fmt.Errorf("serial port is required")
	}

	switch c.CaptureMode {
	case ModeFilter:
		if c.Filter.BaseURL == "" {
			return fmt.Errorf("FILTER_BASE_URL is required in %s mode", ModeFilter)
		}
		if c.Filter.PollInterval <= 0 {
			return fmt.Errorf("FILTER_POLL_INTERVAL must be positive, got %s", c.Filter.PollInterval)
		}
		if c.Filter.PollTimeout < 0 {
			return fmt.Errorf("FILTER_POLL_TIMEOUT must not be negative, got %s", c.Filter.PollTimeout)
		}
	case ModeBurst, ModePlaceholder:
	default:
		return fmt.Errorf("unknown CAPTURE_MODE %q", c.CaptureMode)
	}

	if c.Camera.Output != "jpeg" && c.Camera.Output != "png" {
		return fmt.Errorf("CAMERA_OUTPUT must be jpeg or png, got %q", c.Camera.Output)
	}
	if c.Camera.Quality < 0 || c.Camera.Quality > 100 {
		return fmt.Errorf("CAMERA_QUALITY must be between 0 and 100, got %d", c.Camera.Quality)
	}
	switch c.Camera.Delivery {
	case "location", "buffer", "base64":
	default:
		return fmt.Errorf("CAMERA_DELIVERY must be location, buffer or base64, got %q", c.Camera.Delivery)
	}
	return nil
}
