package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppConfig       *AppConfig
	BrowserConfig   *BrowserConfig
	ExecutionConfig *ExecutionConfig
}

type AppConfig struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
	Tracing  bool   `envconfig:"TRACING" default:"false"`
}

type BrowserConfig struct {
	Engine         string `envconfig:"BROWSER_ENGINE" default:"chromium"`
	Headless       bool   `envconfig:"BROWSER_HEADLESS" default:"true"`
	SlowMo         int    `envconfig:"BROWSER_SLOW_MO" default:"0"`
	Timeout        int    `envconfig:"BROWSER_TIMEOUT" default:"30000"`
	ViewportWidth  int    `envconfig:"BROWSER_VIEWPORT_WIDTH" default:"1280"`
	ViewportHeight int    `envconfig:"BROWSER_VIEWPORT_HEIGHT" default:"720"`
	SkipInstall    bool   `envconfig:"BROWSER_SKIP_INSTALL" default:"false"`
}

// ExecutionConfig is the settings snapshot every test context starts from.
type ExecutionConfig struct {
	ImplicitWait     float64 `envconfig:"EXEC_IMPLICIT_WAIT" default:"20"`
	PollInterval     float64 `envconfig:"EXEC_POLL_INTERVAL" default:"0.5"`
	WaitDisplayed    bool    `envconfig:"EXEC_WAIT_DISPLAYED" default:"true"`
	ScreenshotOnStep bool    `envconfig:"EXEC_SCREENSHOT_ON_STEP" default:"false"`
	ScreenshotDir    string  `envconfig:"EXEC_SCREENSHOT_DIR" default:"./screenshots"`
	Workers          int     `envconfig:"EXEC_WORKERS" default:"1"`
	ReportPath       string  `envconfig:"EXEC_REPORT_PATH" default:""`
	MetricsAddr      string  `envconfig:"EXEC_METRICS_ADDR" default:""`
}

func GetConfig() (*Config, error) {
	_ = godotenv.Load()

	var conf Config

	if err := envconfig.Process("", &conf); err != nil {
		return nil, fmt.Errorf("read config from env vars: %w", err)
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return &conf, nil
}

func (c *Config) Validate() error {
	e := c.ExecutionConfig

	if e.ImplicitWait < 0 {
		return fmt.Errorf("EXEC_IMPLICIT_WAIT must not be negative, got %v", e.ImplicitWait)
	}

	if e.PollInterval <= 0 {
		return fmt.Errorf("EXEC_POLL_INTERVAL must be positive, got %v", e.PollInterval)
	}

	if e.Workers < 1 {
		return fmt.Errorf("EXEC_WORKERS must be at least 1, got %d", e.Workers)
	}

	switch c.BrowserConfig.Engine {
	case "chromium", "firefox", "webkit":
	default:
		return fmt.Errorf("BROWSER_ENGINE must be chromium, firefox or webkit, got %q", c.BrowserConfig.Engine)
	}

	return nil
}

func Seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
