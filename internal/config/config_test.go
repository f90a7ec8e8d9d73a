package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfig_Defaults(t *testing.T) {
	conf, err := GetConfig()
	require.NoError(t, err)

	assert.Equal(t, "info", conf.AppConfig.LogLevel)
	assert.Equal(t, "chromium", conf.BrowserConfig.Engine)
	assert.Equal(t, 20.0, conf.ExecutionConfig.ImplicitWait)
	assert.Equal(t, 0.5, conf.ExecutionConfig.PollInterval)
	assert.True(t, conf.ExecutionConfig.WaitDisplayed)
	assert.False(t, conf.ExecutionConfig.ScreenshotOnStep)
	assert.Equal(t, 1, conf.ExecutionConfig.Workers)
}

func TestGetConfig_FromEnv(t *testing.T) {
	t.Setenv("EXEC_IMPLICIT_WAIT", "3.5")
	t.Setenv("EXEC_SCREENSHOT_ON_STEP", "true")
	t.Setenv("EXEC_WORKERS", "4")
	t.Setenv("BROWSER_ENGINE", "firefox")

	conf, err := GetConfig()
	require.NoError(t, err)

	assert.Equal(t, 3.5, conf.ExecutionConfig.ImplicitWait)
	assert.True(t, conf.ExecutionConfig.ScreenshotOnStep)
	assert.Equal(t, 4, conf.ExecutionConfig.Workers)
	assert.Equal(t, "firefox", conf.BrowserConfig.Engine)
}

func TestGetConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "negative wait", key: "EXEC_IMPLICIT_WAIT", val: "-1"},
		{name: "zero poll", key: "EXEC_POLL_INTERVAL", val: "0"},
		{name: "no workers", key: "EXEC_WORKERS", val: "0"},
		{name: "unknown engine", key: "BROWSER_ENGINE", val: "netscape"},
		{name: "not a number", key: "EXEC_IMPLICIT_WAIT", val: "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			_, err := GetConfig()
			assert.Error(t, err)
		})
	}
}

func TestSeconds(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, Seconds(0.5))
	assert.Equal(t, 20*time.Second, Seconds(20))
}
