package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetPort(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		remote   Remote
		want     int
	}{
		{name: "remote port wins", settings: Settings{Port: 2222}, remote: Remote{Port: 2200}, want: 2200},
		{name: "global default", settings: Settings{Port: 2222}, remote: Remote{}, want: 2222},
		{name: "fallback to 22", settings: Settings{}, remote: Remote{}, want: 22},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.remote.GetPort(tt.settings))
		})
	}
}

func TestGetUser(t *testing.T) {
	settings := Settings{User: "deploy"}

	assert.Equal(t, "admin", (&Remote{User: "admin"}).GetUser(settings))
	assert.Equal(t, "deploy", (&Remote{}).GetUser(settings))
}

func TestIsEnabled(t *testing.T) {
	enabled := true
	disabled := false

	assert.True(t, (&Remote{}).IsEnabled())
	assert.True(t, (&Remote{Enabled: &enabled}).IsEnabled())
	assert.False(t, (&Remote{Enabled: &disabled}).IsEnabled())
}

func TestGetDestinations(t *testing.T) {
	cfg := &Config{
		Storage: StorageConfig{
			Destinations: []StorageDestination{
				{Name: "local_archive", Type: "local", Enabled: true},
				{Name: "s3_offsite", Type: "s3", Enabled: true},
				{Name: "old_backup", Type: "local", Enabled: false},
			},
		},
	}

	explicit := Remote{Destinations: []string{"s3_offsite"}}
	assert.Equal(t, []string{"s3_offsite"}, explicit.GetDestinations(cfg))

	// No explicit destinations means every enabled one
	implicit := Remote{}
	assert.Equal(t, []string{"local_archive", "s3_offsite"}, implicit.GetDestinations(cfg))
}

func TestGetMaxConcurrentSessions(t *testing.T) {
	assert.Equal(t, 3, (&Config{}).GetMaxConcurrentSessions())
	assert.Equal(t, 8, (&Config{MaxConcurrentSessions: 8}).GetMaxConcurrentSessions())
}

func TestLogDefaults(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, "info", cfg.GetLogLevel())
	assert.Equal(t, "json", cfg.GetLogFormat())

	cfg = &Config{LogLevel: "debug", LogFormat: "console"}
	assert.Equal(t, "debug", cfg.GetLogLevel())
	assert.Equal(t, "console", cfg.GetLogFormat())
}
