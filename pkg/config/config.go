package config

// Settings defines global defaults applied to all remotes.
//
// Every field can be overridden per remote. Identity and Passphrase are
// resolved as an atomic pair: a remote that sets its own identity never
// inherits the global passphrase (see sshauth.Resolve).
type Settings struct {
	User                string `json:"user,omitempty"`
	Port                int    `json:"port,omitempty"`                 // default SSH port
	Password            string `json:"password,omitempty"`             // password authentication
	Identity            string `json:"identity,omitempty"`             // private key: file path or raw PEM
	Passphrase          string `json:"passphrase,omitempty"`           // decrypts an encrypted identity
	PasswordFile        string `json:"password_file,omitempty"`        // host:port:user:password lookup file
	TranscriptRetention int    `json:"transcript_retention,omitempty"` // transcripts kept per remote (0 = unlimited)
}

// Remote defines a single target host.
type Remote struct {
	Name         string   `json:"name"`
	Host         string   `json:"host"`
	Port         int      `json:"port,omitempty"` // optional, overrides global default
	User         string   `json:"user,omitempty"`
	Password     string   `json:"password,omitempty"`
	Identity     string   `json:"identity,omitempty"`
	Passphrase   string   `json:"passphrase,omitempty"`
	Commands     []string `json:"commands"`
	Destinations []string `json:"destinations,omitempty"` // storage destination names, empty = all enabled
	Enabled      *bool    `json:"enabled,omitempty"`      // defaults to true if omitted
}

// StorageDestination defines a named transcript storage target.
type StorageDestination struct {
	Name    string                 `json:"name"`
	Type    string                 `json:"type"` // local, s3, backblaze, sftp
	Enabled bool                   `json:"enabled"`
	BaseDir string                 `json:"base_dir,omitempty"`
	Options map[string]interface{} `json:"options,omitempty"`
}

// StorageConfig groups transcript storage settings.
type StorageConfig struct {
	TempDir      string               `json:"temp_dir,omitempty"` // scratch dir for transcripts before upload
	Destinations []StorageDestination `json:"destinations,omitempty"`
}

// Config is the root configuration structure.
type Config struct {
	Settings              Settings      `json:"settings,omitempty"`
	Remotes               []Remote      `json:"remotes"`
	Storage               StorageConfig `json:"storage,omitempty"`
	MaxConcurrentSessions int           `json:"max_concurrent_sessions,omitempty"` // default: 3
	LogLevel              string        `json:"log_level,omitempty"`               // debug, info, warn, error (default: info)
	LogFormat             string        `json:"log_format,omitempty"`              // json, console (default: json)
}

// GetPort returns the effective SSH port for a remote
// (remote-specific, then global default, then 22).
func (r *Remote) GetPort(settings Settings) int {
	if r.Port > 0 {
		return r.Port
	}
	if settings.Port > 0 {
		return settings.Port
	}
	return 22
}

// GetUser returns the effective username for a remote.
func (r *Remote) GetUser(settings Settings) string {
	if r.User != "" {
		return r.User
	}
	return settings.User
}

// IsEnabled returns whether the remote is active (defaults to true).
func (r *Remote) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// GetDestinations returns the destination names configured for a remote.
// A remote with no explicit destinations uses every enabled destination.
func (r *Remote) GetDestinations(cfg *Config) []string {
	if len(r.Destinations) > 0 {
		return r.Destinations
	}
	var names []string
	for _, dest := range cfg.Storage.Destinations {
		if dest.Enabled {
			names = append(names, dest.Name)
		}
	}
	return names
}

// GetMaxConcurrentSessions returns the session concurrency cap (defaults to 3).
func (c *Config) GetMaxConcurrentSessions() int {
	if c.MaxConcurrentSessions > 0 {
		return c.MaxConcurrentSessions
	}
	return 3
}

// GetLogLevel returns the log level (defaults to info).
func (c *Config) GetLogLevel() string {
	if c.LogLevel != "" {
		return c.LogLevel
	}
	return "info"
}

// GetLogFormat returns the log format (defaults to json).
func (c *Config) GetLogFormat() string {
	if c.LogFormat != "" {
		return c.LogFormat
	}
	return "json"
}
