package sftp

import "fmt"

type Config struct {
	Host       string `json:"host"`
	Port       int    `json:"port"` // Default: 22
	User       string `json:"user"`
	Password   string `json:"password"`    // Optional
	Identity   string `json:"identity"`    // Optional: private key path or raw PEM
	Passphrase string `json:"passphrase"`  // Optional
	RemotePath string `json:"remote_path"` // Base directory on remote server
}

func parseConfig(options map[string]interface{}) (*Config, error) {
	cfg := &Config{
		Port: 22,
	}

	if v, ok := options["host"].(string); ok {
		cfg.Host = v
	} else {
		return nil, fmt.Errorf("missing required option: host")
	}
	if v, ok := options["user"].(string); ok {
		cfg.User = v
	} else {
		return nil, fmt.Errorf("missing required option: user")
	}
	if v, ok := options["remote_path"].(string); ok {
		cfg.RemotePath = v
	} else {
		return nil, fmt.Errorf("missing required option: remote_path")
	}
	if v, ok := options["password"].(string); ok {
		cfg.Password = v
	}
	if v, ok := options["identity"].(string); ok {
		cfg.Identity = v
	}
	if v, ok := options["passphrase"].(string); ok {
		cfg.Passphrase = v
	}
	if v, ok := options["port"].(float64); ok {
		cfg.Port = int(v)
	}

	return cfg, nil
}
