package s3

import "fmt"

// Config holds S3 configuration
type Config struct {
	Endpoint        string `json:"endpoint"` // Optional: for MinIO/LocalStack
	Region          string `json:"region"`   // AWS region
	Bucket          string `json:"bucket"`   // S3 bucket name
	Prefix          string `json:"prefix"`   // Object key prefix
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	UseSSL          bool   `json:"use_ssl"`          // Default: true
	ForcePathStyle  bool   `json:"force_path_style"` // For MinIO/LocalStack
}

func parseConfig(options map[string]interface{}) (*Config, error) {
	cfg := &Config{
		UseSSL:         true, // Default
		ForcePathStyle: false,
	}

	if v, ok := options["endpoint"].(string); ok {
		cfg.Endpoint = v
	}
	if v, ok := options["region"].(string); ok {
		cfg.Region = v
	} else {
		return nil, fmt.Errorf("missing required option: region")
	}
	if v, ok := options["bucket"].(string); ok {
		cfg.Bucket = v
	} else {
		return nil, fmt.Errorf("missing required option: bucket")
	}
	if v, ok := options["prefix"].(string); ok {
		cfg.Prefix = v
	}
	if v, ok := options["access_key_id"].(string); ok {
		cfg.AccessKeyID = v
	} else {
		return nil, fmt.Errorf("missing required option: access_key_id")
	}
	if v, ok := options["secret_access_key"].(string); ok {
		cfg.SecretAccessKey = v
	} else {
		return nil, fmt.Errorf("missing required option: secret_access_key")
	}
	if v, ok := options["use_ssl"].(bool); ok {
		cfg.UseSSL = v
	}
	if v, ok := options["force_path_style"].(bool); ok {
		cfg.ForcePathStyle = v
	}

	return cfg, nil
}
