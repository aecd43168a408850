package backblaze

import "fmt"

type Config struct {
	AccountID      string `json:"account_id"`
	ApplicationKey string `json:"application_key"`
	BucketID       string `json:"bucket_id"`
	BucketName     string `json:"bucket_name"`
	Prefix         string `json:"prefix"`
}

func parseConfig(options map[string]interface{}) (*Config, error) {
	cfg := &Config{}

	if v, ok := options["account_id"].(string); ok {
		cfg.AccountID = v
	} else {
		return nil, fmt.Errorf("missing required option: account_id")
	}
	if v, ok := options["application_key"].(string); ok {
		cfg.ApplicationKey = v
	} else {
		return nil, fmt.Errorf("missing required option: application_key")
	}
	if v, ok := options["bucket_name"].(string); ok {
		cfg.BucketName = v
	} else {
		return nil, fmt.Errorf("missing required option: bucket_name")
	}
	if v, ok := options["bucket_id"].(string); ok {
		cfg.BucketID = v
	}
	if v, ok := options["prefix"].(string); ok {
		cfg.Prefix = v
	}

	return cfg, nil
}
