package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// maxNumberedCredentials bounds the PREFIX_2..PREFIX_N environment scan.
const maxNumberedCredentials = 10

// Load reads configuration from a YAML file. Environment variables in the
// file are expanded before parsing.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults if necessary
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	for i := range cfg.Services {
		svc := &cfg.Services[i]
		if svc.Name == "" {
			return nil, fmt.Errorf("service %d is missing a name", i)
		}
		if svc.Kind != KindCompletion && svc.Kind != KindEmail {
			return nil, fmt.Errorf("service %s has unknown kind %q", svc.Name, svc.Kind)
		}
		if svc.EnvPrefix == "" {
			return nil, fmt.Errorf("service %s is missing env_prefix", svc.Name)
		}
		if svc.Cooldown == 0 {
			svc.Cooldown = Duration(60 * time.Second)
		}
		if svc.MaxAttempts == 0 {
			svc.MaxAttempts = 3
		}
		if svc.BaseDelay == 0 {
			svc.BaseDelay = Duration(500 * time.Millisecond)
		}
		if svc.Timeout == 0 {
			svc.Timeout = Duration(30 * time.Second)
		}
	}

	return &cfg, nil
}

// CollectCredentials gathers the credential values configured for an
// environment prefix: the primary value under PREFIX, then PREFIX_2
// through PREFIX_10, stopping at the first gap in the numbered sequence.
// An empty result is not an error; the pool built from it rejects
// operations instead.
func CollectCredentials(envPrefix string) []string {
	var creds []string
	if v := os.Getenv(envPrefix); v != "" {
		creds = append(creds, v)
	}
	for i := 2; i <= maxNumberedCredentials; i++ {
		v := os.Getenv(fmt.Sprintf("%s_%d", envPrefix, i))
		if v == "" {
			break
		}
		creds = append(creds, v)
	}
	return creds
}
