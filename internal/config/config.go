package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Backend BackendConfig `yaml:"backend"`
	Gateway GatewayConfig `yaml:"gateway"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

type BackendConfig struct {
	URL string `yaml:"url"`
}

type GatewayConfig struct {
	// AllowedPrefixes is the gateway's path allow-list; anything else is
	// answered 404 without touching the backend.
	AllowedPrefixes []string `yaml:"allowed_prefixes"`
	// CORSOrigins lists origins allowed by the gateway's own CORS layer.
	// Empty means any origin.
	CORSOrigins []string `yaml:"cors_origins"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 3000,
			Host: "0.0.0.0",
		},
		Backend: BackendConfig{
			URL: "http://localhost:8000",
		},
		Gateway: GatewayConfig{
			AllowedPrefixes: []string{
				"/api/battle",
				"/api/leaderboard",
				"/api/playground",
				"/api/documents",
				"/api/admin",
				"/api/health",
			},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
