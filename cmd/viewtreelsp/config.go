package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the optional on-disk settings file for the example
// server: log level and workspace root directory, loaded from
// --config if given. Nothing under lspcore itself reads files; this stays
// entirely in cmd/viewtreelsp.
type fileConfig struct {
	LogLevel  string `yaml:"log_level"`
	Workspace string `yaml:"workspace"`
}

func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
