// Package config loads client settings from the environment and an
// optional YAML file. Environment variables win over the file.
package config

import "time"

const (
	EnvDev   = "dev"
	EnvProd  = "prod"
	EnvLocal = "local"
)

type Config struct {
	Env  string `yaml:"env" env:"TADA_ENV" env-default:"prod" env-description:"dev, prod or local"`
	Home string `yaml:"home" env:"TADA_HOME" env-description:"credential directory (default ~/.tada)"`

	API APIConfig `yaml:"api"`
	Log LogConfig `yaml:"log"`
	UI  UIConfig  `yaml:"ui"`

	// Token overrides the stored credential. Never read from the file.
	Token string `yaml:"-" env:"TADA_TOKEN"`
}

type APIConfig struct {
	URL     string        `yaml:"url" env:"TADA_API_URL" env-default:"http://localhost:8000/api/v1"`
	Timeout time.Duration `yaml:"timeout" env:"TADA_HTTP_TIMEOUT" env-default:"15s"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"TADA_LOG_LEVEL" env-description:"overrides the level implied by TADA_ENV"`
	File  string `yaml:"file" env:"TADA_LOG_FILE"`
}

type UIConfig struct {
	Theme string `yaml:"theme" env:"TADA_THEME" env-default:"classic"`
}
