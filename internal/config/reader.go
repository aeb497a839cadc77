package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

type Reader interface {
	Read() (*Config, error)
}

// EnvReader reads the environment only.
type EnvReader struct{}

func NewEnvReader() EnvReader {
	return EnvReader{}
}

func (EnvReader) Read() (*Config, error) {
	cfg := new(Config)
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, err
	}
	return validate(cfg)
}

// FileReader reads a YAML file, then applies the environment on top.
type FileReader struct {
	Path string
}

func NewFileReader(path string) FileReader {
	return FileReader{Path: path}
}

func (r FileReader) Read() (*Config, error) {
	cfg := new(Config)
	if err := cleanenv.ReadConfig(r.Path, cfg); err != nil {
		return nil, fmt.Errorf("read config %s: %w", r.Path, err)
	}
	return validate(cfg)
}

// Load picks a FileReader when path is set and an EnvReader otherwise.
func Load(path string) (*Config, error) {
	var r Reader = NewEnvReader()
	if path != "" {
		r = NewFileReader(path)
	}
	return r.Read()
}

func validate(cfg *Config) (*Config, error) {
	switch cfg.Env {
	case EnvDev, EnvProd, EnvLocal:
	default:
		return nil, fmt.Errorf("unknown env: %s", cfg.Env)
	}
	if cfg.API.URL == "" {
		return nil, fmt.Errorf("api url is empty")
	}
	if cfg.API.Timeout <= 0 {
		return nil, fmt.Errorf("api timeout must be positive, got %s", cfg.API.Timeout)
	}
	return cfg, nil
}
