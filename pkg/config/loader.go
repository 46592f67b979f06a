package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load parses environment variables into the struct pointed to by cfg,
// following its `env` and `envDefault` tags.
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// Parse allocates a T and fills it from the environment.
//
//	cfg, err := config.Parse[Config]()
func Parse[T any]() (*T, error) {
	cfg := new(T)
	if err := Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
