package cmd

import (
	"github.com/pkg/errors"
	"github.com/webhookx-io/intercom/config"
)

func loadConfig(filename string) (*config.Config, error) {
	cfg := config.New()
	if err := config.Load(filename, cfg); err != nil {
		return nil, errors.Wrap(err, "could not load configuration")
	}
	return cfg, nil
}

// initConfig loads and validates the configuration of a served node
func initConfig(filename string) (*config.Config, error) {
	cfg, err := loadConfig(filename)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}
