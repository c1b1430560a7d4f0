package modules

import (
	"fmt"
	"slices"
)

type AccessLogConfig struct {
	BaseConfig
	Enabled bool      `yaml:"enabled" json:"enabled"`
	Format  LogFormat `yaml:"format" json:"format"`
	Colored bool      `yaml:"colored" json:"colored"`
	File    string    `yaml:"file" json:"file"`
}

func (cfg *AccessLogConfig) SetDefaults() {
	if cfg.Format == "" {
		cfg.Format = LogFormatText
	}
	if cfg.File == "" {
		cfg.File = "/dev/stdout"
	}
}

func (cfg AccessLogConfig) Validate() error {
	if !slices.Contains([]LogFormat{LogFormatText, LogFormatJson}, cfg.Format) {
		return fmt.Errorf("invalid format: %s", cfg.Format)
	}
	return nil
}
