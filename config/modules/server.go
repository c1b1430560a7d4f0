package modules

import (
	"errors"
	"strings"

	"github.com/webhookx-io/intercom/utils"
)

type ServerConfig struct {
	BaseConfig
	Listen             string `yaml:"listen" json:"listen" split_words:"true"`
	Path               string `yaml:"path" json:"path" split_words:"true"`
	TLS                TLS    `yaml:"tls" json:"tls" split_words:"true"`
	TimeoutRead        int64  `yaml:"timeout_read" json:"timeout_read" split_words:"true"`
	TimeoutWrite       int64  `yaml:"timeout_write" json:"timeout_write" split_words:"true"`
	MaxRequestBodySize int64  `yaml:"max_request_body_size" json:"max_request_body_size" split_words:"true"`
}

type TLS struct {
	Cert string `yaml:"cert" json:"cert" split_words:"true"`
	Key  string `yaml:"key" json:"key" split_words:"true"`
}

func (cfg TLS) Enabled() bool {
	return cfg.Cert != "" && cfg.Key != ""
}

func (cfg *ServerConfig) SetDefaults() {
	if cfg.Listen == "" {
		cfg.Listen = "127.0.0.1:9700"
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	if cfg.MaxRequestBodySize == 0 {
		cfg.MaxRequestBodySize = 1 * 1024 * 1024
	}
}

func (cfg ServerConfig) Validate() error {
	if cfg.Listen == "" {
		return errors.New("listen is required")
	}
	if !strings.HasPrefix(cfg.Path, "/") {
		return errors.New("path must start with '/'")
	}
	if cfg.MaxRequestBodySize < 0 {
		return errors.New("max_request_body_size cannot be negative value")
	}
	if cfg.TimeoutRead < 0 {
		return errors.New("timeout_read cannot be negative value")
	}
	if cfg.TimeoutWrite < 0 {
		return errors.New("timeout_write cannot be negative value")
	}
	return nil
}

func (cfg ServerConfig) URL() string {
	return utils.ListenAddrToURL(cfg.TLS.Enabled(), cfg.Listen) + cfg.Path
}
