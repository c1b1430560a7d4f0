package config

import (
	"encoding/json"

	"github.com/creasty/defaults"
	"github.com/webhookx-io/intercom/config/modules"
	"github.com/webhookx-io/intercom/config/types"
)

var _ types.Config = &Config{}

// Config is the configuration of a node process
type Config struct {
	modules.BaseConfig
	Log        modules.LogConfig        `yaml:"log" json:"log" split_words:"true"`
	AccessLog  modules.AccessLogConfig  `yaml:"access_log" json:"access_log" split_words:"true"`
	Node       modules.NodeConfig       `yaml:"node" json:"node" split_words:"true"`
	Server     modules.ServerConfig     `yaml:"server" json:"server" split_words:"true"`
	Downloader modules.DownloaderConfig `yaml:"downloader" json:"downloader" split_words:"true"`
}

func (cfg Config) String() string {
	bytes, err := json.Marshal(cfg)
	if err != nil {
		panic(err)
	}
	return string(bytes)
}

// sections returns the modules in validation order
func (cfg *Config) sections() []types.Config {
	return []types.Config{&cfg.Log, &cfg.AccessLog, &cfg.Node, &cfg.Server, &cfg.Downloader}
}

func (cfg *Config) Validate() error {
	for _, section := range cfg.sections() {
		if err := section.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (cfg *Config) PostProcess() error {
	for _, section := range cfg.sections() {
		if err := section.PostProcess(); err != nil {
			return err
		}
	}
	return nil
}

func New() *Config {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		panic(err)
	}
	return &cfg
}
