package modules

import "github.com/webhookx-io/intercom/config/types"

var _ types.Config = BaseConfig{}

// BaseConfig gives a section no-op hooks, sections override what they need
type BaseConfig struct{}

func (BaseConfig) PostProcess() error { return nil }

func (BaseConfig) Validate() error { return nil }
