package providers

import (
	"github.com/kelseyhightower/envconfig"
)

// EnvProvider overrides fields with environment variables named
// PREFIX_SECTION_FIELD.
type EnvProvider struct {
	prefix string
}

var _ Provider = &EnvProvider{}

func NewEnvProvider(prefix string) *EnvProvider {
	return &EnvProvider{prefix: prefix}
}

func (p *EnvProvider) Load(cfg any) error {
	return envconfig.Process(p.prefix, cfg)
}
