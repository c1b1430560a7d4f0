package config

import (
	"github.com/webhookx-io/intercom/config/providers"
)

const EnvPrefix = "INTERCOM"

// Loader applies the YAML document, then the environment, over cfg
type Loader struct {
	cfg         *Config
	envPrefix   string
	filename    string
	fileContent []byte
}

func NewLoader(cfg *Config) *Loader {
	return &Loader{cfg: cfg}
}

// WithEnvPrefix enables the environment provider
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

func (l *Loader) WithFilename(filename string) *Loader {
	l.filename = filename
	return l
}

func (l *Loader) WithFileContent(content []byte) *Loader {
	l.fileContent = content
	return l
}

func (l *Loader) providers() []providers.Provider {
	list := []providers.Provider{providers.NewYAMLProvider(l.filename, l.fileContent)}
	if l.envPrefix != "" {
		list = append(list, providers.NewEnvProvider(l.envPrefix))
	}
	return list
}

func (l *Loader) Load() error {
	for _, p := range l.providers() {
		if err := p.Load(l.cfg); err != nil {
			return err
		}
	}
	return l.cfg.PostProcess()
}

// Load loads filename and the INTERCOM_ environment into cfg
func Load(filename string, cfg *Config) error {
	return NewLoader(cfg).WithEnvPrefix(EnvPrefix).WithFilename(filename).Load()
}
