package modules

import (
	"fmt"
	"net/netip"
	"net/url"
	"regexp"

	"github.com/webhookx-io/intercom/downloader"
)

// hostnameRule matches a host name of two labels or more, or a wildcard over
// any domain suffix such as "*.internal"
var hostnameRule = regexp.MustCompile(`^(?:\*(?:\.[a-zA-Z0-9-]+)+|[a-zA-Z0-9-]+(?:\.[a-zA-Z0-9-]+)+)$`)

type ACLConfig struct {
	Deny []string `yaml:"deny" json:"deny" split_words:"true"`
}

func (acl *ACLConfig) Validate() error {
	for _, rule := range acl.Deny {
		if err := validateRule(rule); err != nil {
			return err
		}
	}
	return nil
}

func validateRule(rule string) error {
	if downloader.IsPreset(rule) {
		return nil
	}
	if _, err := netip.ParseAddr(rule); err == nil {
		return nil
	}
	if _, err := netip.ParsePrefix(rule); err == nil {
		return nil
	}
	if hostnameRule.MatchString(rule) {
		return nil
	}
	return fmt.Errorf("invalid rule '%s': requires IP, CIDR, hostname, or pre-configured name", rule)
}

type DownloaderConfig struct {
	BaseConfig
	// Timeout in milliseconds for requests that carry none
	Timeout int64     `yaml:"timeout" json:"timeout" split_words:"true"`
	ACL     ACLConfig `yaml:"acl" json:"acl" split_words:"true"`
	Proxy   string    `yaml:"proxy" json:"proxy" split_words:"true"`
	CACert  string    `yaml:"ca_cert" json:"ca_cert" split_words:"true"`
}

func (cfg *DownloaderConfig) SetDefaults() {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60000
	}
}

func (cfg DownloaderConfig) Validate() error {
	if cfg.Timeout < 0 {
		return fmt.Errorf("downloader.timeout cannot be negative")
	}
	if err := cfg.ACL.Validate(); err != nil {
		return err
	}
	if cfg.Proxy != "" {
		u, err := url.Parse(cfg.Proxy)
		if err != nil {
			return fmt.Errorf("invalid proxy url: %s", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid proxy url: '%s'", cfg.Proxy)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("proxy schema must be http or https")
		}
	}
	return nil
}
