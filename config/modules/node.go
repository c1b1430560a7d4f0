package modules

import (
	"fmt"
	"slices"

	"github.com/webhookx-io/intercom/config/types"
	"github.com/webhookx-io/intercom/constants"
	"github.com/webhookx-io/intercom/utils"
)

type Role string

const (
	RoleEndpoint   Role = "endpoint"
	RoleDispatcher Role = "dispatcher"
	RoleClient     Role = "client"
)

var Roles = []Role{RoleEndpoint, RoleDispatcher, RoleClient}

type Destination struct {
	URL string   `yaml:"url" json:"url" validate:"required,http_url"`
	IPs []string `yaml:"ips" json:"ips" validate:"dive,ip"`
}

type NodeConfig struct {
	BaseConfig
	Role         Role                        `yaml:"role" json:"role" split_words:"true"`
	Name         string                      `yaml:"name" json:"name" split_words:"true"`
	InternalHops int                         `yaml:"internal_hops" json:"internal_hops" split_words:"true"`
	Overhead     int64                       `yaml:"overhead" json:"overhead" split_words:"true"`
	NextHop      string                      `yaml:"next_hop" json:"next_hop" split_words:"true" validate:"omitempty,http_url"`
	Destinations types.JSONList[Destination] `yaml:"destinations" json:"destinations" split_words:"true" validate:"dive"`
}

func (cfg *NodeConfig) SetDefaults() {
	if cfg.Role == "" {
		cfg.Role = RoleEndpoint
	}
	if cfg.Overhead == 0 {
		cfg.Overhead = constants.DefaultHopOverheadMs
	}
}

func (cfg NodeConfig) Validate() error {
	if !slices.Contains(Roles, cfg.Role) {
		return fmt.Errorf("invalid role: '%s'", cfg.Role)
	}
	if cfg.InternalHops < 0 {
		return fmt.Errorf("internal_hops cannot be negative value")
	}
	if cfg.Overhead < 0 {
		return fmt.Errorf("overhead cannot be negative value")
	}
	if cfg.Role == RoleClient && cfg.NextHop == "" {
		return fmt.Errorf("next_hop is required for role '%s'", cfg.Role)
	}
	return utils.Validate(cfg)
}

// NodeName returns the configured name, or the role
func (cfg NodeConfig) NodeName() string {
	return utils.DefaultIfZero(cfg.Name, string(cfg.Role))
}
