// Package identity models the capability-bearing actors that drive tracker
// operations. Actors are explicit arguments everywhere; there is no ambient
// session state inside the core.
package identity

import (
	"strings"

	"stagegate/internal/config"
)

// Capabilities understood by the tracker and its surfaces.
const (
	CapViewLoans        = "view_loans"
	CapRecordSignal     = "record_signal"
	CapAdvanceLoanStage = "advance_loan_stage"
	CapCreateLoan       = "create_loan"
)

// Actor is an authenticated identity and its granted roles.
type Actor struct {
	ID    string
	Name  string
	Roles []string
}

// Provider resolves whether an actor holds a capability.
type Provider interface {
	HasCapability(actor Actor, capability string) bool
}

// RoleProvider grants capabilities from a role to capability-set mapping.
type RoleProvider struct {
	grants map[string]map[string]struct{}
}

// NewRoleProvider builds a provider from role to capability lists.
func NewRoleProvider(roles map[string][]string) *RoleProvider {
	grants := make(map[string]map[string]struct{}, len(roles))
	for role, caps := range roles {
		role = strings.ToLower(strings.TrimSpace(role))
		if role == "" {
			continue
		}
		set := make(map[string]struct{}, len(caps))
		for _, capability := range caps {
			capability = strings.ToLower(strings.TrimSpace(capability))
			if capability != "" {
				set[capability] = struct{}{}
			}
		}
		grants[role] = set
	}
	return &RoleProvider{grants: grants}
}

// NewFromConfig builds a provider from the [identity.roles] config section.
func NewFromConfig(cfg *config.Config) *RoleProvider {
	if cfg == nil || len(cfg.Identity.Roles) == 0 {
		return NewRoleProvider(config.DefaultRoles())
	}
	return NewRoleProvider(cfg.Identity.Roles)
}

// HasCapability reports whether any of the actor's roles grants the capability.
func (p *RoleProvider) HasCapability(actor Actor, capability string) bool {
	capability = strings.ToLower(strings.TrimSpace(capability))
	if capability == "" {
		return false
	}
	for _, role := range actor.Roles {
		set, ok := p.grants[strings.ToLower(strings.TrimSpace(role))]
		if !ok {
			continue
		}
		if _, granted := set[capability]; granted {
			return true
		}
	}
	return false
}
