package orgcore

import (
	"strconv"
	"strings"
)

// ScopeValidator is the pure decision logic for module enablement. It joins
// the catalog (declared dependencies) with the settings store (scope
// configuration) and keeps no state of its own; every method is a read.
type ScopeValidator struct {
	registry *Registry
	settings *SettingsStore
	tenants  TenantDirectory
	logger   Logger
}

// NewScopeValidator creates a validator over the given catalog, settings
// store and tenant directory.
func NewScopeValidator(registry *Registry, settings *SettingsStore, tenants TenantDirectory, logger Logger) *ScopeValidator {
	return &ScopeValidator{
		registry: registry,
		settings: settings,
		tenants:  tenants,
		logger:   logger,
	}
}

// canonicalTenant reduces a tenant id to its canonical comparison form.
// Decimal ids compare by value, so "07", "7" and a numerically stored 7 all
// identify the same tenant; anything else compares as the trimmed raw
// string. Parsing is strictly base 10: ids like "0x10" or "0b111" are
// opaque strings, never aliases for the decimal tenants 16 and 7.
func canonicalTenant(id TenantID) string {
	s := strings.TrimSpace(string(id))
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return s
}

// ModuleEnabledForTenant reports whether a module is enabled for a tenant.
// A module with no stored setting, a disabled scope, or an unrecognized
// scope value is never enabled; enablement fails closed on any ambiguity.
func (v *ScopeValidator) ModuleEnabledForTenant(moduleID string, tenantID TenantID) bool {
	setting := v.settings.ModuleSettings(moduleID)

	switch ParseScope(string(setting.Scope)) {
	case ScopeAllTenants:
		return true
	case ScopeSelectedTenants:
		want := canonicalTenant(tenantID)
		for _, selected := range setting.SelectedTenants {
			if canonicalTenant(selected) == want {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// ValidateDependencies reports whether every dependency the module declares
// is itself enabled for the tenant. Only the immediate dependency set is
// checked; the check does not recurse into a dependency's own dependencies.
// Modules declaring no dependencies, including unknown modules, trivially
// pass. The check short-circuits on the first failing dependency.
func (v *ScopeValidator) ValidateDependencies(moduleID string, tenantID TenantID) bool {
	for _, dep := range v.registry.Dependencies(moduleID) {
		if !v.ModuleEnabledForTenant(dep, tenantID) {
			v.logger.Debug("Dependency not satisfied",
				"module", moduleID, "dependency", dep, "tenant", tenantID)
			return false
		}
	}
	return true
}

// ModuleScope returns the configured scope for a module, ScopeDisabled when
// unset or unrecognized.
func (v *ScopeValidator) ModuleScope(moduleID string) Scope {
	return ParseScope(string(v.settings.ModuleSettings(moduleID).Scope))
}

// EnabledTenants returns the tenants a module is enabled for: the full
// directory universe for ScopeAllTenants, the stored subset for
// ScopeSelectedTenants, and nothing for a disabled module.
func (v *ScopeValidator) EnabledTenants(moduleID string) []TenantID {
	setting := v.settings.ModuleSettings(moduleID)

	switch ParseScope(string(setting.Scope)) {
	case ScopeAllTenants:
		return v.tenants.Tenants()
	case ScopeSelectedTenants:
		return append([]TenantID(nil), setting.SelectedTenants...)
	default:
		return nil
	}
}
