package orgcore

import (
	"fmt"
	"sync"
	"time"
)

// Scope is the enablement policy for a module within a multi-tenant
// deployment.
type Scope string

const (
	// ScopeDisabled disables the module for every tenant. It is also the
	// default for modules with no stored setting.
	ScopeDisabled Scope = "disabled"

	// ScopeAllTenants enables the module for every tenant, including tenants
	// created after the setting was written.
	ScopeAllTenants Scope = "all_tenants"

	// ScopeSelectedTenants enables the module only for the tenants listed in
	// the setting's SelectedTenants set.
	ScopeSelectedTenants Scope = "selected_tenants"
)

// ParseScope normalizes a raw scope value. Anything other than the three
// known scopes resolves to ScopeDisabled: enablement always takes the
// conservative branch on ambiguity.
func ParseScope(raw string) Scope {
	switch Scope(raw) {
	case ScopeAllTenants:
		return ScopeAllTenants
	case ScopeSelectedTenants:
		return ScopeSelectedTenants
	default:
		return ScopeDisabled
	}
}

// ModuleScopeSetting is the persisted per-module scope configuration,
// mutated by network-admin action and read by the ScopeValidator. The zero
// value is the documented default: disabled, no selected tenants, no module
// settings.
type ModuleScopeSetting struct {
	// Scope selects the enablement policy.
	Scope Scope `yaml:"scope" toml:"scope" json:"scope"`

	// SelectedTenants is the explicit tenant subset, meaningful only when
	// Scope is ScopeSelectedTenants.
	SelectedTenants []TenantID `yaml:"selected_tenants,omitempty" toml:"selected_tenants,omitempty" json:"selected_tenants,omitempty"`

	// ModuleSettings is an opaque per-module configuration blob. The core
	// stores and returns it without interpretation.
	ModuleSettings map[string]any `yaml:"module_settings,omitempty" toml:"module_settings,omitempty" json:"module_settings,omitempty"`
}

// DefaultModuleScopeSetting returns the setting applied to modules with no
// stored record.
func DefaultModuleScopeSetting() ModuleScopeSetting {
	return ModuleScopeSetting{Scope: ScopeDisabled}
}

// SettingsDocumentVersion is the current settings document schema version.
const SettingsDocumentVersion = "1"

// SettingsDocument is the single network-wide document holding every
// module's scope setting. It is shared across all tenants and admin
// sessions; writes replace the whole document (last write wins at document
// granularity).
type SettingsDocument struct {
	Modules     map[string]ModuleScopeSetting `yaml:"modules" toml:"modules" json:"modules"`
	LastUpdated time.Time                     `yaml:"last_updated" toml:"last_updated" json:"last_updated"`
	Version     string                        `yaml:"version" toml:"version" json:"version"`
}

func cloneSettingsDocument(doc SettingsDocument) SettingsDocument {
	out := doc
	if doc.Modules != nil {
		out.Modules = make(map[string]ModuleScopeSetting, len(doc.Modules))
		for id, s := range doc.Modules {
			out.Modules[id] = s
		}
	}
	return out
}

// SettingsStore is a typed view over exactly one key in the host's document
// persistence, holding the SettingsDocument. Reads never fail from the
// caller's perspective: an absent record, or an unavailable backing store,
// resolves to the documented default so enablement fails closed.
type SettingsStore struct {
	// writeMu serializes the read-modify-write cycle of updates within this
	// process. Writers in other processes still race at document
	// granularity; the core deliberately does not implement optimistic
	// concurrency.
	writeMu sync.Mutex
	store   DocumentStore
	logger  Logger
}

// NewSettingsStore creates a settings store over the given document store.
func NewSettingsStore(store DocumentStore, logger Logger) *SettingsStore {
	return &SettingsStore{
		store:  store,
		logger: logger,
	}
}

// ModuleSettings returns the scope setting for a module. It never fails:
// modules with no stored setting get the default (disabled), and a failed
// read of the backing store is logged and also resolves to the default.
func (s *SettingsStore) ModuleSettings(moduleID string) ModuleScopeSetting {
	doc, err := s.store.Load()
	if err != nil {
		s.logger.Warn("Settings document unavailable, treating module as disabled",
			"module", moduleID, "error", err)
		return DefaultModuleScopeSetting()
	}

	setting, ok := doc.Modules[moduleID]
	if !ok {
		return DefaultModuleScopeSetting()
	}

	setting.Scope = ParseScope(string(setting.Scope))
	return setting
}

// UpdateModuleSettings replaces the setting stored for a module, refreshes
// the document's LastUpdated field and persists the document as one atomic
// write. The write is not retried; the caller decides how to handle failure.
func (s *SettingsStore) UpdateModuleSettings(moduleID string, setting ModuleScopeSetting) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	doc, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSettingsLoad, err)
	}

	if doc.Modules == nil {
		doc.Modules = make(map[string]ModuleScopeSetting)
	}
	setting.Scope = ParseScope(string(setting.Scope))
	doc.Modules[moduleID] = setting
	doc.LastUpdated = time.Now().UTC()
	if doc.Version == "" {
		doc.Version = SettingsDocumentVersion
	}

	if err := s.store.Store(doc); err != nil {
		return fmt.Errorf("%w: %w", ErrSettingsStore, err)
	}

	s.logger.Debug("Updated module settings", "module", moduleID, "scope", setting.Scope)
	return nil
}

// DeleteModuleSettings removes the stored setting for a module. It returns
// false with a nil error when no record exists; deleting an absent record is
// a no-op, not an error. After deletion the module reads back as the
// documented default.
func (s *SettingsStore) DeleteModuleSettings(moduleID string) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	doc, err := s.store.Load()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrSettingsLoad, err)
	}

	if _, ok := doc.Modules[moduleID]; !ok {
		return false, nil
	}

	delete(doc.Modules, moduleID)
	doc.LastUpdated = time.Now().UTC()
	if doc.Version == "" {
		doc.Version = SettingsDocumentVersion
	}

	if err := s.store.Store(doc); err != nil {
		return false, fmt.Errorf("%w: %w", ErrSettingsStore, err)
	}

	s.logger.Debug("Deleted module settings", "module", moduleID)
	return true, nil
}

// AllSettings returns a copy of the full settings document for diagnostic
// and export use. An unavailable backing store yields an empty document.
func (s *SettingsStore) AllSettings() SettingsDocument {
	doc, err := s.store.Load()
	if err != nil {
		s.logger.Warn("Settings document unavailable, returning empty document", "error", err)
		return SettingsDocument{}
	}
	return cloneSettingsDocument(doc)
}
