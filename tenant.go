// Package orgcore provides tenant identity and directory types for the
// module enablement core. A tenant is one site within a multi-tenant
// deployment; the core never enumerates or resolves tenants itself, it
// consults a TenantDirectory supplied by the host.
package orgcore

import (
	"context"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

// TenantID represents a unique tenant identifier. Tenant IDs are opaque,
// stable strings. Hosts that key tenants numerically (site ids, customer
// numbers) may store them as numbers in the settings document; membership
// checks compare canonical forms, so "7" and 7 identify the same tenant.
type TenantID string

// UnmarshalYAML accepts any scalar node as a tenant id, so settings
// documents may carry numeric tenant ids without quoting.
func (t *TenantID) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: got yaml kind %d", ErrTenantIDNotScalar, value.Kind)
	}
	*t = TenantID(value.Value)
	return nil
}

// UnmarshalTOML accepts string or integer values as tenant ids.
func (t *TenantID) UnmarshalTOML(v any) error {
	switch val := v.(type) {
	case string:
		*t = TenantID(val)
	case int64:
		*t = TenantID(fmt.Sprintf("%d", val))
	default:
		return fmt.Errorf("%w: got %T", ErrTenantIDNotScalar, v)
	}
	return nil
}

// TenantContext carries tenant identity through a call chain. It wraps a
// standard context.Context so tenant-scoped operations can resolve which
// tenant they serve without plumbing an extra parameter.
type TenantContext struct {
	context.Context
	tenantID TenantID
}

// NewTenantContext creates a context carrying the given tenant id.
func NewTenantContext(ctx context.Context, tenantID TenantID) *TenantContext {
	return &TenantContext{
		Context:  ctx,
		tenantID: tenantID,
	}
}

// GetTenantID returns the tenant id carried by the context.
func (tc *TenantContext) GetTenantID() TenantID {
	return tc.tenantID
}

// TenantIDFromContext extracts a tenant id from a context. It returns the
// id and true when the context is a TenantContext, or an empty id and false
// otherwise.
func TenantIDFromContext(ctx context.Context) (TenantID, bool) {
	if tc, ok := ctx.(*TenantContext); ok {
		return tc.GetTenantID(), true
	}
	return "", false
}

// TenantDirectory is the host-provided boundary for tenant enumeration and
// resolution. The core uses it to decide whether activation applies at all
// (single-tenant deployments skip it), which tenant the current request
// serves, and the universe of tenants for all-tenant scopes.
type TenantDirectory interface {
	// IsMultiTenant reports whether the deployment serves multiple tenants.
	// When false the ActivationManager deliberately does nothing.
	IsMultiTenant() bool

	// CurrentTenant resolves the tenant for the active request.
	CurrentTenant() TenantID

	// Tenants enumerates all known tenant ids.
	Tenants() []TenantID
}

// StaticTenantDirectory is a fixed-universe TenantDirectory for hosts with a
// known tenant set, and for tests. The current tenant may be switched per
// request via SetCurrent.
type StaticTenantDirectory struct {
	mu          sync.RWMutex
	multiTenant bool
	current     TenantID
	tenants     []TenantID
}

// NewStaticTenantDirectory creates a multi-tenant directory with the given
// current tenant and universe.
func NewStaticTenantDirectory(current TenantID, tenants ...TenantID) *StaticTenantDirectory {
	return &StaticTenantDirectory{
		multiTenant: true,
		current:     current,
		tenants:     append([]TenantID(nil), tenants...),
	}
}

// NewSingleTenantDirectory creates a directory describing a deployment that
// is not multi-tenant. The ActivationManager treats such deployments as out
// of scope and loads nothing.
func NewSingleTenantDirectory() *StaticTenantDirectory {
	return &StaticTenantDirectory{}
}

// IsMultiTenant reports whether this directory describes a multi-tenant
// deployment.
func (d *StaticTenantDirectory) IsMultiTenant() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.multiTenant
}

// CurrentTenant returns the tenant configured as current.
func (d *StaticTenantDirectory) CurrentTenant() TenantID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.current
}

// SetCurrent switches the current tenant.
func (d *StaticTenantDirectory) SetCurrent(tenantID TenantID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.current = tenantID
}

// Tenants returns a copy of the known tenant universe.
func (d *StaticTenantDirectory) Tenants() []TenantID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]TenantID(nil), d.tenants...)
}
