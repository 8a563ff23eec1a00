// Package orgcore implements the module enablement core for a multi-tenant
// host application. Feature modules announce themselves to a Registry during
// bootstrap, a network administrator scopes each module per tenant through the
// SettingsStore, and the ActivationManager decides which modules to construct
// and initialize for the tenant serving the current request.
//
// The package is a library with no network or CLI surface of its own. A host
// wires it together roughly like this:
//
//	registry := orgcore.NewRegistry(logger)
//	registry.Register(orgcore.Descriptor{
//		ID:          "bookings",
//		DisplayName: "Bookings",
//		Constructor: bookings.New,
//	})
//
//	settings := orgcore.NewSettingsStore(store, logger)
//	validator := orgcore.NewScopeValidator(registry, settings, tenants, logger)
//	manager := orgcore.NewActivationManager(registry, validator, tenants, logger)
//
//	if err := manager.LoadModules(ctx); err != nil {
//		return err
//	}
//	if err := manager.InitModules(ctx); err != nil {
//		return err
//	}
package orgcore

import "context"

// Module is the capability contract implemented by every feature module
// handler. Handlers are constructed by the ActivationManager from the
// constructor registered in the module's Descriptor.
type Module interface {
	// ModuleID returns the unique identifier for this module. It must match
	// the ID under which the module's Descriptor was registered; the
	// ActivationManager refuses to load a handler whose identity contradicts
	// its descriptor.
	//
	// Example: "hotels", "bookings", "rooming-lists"
	ModuleID() string

	// Config returns the module's own configuration. The core treats this as
	// an opaque blob; it exists so host surfaces (admin screens, exports) can
	// inspect a live module without knowing its concrete type.
	Config() map[string]any
}

// Initializable is an optional interface for modules that perform work after
// construction. Modules that do not implement it are loaded as passive
// handlers and skipped during the initialization pass.
type Initializable interface {
	Module

	// Init is invoked once per serving process, after every enabled module
	// has been loaded. Initialization order follows load order, so a module
	// may rely on side effects of modules registered before it.
	Init(ctx context.Context) error
}

// ModuleConstructor creates a module handler instance. Constructors are
// registered alongside the module's Descriptor, replacing naming-convention
// lookups with an explicit id-to-factory mapping.
//
// A constructor should be cheap; expensive work belongs in Init. Returning an
// error marks the module as failed-to-load, which is isolated to that module
// and does not abort the activation pass.
type ModuleConstructor func(logger Logger) (Module, error)

// Descriptor is the static registration record for a module. Descriptors are
// created once during bootstrap by the module's own registration call and are
// immutable for the process lifetime.
type Descriptor struct {
	// ID is the unique, version-stable identifier for the module.
	ID string

	// DisplayName and Description are presentation metadata for admin
	// surfaces; they play no role in activation decisions.
	DisplayName string
	Description string

	// Version is informational metadata.
	Version string

	// Dependencies lists the ids of modules that must be enabled for the
	// same tenant before this module may activate. Only the immediate set is
	// checked; see ScopeValidator.ValidateDependencies.
	Dependencies []string

	// Constructor creates the module's handler. A descriptor without a
	// constructor can be catalogued and scoped, but never loads.
	Constructor ModuleConstructor
}
