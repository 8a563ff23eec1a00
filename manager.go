package orgcore

import (
	"context"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// ActivationState is the lifecycle phase of an ActivationManager. The
// machine only moves forward: Unstarted, Discovered, Loaded, Initialized.
// There is no unloading and no re-entering earlier states within one
// process.
type ActivationState int

const (
	// StateUnstarted means no activation pass has run. A deployment that is
	// not multi-tenant stays here permanently.
	StateUnstarted ActivationState = iota

	// StateDiscovered means the enabled module set has been computed for the
	// current tenant but handlers are not yet constructed.
	StateDiscovered

	// StateLoaded means every enabled module's handler that could be
	// constructed is held as a live instance.
	StateLoaded

	// StateInitialized is the terminal state: loaded modules have had their
	// initialization entry points invoked.
	StateInitialized
)

// String returns the state's name.
func (s ActivationState) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateDiscovered:
		return "discovered"
	case StateLoaded:
		return "loaded"
	case StateInitialized:
		return "initialized"
	default:
		return "unknown"
	}
}

// observerRegistration holds information about a registered observer
type observerRegistration struct {
	observer     Observer
	eventTypes   map[string]bool
	registeredAt time.Time
}

// ActivationManager orchestrates which modules come alive for the tenant
// serving the current process. It runs two ordered passes: LoadModules
// constructs handlers for every enabled, dependency-satisfied module in
// catalog order, then InitModules invokes each loaded module's
// initialization entry point in the same order.
//
// Loaded instances belong to this manager for the duration of the serving
// process; they are not shared across tenants or processes.
//
// The manager implements Subject and emits EventTypeModulesLoaded and
// EventTypeModulesInitialized as its state advances. Event data carries the
// tenant and the loaded module ids; observers that need the live instances
// fetch them through LoadedModules or LoadedModule. Emission is
// fire-and-forget: observer errors are logged, never returned.
type ActivationManager struct {
	registry  *Registry
	validator *ScopeValidator
	tenants   TenantDirectory
	logger    Logger

	mu        sync.RWMutex
	state     ActivationState
	tenant    TenantID
	loadOrder []string
	loaded    map[string]Module

	observerMu sync.RWMutex
	observers  map[string]*observerRegistration
}

// NewActivationManager creates a manager over the given catalog, validator
// and tenant directory.
func NewActivationManager(registry *Registry, validator *ScopeValidator, tenants TenantDirectory, logger Logger) *ActivationManager {
	return &ActivationManager{
		registry:  registry,
		validator: validator,
		tenants:   tenants,
		logger:    logger,
		loaded:    make(map[string]Module),
		observers: make(map[string]*observerRegistration),
	}
}

// State returns the manager's current lifecycle state.
func (m *ActivationManager) State() ActivationState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// CurrentTenant returns the tenant the manager resolved during LoadModules,
// empty before any load pass.
func (m *ActivationManager) CurrentTenant() TenantID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tenant
}

// resolveTenant prefers a tenant carried by the context over the directory's
// current tenant, so hosts that thread TenantContext through the request get
// consistent resolution.
func (m *ActivationManager) resolveTenant(ctx context.Context) TenantID {
	if tenantID, ok := TenantIDFromContext(ctx); ok {
		return tenantID
	}
	return m.tenants.CurrentTenant()
}

// LoadModules computes the enabled module set for the current tenant and
// constructs a handler for each member, in catalog registration order.
//
// On a deployment that is not multi-tenant this is deliberately a no-op and
// the manager stays Unstarted; per-tenant activation has no meaning there.
//
// A module that cannot be constructed (missing descriptor, nil constructor,
// constructor error, or a handler whose identity contradicts its
// descriptor) is logged and skipped; it does not abort loading the rest.
//
// Given an unchanged catalog and settings, repeated calls yield an
// identical loaded set. Once the manager is Initialized further calls do
// nothing.
func (m *ActivationManager) LoadModules(ctx context.Context) error {
	if !m.tenants.IsMultiTenant() {
		m.logger.Debug("Deployment is not multi-tenant, skipping module activation")
		return nil
	}

	m.mu.Lock()
	if m.state == StateInitialized {
		m.mu.Unlock()
		m.logger.Debug("Modules already initialized, ignoring load request")
		return nil
	}
	tenant := m.resolveTenant(ctx)
	m.mu.Unlock()

	enabled := make([]string, 0, m.registry.Len())
	for _, id := range m.registry.ModuleIDs() {
		if !m.validator.ModuleEnabledForTenant(id, tenant) {
			m.logger.Debug("Module not enabled for tenant", "module", id, "tenant", tenant)
			continue
		}
		if !m.validator.ValidateDependencies(id, tenant) {
			m.logger.Debug("Module dependencies not satisfied for tenant", "module", id, "tenant", tenant)
			continue
		}
		enabled = append(enabled, id)
	}

	m.mu.Lock()
	m.tenant = tenant
	m.state = StateDiscovered
	m.mu.Unlock()

	loaded := make(map[string]Module, len(enabled))
	loadOrder := make([]string, 0, len(enabled))
	for _, id := range enabled {
		mod, err := m.loadModule(id)
		if err != nil {
			m.logger.Warn("Skipping module that failed to load", "module", id, "error", err)
			continue
		}
		loaded[id] = mod
		loadOrder = append(loadOrder, id)
	}

	m.mu.Lock()
	m.loaded = loaded
	m.loadOrder = loadOrder
	m.state = StateLoaded
	m.mu.Unlock()

	m.logger.Info("Modules loaded", "tenant", tenant, "count", len(loadOrder), "modules", loadOrder)
	m.emitLifecycleEvent(ctx, EventTypeModulesLoaded, tenant, loadOrder)
	return nil
}

// loadModule resolves one module's descriptor and constructs its handler.
func (m *ActivationManager) loadModule(id string) (Module, error) {
	d, ok := m.registry.Get(id)
	if !ok {
		return nil, ErrModuleNotFound
	}
	if d.Constructor == nil {
		return nil, ErrConstructorMissing
	}

	mod, err := d.Constructor(m.logger)
	if err != nil {
		return nil, err
	}
	if mod == nil {
		return nil, ErrConstructorNilModule
	}
	if mod.ModuleID() != id {
		return nil, ErrModuleIdentityMismatch
	}
	return mod, nil
}

// InitModules invokes the initialization entry point of every loaded module
// in load order. Modules that do not implement Initializable are passive
// and skipped. An initialization error is logged and isolated to that
// module; the pass continues.
//
// Requires a prior successful LoadModules; returns ErrModulesNotLoaded
// otherwise. Each module initializes at most once per serving process: once
// the manager is Initialized further calls do nothing.
func (m *ActivationManager) InitModules(ctx context.Context) error {
	m.mu.Lock()
	if m.state < StateLoaded {
		m.mu.Unlock()
		return ErrModulesNotLoaded
	}
	if m.state == StateInitialized {
		m.mu.Unlock()
		m.logger.Debug("Modules already initialized, ignoring init request")
		return nil
	}
	tenant := m.tenant
	order := append([]string(nil), m.loadOrder...)
	loaded := m.loaded
	m.mu.Unlock()

	for _, id := range order {
		initable, ok := loaded[id].(Initializable)
		if !ok {
			m.logger.Debug("Module is passive, skipping initialization", "module", id)
			continue
		}
		if err := initable.Init(ctx); err != nil {
			m.logger.Error("Module initialization failed", "module", id, "error", err)
			continue
		}
		m.logger.Debug("Initialized module", "module", id)
	}

	m.mu.Lock()
	m.state = StateInitialized
	m.mu.Unlock()

	m.logger.Info("Modules initialized", "tenant", tenant, "count", len(order))
	m.emitLifecycleEvent(ctx, EventTypeModulesInitialized, tenant, order)
	return nil
}

// LoadedModules returns the live module instances keyed by id. The returned
// map is a copy; mutating it does not affect the manager.
func (m *ActivationManager) LoadedModules() map[string]Module {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]Module, len(m.loaded))
	for id, mod := range m.loaded {
		out[id] = mod
	}
	return out
}

// LoadedModuleIDs returns the loaded module ids in load order.
func (m *ActivationManager) LoadedModuleIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.loadOrder...)
}

// LoadedModule returns the live instance for one module id, and whether the
// module is loaded. Admin surfaces use this to check whether a capability
// is live before rendering against it.
func (m *ActivationManager) LoadedModule(id string) (Module, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mod, ok := m.loaded[id]
	return mod, ok
}

// RegisterObserver adds an observer for lifecycle events, optionally
// filtered by event type. An empty filter receives all events.
func (m *ActivationManager) RegisterObserver(observer Observer, eventTypes ...string) error {
	m.observerMu.Lock()
	defer m.observerMu.Unlock()

	eventTypeMap := make(map[string]bool)
	for _, eventType := range eventTypes {
		eventTypeMap[eventType] = true
	}

	m.observers[observer.ObserverID()] = &observerRegistration{
		observer:     observer,
		eventTypes:   eventTypeMap,
		registeredAt: time.Now(),
	}

	m.logger.Debug("Observer registered", "observerID", observer.ObserverID(), "eventTypes", eventTypes)
	return nil
}

// UnregisterObserver removes an observer. Idempotent: unknown observers are
// ignored.
func (m *ActivationManager) UnregisterObserver(observer Observer) error {
	m.observerMu.Lock()
	defer m.observerMu.Unlock()

	if _, exists := m.observers[observer.ObserverID()]; exists {
		delete(m.observers, observer.ObserverID())
		m.logger.Debug("Observer unregistered", "observerID", observer.ObserverID())
	}
	return nil
}

// NotifyObservers delivers an event to every interested observer, in place.
// Delivery is synchronous so the activation sequence stays request-scoped
// and deterministic; observer errors and panics are contained and logged.
func (m *ActivationManager) NotifyObservers(ctx context.Context, event cloudevents.Event) error {
	if event.Time().IsZero() {
		event.SetTime(time.Now())
	}
	if err := ValidateCloudEvent(event); err != nil {
		m.logger.Error("Invalid CloudEvent", "eventType", event.Type(), "error", err)
		return err
	}

	m.observerMu.RLock()
	registrations := make([]*observerRegistration, 0, len(m.observers))
	for _, registration := range m.observers {
		registrations = append(registrations, registration)
	}
	m.observerMu.RUnlock()

	for _, registration := range registrations {
		if len(registration.eventTypes) > 0 && !registration.eventTypes[event.Type()] {
			continue
		}
		m.notifyObserver(ctx, registration.observer, event)
	}
	return nil
}

// notifyObserver delivers one event to one observer, containing panics.
func (m *ActivationManager) notifyObserver(ctx context.Context, observer Observer, event cloudevents.Event) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Observer panicked", "observerID", observer.ObserverID(), "event", event.Type(), "panic", r)
		}
	}()

	if err := observer.OnEvent(ctx, event); err != nil {
		m.logger.Error("Observer error", "observerID", observer.ObserverID(), "event", event.Type(), "error", err)
	}
}

// GetObservers returns information about currently registered observers.
func (m *ActivationManager) GetObservers() []ObserverInfo {
	m.observerMu.RLock()
	defer m.observerMu.RUnlock()

	info := make([]ObserverInfo, 0, len(m.observers))
	for _, registration := range m.observers {
		eventTypes := make([]string, 0, len(registration.eventTypes))
		for eventType := range registration.eventTypes {
			eventTypes = append(eventTypes, eventType)
		}
		info = append(info, ObserverInfo{
			ID:           registration.observer.ObserverID(),
			EventTypes:   eventTypes,
			RegisteredAt: registration.registeredAt,
		})
	}
	return info
}

// emitLifecycleEvent builds and delivers a lifecycle CloudEvent carrying the
// tenant and the module ids in load order.
func (m *ActivationManager) emitLifecycleEvent(ctx context.Context, eventType string, tenant TenantID, moduleIDs []string) {
	data := map[string]interface{}{
		"tenant":  string(tenant),
		"modules": moduleIDs,
	}
	event := NewCloudEvent(eventType, "activation-manager", data, nil)
	if err := m.NotifyObservers(ctx, event); err != nil {
		m.logger.Error("Failed to notify observers", "event", eventType, "error", err)
	}
}
