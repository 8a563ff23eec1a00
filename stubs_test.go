package orgcore

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// testLogger captures log output for assertions.
type testLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *testLogger) log(level, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, fmt.Sprintf("%s %s %v", level, msg, args))
}

func (l *testLogger) Info(msg string, args ...any)  { l.log("INFO", msg, args...) }
func (l *testLogger) Error(msg string, args ...any) { l.log("ERROR", msg, args...) }
func (l *testLogger) Warn(msg string, args ...any)  { l.log("WARN", msg, args...) }
func (l *testLogger) Debug(msg string, args ...any) { l.log("DEBUG", msg, args...) }

func (l *testLogger) contains(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

// stubModule is a passive module handler.
type stubModule struct {
	id string
}

func (m *stubModule) ModuleID() string       { return m.id }
func (m *stubModule) Config() map[string]any { return map[string]any{"id": m.id} }

// initStubModule records initialization into a shared sequence.
type initStubModule struct {
	stubModule
	seq     *initSequence
	initErr error
}

func (m *initStubModule) Init(ctx context.Context) error {
	if m.initErr != nil {
		return m.initErr
	}
	m.seq.record(m.id)
	return nil
}

type initSequence struct {
	mu  sync.Mutex
	ids []string
}

func (s *initSequence) record(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = append(s.ids, id)
}

func (s *initSequence) order() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ids...)
}

func passiveConstructor(id string) ModuleConstructor {
	return func(Logger) (Module, error) {
		return &stubModule{id: id}, nil
	}
}

func initConstructor(id string, seq *initSequence) ModuleConstructor {
	return func(Logger) (Module, error) {
		return &initStubModule{stubModule: stubModule{id: id}, seq: seq}, nil
	}
}

// failingDocumentStore simulates an unavailable persistence backend.
type failingDocumentStore struct {
	err error
}

func (f *failingDocumentStore) Load() (SettingsDocument, error) {
	return SettingsDocument{}, f.err
}

func (f *failingDocumentStore) Store(SettingsDocument) error {
	return f.err
}

// coreFixture wires the four core components over a memory store.
type coreFixture struct {
	logger    *testLogger
	registry  *Registry
	store     *MemoryDocumentStore
	settings  *SettingsStore
	directory *StaticTenantDirectory
	validator *ScopeValidator
	manager   *ActivationManager
}

func newCoreFixture(current TenantID, tenants ...TenantID) *coreFixture {
	logger := &testLogger{}
	registry := NewRegistry(logger)
	store := NewMemoryDocumentStore()
	settings := NewSettingsStore(store, logger)
	directory := NewStaticTenantDirectory(current, tenants...)
	validator := NewScopeValidator(registry, settings, directory, logger)
	manager := NewActivationManager(registry, validator, directory, logger)
	return &coreFixture{
		logger:    logger,
		registry:  registry,
		store:     store,
		settings:  settings,
		directory: directory,
		validator: validator,
		manager:   manager,
	}
}

func (f *coreFixture) enableAll(moduleID string) {
	if err := f.settings.UpdateModuleSettings(moduleID, ModuleScopeSetting{Scope: ScopeAllTenants}); err != nil {
		panic(err)
	}
}

func (f *coreFixture) enableSelected(moduleID string, tenants ...TenantID) {
	setting := ModuleScopeSetting{Scope: ScopeSelectedTenants, SelectedTenants: tenants}
	if err := f.settings.UpdateModuleSettings(moduleID, setting); err != nil {
		panic(err)
	}
}
