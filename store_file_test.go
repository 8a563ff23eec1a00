package orgcore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileDocumentStoreRejectsUnknownFormat(t *testing.T) {
	t.Parallel()
	_, err := NewFileDocumentStore(filepath.Join(t.TempDir(), "settings.ini"), &testLogger{})
	assert.ErrorIs(t, err, ErrUnsupportedSettingsFormat)
}

func TestFileDocumentStoreMissingFileIsEmptyDocument(t *testing.T) {
	t.Parallel()
	store, err := NewFileDocumentStore(filepath.Join(t.TempDir(), "settings.yaml"), &testLogger{})
	require.NoError(t, err)

	doc, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, doc.Modules)
}

func TestFileDocumentStoreRoundTrip(t *testing.T) {
	t.Parallel()
	for _, ext := range []string{"yaml", "yml", "toml"} {
		ext := ext
		t.Run(ext, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "settings."+ext)
			store, err := NewFileDocumentStore(path, &testLogger{})
			require.NoError(t, err)

			in := SettingsDocument{
				Modules: map[string]ModuleScopeSetting{
					"hotels":   {Scope: ScopeAllTenants},
					"bookings": {Scope: ScopeSelectedTenants, SelectedTenants: []TenantID{"7", "12"}},
				},
				LastUpdated: time.Now().UTC().Truncate(time.Second),
				Version:     SettingsDocumentVersion,
			}
			require.NoError(t, store.Store(in))

			out, err := store.Load()
			require.NoError(t, err)
			assert.Equal(t, ScopeAllTenants, out.Modules["hotels"].Scope)
			assert.Equal(t, []TenantID{"7", "12"}, out.Modules["bookings"].SelectedTenants)
			assert.Equal(t, SettingsDocumentVersion, out.Version)
			assert.True(t, out.LastUpdated.Equal(in.LastUpdated))
		})
	}
}

func TestFileDocumentStoreNumericTenantIDsYAML(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	raw := `
modules:
  bookings:
    scope: selected_tenants
    selected_tenants: [7, 9]
version: "1"
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	store, err := NewFileDocumentStore(path, &testLogger{})
	require.NoError(t, err)

	doc, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []TenantID{"7", "9"}, doc.Modules["bookings"].SelectedTenants)
}

func TestFileDocumentStoreNumericTenantIDsTOML(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "settings.toml")
	raw := `
version = "1"

[modules.bookings]
scope = "selected_tenants"
selected_tenants = [7, 9]
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	store, err := NewFileDocumentStore(path, &testLogger{})
	require.NoError(t, err)

	doc, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []TenantID{"7", "9"}, doc.Modules["bookings"].SelectedTenants)
}

func TestFileDocumentStoreWithSettingsStore(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	store, err := NewFileDocumentStore(path, &testLogger{})
	require.NoError(t, err)

	settings := NewSettingsStore(store, &testLogger{})
	require.NoError(t, settings.UpdateModuleSettings("schools", ModuleScopeSetting{
		Scope:           ScopeSelectedTenants,
		SelectedTenants: []TenantID{"3"},
		ModuleSettings:  map[string]any{"term": "autumn"},
	}))

	out := settings.ModuleSettings("schools")
	assert.Equal(t, ScopeSelectedTenants, out.Scope)
	assert.Equal(t, []TenantID{"3"}, out.SelectedTenants)
	assert.Equal(t, "autumn", out.ModuleSettings["term"])
}

func TestFileDocumentStoreWatch(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	store, err := NewFileDocumentStore(path, &testLogger{})
	require.NoError(t, err)
	require.NoError(t, store.Store(SettingsDocument{Version: SettingsDocumentVersion}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan SettingsDocument, 4)
	require.NoError(t, store.Watch(ctx, func(doc SettingsDocument) {
		changes <- doc
	}))

	// A second watcher on the same store is refused.
	assert.ErrorIs(t, store.Watch(ctx, func(SettingsDocument) {}), ErrWatcherAlreadyStarted)

	// Simulate an external admin edit.
	require.NoError(t, store.Store(SettingsDocument{
		Modules: map[string]ModuleScopeSetting{"hotels": {Scope: ScopeAllTenants}},
		Version: SettingsDocumentVersion,
	}))

	select {
	case doc := <-changes:
		assert.Equal(t, ScopeAllTenants, doc.Modules["hotels"].Scope)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for settings change notification")
	}
}
