package orgcore

import (
	"errors"
)

// Core errors
var (
	// Catalog and loading errors
	ErrModuleNotFound         = errors.New("module not found in catalog")
	ErrConstructorMissing     = errors.New("module descriptor has no constructor")
	ErrConstructorNilModule   = errors.New("module constructor returned nil module")
	ErrModuleIdentityMismatch = errors.New("module identity does not match descriptor")

	// Activation manager errors
	ErrModulesNotLoaded = errors.New("modules have not been loaded")

	// Settings store errors
	ErrSettingsLoad  = errors.New("failed to load settings document")
	ErrSettingsStore = errors.New("failed to store settings document")

	// Document store errors
	ErrUnsupportedSettingsFormat = errors.New("unsupported settings file format")
	ErrWatcherAlreadyStarted     = errors.New("settings watcher already started")

	// Tenant errors
	ErrTenantIDNotScalar = errors.New("tenant id must be a scalar value")
)
