package orgcore

// Logger defines the interface for structured logging used throughout the
// core. All operations (registration, scope decisions, module loading and
// initialization) log through this interface, so the host application
// controls how core logs appear.
//
// Arguments are variadic key-value pairs, compatible with slog, zap's
// sugared logger, logrus and similar libraries:
//
//	logger.Info("Modules loaded", "tenant", tenantID, "count", 3)
type Logger interface {
	// Info logs normal operational events such as module loading.
	Info(msg string, args ...any)

	// Error logs failures that do not abort the activation pass but should
	// be surfaced, such as a module constructor returning an error.
	Error(msg string, args ...any)

	// Warn logs unusual conditions that do not prevent normal operation.
	Warn(msg string, args ...any)

	// Debug logs detailed diagnostic information such as individual scope
	// decisions, typically disabled in production.
	Debug(msg string, args ...any)
}
