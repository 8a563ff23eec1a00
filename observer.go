// Package orgcore provides Observer pattern interfaces for the activation
// lifecycle. Events use the CloudEvents specification for a standardized
// format and interoperability with external systems.
package orgcore

import (
	"context"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// Observer is implemented by collaborators that want to be notified of
// activation lifecycle events, such as an admin surface refreshing its view
// of live modules.
type Observer interface {
	// OnEvent is called for each event the observer subscribed to.
	// Observers should return quickly; the core logs and discards errors.
	OnEvent(ctx context.Context, event cloudevents.Event) error

	// ObserverID returns a unique identifier for this observer, used for
	// registration tracking and debugging.
	ObserverID() string
}

// Subject is implemented by event emitters. The ActivationManager is the
// package's Subject: it emits EventTypeModulesLoaded and
// EventTypeModulesInitialized as its state machine advances.
type Subject interface {
	// RegisterObserver adds an observer, optionally filtered to the given
	// event types. An empty filter receives all events.
	RegisterObserver(observer Observer, eventTypes ...string) error

	// UnregisterObserver removes an observer. Idempotent.
	UnregisterObserver(observer Observer) error

	// NotifyObservers delivers an event to all interested observers.
	// Observer errors and panics are contained and logged; they never
	// propagate to the emitter.
	NotifyObservers(ctx context.Context, event cloudevents.Event) error

	// GetObservers returns information about registered observers.
	GetObservers() []ObserverInfo
}

// ObserverInfo describes a registered observer for debugging and
// monitoring.
type ObserverInfo struct {
	// ID is the unique identifier of the observer
	ID string `json:"id"`

	// EventTypes are the event types this observer is subscribed to.
	// Empty slice means all events.
	EventTypes []string `json:"eventTypes"`

	// RegisteredAt indicates when the observer was registered
	RegisteredAt time.Time `json:"registeredAt"`
}

// Event types emitted by the activation lifecycle, in reverse domain
// notation per the CloudEvents specification.
const (
	// EventTypeModulesLoaded fires after the load pass completes. The event
	// data carries the loaded module ids in load order.
	EventTypeModulesLoaded = "com.orgcore.modules.loaded"

	// EventTypeModulesInitialized fires after the initialization pass
	// completes, with the same module mapping.
	EventTypeModulesInitialized = "com.orgcore.modules.initialized"
)

// FunctionalObserver adapts a plain function into an Observer. Useful for
// quick subscriptions without defining a full type.
type FunctionalObserver struct {
	id      string
	handler func(ctx context.Context, event cloudevents.Event) error
}

// NewFunctionalObserver creates an observer that delegates to handler.
func NewFunctionalObserver(id string, handler func(ctx context.Context, event cloudevents.Event) error) Observer {
	return &FunctionalObserver{
		id:      id,
		handler: handler,
	}
}

// OnEvent implements Observer by calling the handler function.
func (f *FunctionalObserver) OnEvent(ctx context.Context, event cloudevents.Event) error {
	return f.handler(ctx, event)
}

// ObserverID implements Observer by returning the observer id.
func (f *FunctionalObserver) ObserverID() string {
	return f.id
}
