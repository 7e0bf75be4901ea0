package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// hookTimeout bounds how long one plugin callback may run; a stuck plugin
// must not wedge a ledger operation.
const hookTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// Interfaces are discovered once at registration time so that emitting an
// event touches only the plugins that implement the matching hook.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit                []OnInit
	onShutdown            []OnShutdown
	onPropertyListed      []OnPropertyListed
	onPropertyDeactivated []OnPropertyDeactivated
	onBookingCreated      []OnBookingCreated
	onBookingRejected     []OnBookingRejected
	onWithdrawalCompleted []OnWithdrawalCompleted
	onTransferFailed      []OnTransferFailed
	payoutProviders       []PayoutProviderPlugin
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnPropertyListed); ok {
		r.onPropertyListed = append(r.onPropertyListed, v)
	}
	if v, ok := p.(OnPropertyDeactivated); ok {
		r.onPropertyDeactivated = append(r.onPropertyDeactivated, v)
	}
	if v, ok := p.(OnBookingCreated); ok {
		r.onBookingCreated = append(r.onBookingCreated, v)
	}
	if v, ok := p.(OnBookingRejected); ok {
		r.onBookingRejected = append(r.onBookingRejected, v)
	}
	if v, ok := p.(OnWithdrawalCompleted); ok {
		r.onWithdrawalCompleted = append(r.onWithdrawalCompleted, v)
	}
	if v, ok := p.(OnTransferFailed); ok {
		r.onTransferFailed = append(r.onTransferFailed, v)
	}
	if v, ok := p.(PayoutProviderPlugin); ok {
		r.payoutProviders = append(r.payoutProviders, v)
	}

	r.logger.Info("plugin registered", "name", p.Name())

	return nil
}

// Get returns a plugin by name, or nil if none is registered.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// PayoutProviders returns all registered payout provider plugins.
func (r *Registry) PayoutProviders() []PayoutProviderPlugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]PayoutProviderPlugin, len(r.payoutProviders))
	copy(result, r.payoutProviders)
	return result
}

// callWithTimeout runs one plugin callback with a deadline. Hook failures
// are reported to the caller for logging but never fail the operation.
func (r *Registry) callWithTimeout(ctx context.Context, name string, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, hookTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("plugin: %s timed out: %w", name, ctx.Err())
	}
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPropertyListed emits a property listed event.
func (r *Registry) EmitPropertyListed(ctx context.Context, prop interface{}) {
	r.mu.RLock()
	plugins := r.onPropertyListed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPropertyListed(ctx, prop)
		}); err != nil {
			r.logger.Warn("plugin OnPropertyListed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPropertyDeactivated emits a property deactivated event.
func (r *Registry) EmitPropertyDeactivated(ctx context.Context, propertyID int64) {
	r.mu.RLock()
	plugins := r.onPropertyDeactivated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPropertyDeactivated(ctx, propertyID)
		}); err != nil {
			r.logger.Warn("plugin OnPropertyDeactivated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitBookingCreated emits a booking created event.
func (r *Registry) EmitBookingCreated(ctx context.Context, bkg interface{}) {
	r.mu.RLock()
	plugins := r.onBookingCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBookingCreated(ctx, bkg)
		}); err != nil {
			r.logger.Warn("plugin OnBookingCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitBookingRejected emits a booking rejected event.
func (r *Registry) EmitBookingRejected(ctx context.Context, propertyID int64, reason error) {
	r.mu.RLock()
	plugins := r.onBookingRejected
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBookingRejected(ctx, propertyID, reason)
		}); err != nil {
			r.logger.Warn("plugin OnBookingRejected failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitWithdrawalCompleted emits a withdrawal completed event.
func (r *Registry) EmitWithdrawalCompleted(ctx context.Context, receipt interface{}) {
	r.mu.RLock()
	plugins := r.onWithdrawalCompleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnWithdrawalCompleted(ctx, receipt)
		}); err != nil {
			r.logger.Warn("plugin OnWithdrawalCompleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTransferFailed emits a transfer failed event.
func (r *Registry) EmitTransferFailed(ctx context.Context, propertyID int64, recipient string, cause error) {
	r.mu.RLock()
	plugins := r.onTransferFailed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTransferFailed(ctx, propertyID, recipient, cause)
		}); err != nil {
			r.logger.Warn("plugin OnTransferFailed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}
