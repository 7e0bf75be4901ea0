// Package audithook bridges RentHouse lifecycle events to an audit trail
// backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit system. Callers inject a RecorderFunc adapter that
// bridges to their backend at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/booking"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/escrow"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/plugin"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/property"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                = (*Extension)(nil)
	_ plugin.OnPropertyListed      = (*Extension)(nil)
	_ plugin.OnPropertyDeactivated = (*Extension)(nil)
	_ plugin.OnBookingCreated      = (*Extension)(nil)
	_ plugin.OnBookingRejected     = (*Extension)(nil)
	_ plugin.OnWithdrawalCompleted = (*Extension)(nil)
	_ plugin.OnTransferFailed      = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges RentHouse lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Property lifecycle hooks
// ──────────────────────────────────────────────────

// OnPropertyListed implements plugin.OnPropertyListed.
func (e *Extension) OnPropertyListed(ctx context.Context, prop interface{}) error {
	p, ok := prop.(*property.Property)
	if !ok {
		return nil
	}
	return e.record(ctx, ActionPropertyListed, SeverityInfo, OutcomeSuccess,
		ResourceProperty, strconv.FormatInt(p.ID, 10), CategoryRegistry, nil,
		"property_id", p.ID,
		"owner", p.Owner,
		"price_per_night", p.PricePerNight.String(),
	)
}

// OnPropertyDeactivated implements plugin.OnPropertyDeactivated.
func (e *Extension) OnPropertyDeactivated(ctx context.Context, propertyID int64) error {
	return e.record(ctx, ActionPropertyDeactivated, SeverityInfo, OutcomeSuccess,
		ResourceProperty, strconv.FormatInt(propertyID, 10), CategoryRegistry, nil,
		"property_id", propertyID,
	)
}

// ──────────────────────────────────────────────────
// Booking lifecycle hooks
// ──────────────────────────────────────────────────

// OnBookingCreated implements plugin.OnBookingCreated.
func (e *Extension) OnBookingCreated(ctx context.Context, bkg interface{}) error {
	b, ok := bkg.(*booking.Booking)
	if !ok {
		return nil
	}
	return e.record(ctx, ActionBookingCreated, SeverityInfo, OutcomeSuccess,
		ResourceBooking, strconv.FormatInt(b.ID, 10), CategoryBooking, nil,
		"booking_id", b.ID,
		"property_id", b.PropertyID,
		"renter", b.Renter,
		"checkin", b.CheckinDate,
		"checkout", b.CheckoutDate,
		"amount_paid", b.AmountPaid.String(),
	)
}

// OnBookingRejected implements plugin.OnBookingRejected.
func (e *Extension) OnBookingRejected(ctx context.Context, propertyID int64, reason error) error {
	return e.record(ctx, ActionBookingRejected, SeverityWarning, OutcomeFailure,
		ResourceBooking, "", CategoryBooking, reason,
		"property_id", propertyID,
	)
}

// ──────────────────────────────────────────────────
// Escrow lifecycle hooks
// ──────────────────────────────────────────────────

// OnWithdrawalCompleted implements plugin.OnWithdrawalCompleted.
func (e *Extension) OnWithdrawalCompleted(ctx context.Context, receipt interface{}) error {
	r, ok := receipt.(*escrow.Receipt)
	if !ok {
		return nil
	}
	return e.record(ctx, ActionWithdrawalCompleted, SeverityInfo, OutcomeSuccess,
		ResourceWithdrawal, r.ID.String(), CategoryEscrow, nil,
		"receipt_id", r.ID.String(),
		"property_id", r.PropertyID,
		"recipient", r.Recipient,
		"amount", r.Amount.String(),
		"bookings_settled", len(r.BookingIDs),
	)
}

// OnTransferFailed implements plugin.OnTransferFailed.
func (e *Extension) OnTransferFailed(ctx context.Context, propertyID int64, recipient string, err error) error {
	return e.record(ctx, ActionTransferFailed, SeverityCritical, OutcomeFailure,
		ResourceWithdrawal, strconv.FormatInt(propertyID, 10), CategoryEscrow, err,
		"property_id", propertyID,
		"recipient", recipient,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
