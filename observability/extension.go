// Package observability provides a metrics extension for RentHouse that
// records lifecycle event counts through a pluggable MetricFactory.
package observability

import (
	"context"

	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/booking"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/escrow"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                = (*MetricsExtension)(nil)
	_ plugin.OnInit                = (*MetricsExtension)(nil)
	_ plugin.OnPropertyListed      = (*MetricsExtension)(nil)
	_ plugin.OnPropertyDeactivated = (*MetricsExtension)(nil)
	_ plugin.OnBookingCreated      = (*MetricsExtension)(nil)
	_ plugin.OnBookingRejected     = (*MetricsExtension)(nil)
	_ plugin.OnWithdrawalCompleted = (*MetricsExtension)(nil)
	_ plugin.OnTransferFailed      = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a RentHouse plugin to automatically track ledger metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Property metrics
	PropertiesListed      Counter
	PropertiesDeactivated Counter

	// Booking metrics
	BookingsCreated  Counter
	BookingsRejected Counter
	BookingNights    Histogram
	BookingAmount    Histogram

	// Escrow metrics
	WithdrawalsCompleted Counter
	WithdrawalAmount     Histogram
	WithdrawalBatchSize  Histogram
	TransfersFailed      Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Property metrics
		PropertiesListed:      factory.Counter("renthouse.property.listed"),
		PropertiesDeactivated: factory.Counter("renthouse.property.deactivated"),

		// Booking metrics
		BookingsCreated:  factory.Counter("renthouse.booking.created"),
		BookingsRejected: factory.Counter("renthouse.booking.rejected"),
		BookingNights:    factory.Histogram("renthouse.booking.nights"),
		BookingAmount:    factory.Histogram("renthouse.booking.amount"),

		// Escrow metrics
		WithdrawalsCompleted: factory.Counter("renthouse.withdrawal.completed"),
		WithdrawalAmount:     factory.Histogram("renthouse.withdrawal.amount"),
		WithdrawalBatchSize:  factory.Histogram("renthouse.withdrawal.batch.size"),
		TransfersFailed:      factory.Counter("renthouse.transfer.failed"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Property lifecycle hooks
// ──────────────────────────────────────────────────

// OnPropertyListed implements plugin.OnPropertyListed.
func (m *MetricsExtension) OnPropertyListed(_ context.Context, _ interface{}) error {
	m.PropertiesListed.Inc()
	return nil
}

// OnPropertyDeactivated implements plugin.OnPropertyDeactivated.
func (m *MetricsExtension) OnPropertyDeactivated(_ context.Context, _ int64) error {
	m.PropertiesDeactivated.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Booking lifecycle hooks
// ──────────────────────────────────────────────────

// OnBookingCreated implements plugin.OnBookingCreated.
func (m *MetricsExtension) OnBookingCreated(_ context.Context, bkg interface{}) error {
	m.BookingsCreated.Inc()
	if b, ok := bkg.(*booking.Booking); ok {
		m.BookingNights.Observe(float64(b.Nights()))
		m.BookingAmount.Observe(float64(b.AmountPaid.Amount))
	}
	return nil
}

// OnBookingRejected implements plugin.OnBookingRejected.
func (m *MetricsExtension) OnBookingRejected(_ context.Context, _ int64, _ error) error {
	m.BookingsRejected.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Escrow lifecycle hooks
// ──────────────────────────────────────────────────

// OnWithdrawalCompleted implements plugin.OnWithdrawalCompleted.
func (m *MetricsExtension) OnWithdrawalCompleted(_ context.Context, receipt interface{}) error {
	m.WithdrawalsCompleted.Inc()
	if r, ok := receipt.(*escrow.Receipt); ok {
		m.WithdrawalAmount.Observe(float64(r.Amount.Amount))
		m.WithdrawalBatchSize.Observe(float64(len(r.BookingIDs)))
	}
	return nil
}

// OnTransferFailed implements plugin.OnTransferFailed.
func (m *MetricsExtension) OnTransferFailed(_ context.Context, _ int64, _ string, _ error) error {
	m.TransfersFailed.Inc()
	return nil
}
