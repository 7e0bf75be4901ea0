package mongo

import (
	"time"

	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/booking"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/escrow"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/id"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/property"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/types"
)

// ==================== Property models ====================

type propertyModel struct {
	ID            int64     `bson:"_id"`
	Owner         string    `bson:"owner"`
	Name          string    `bson:"name"`
	Description   string    `bson:"description"`
	PriceAmount   int64     `bson:"price_amount"`
	PriceCurrency string    `bson:"price_currency"`
	Active        bool      `bson:"active"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func toPropertyModel(p *property.Property) *propertyModel {
	return &propertyModel{
		ID:            p.ID,
		Owner:         p.Owner,
		Name:          p.Name,
		Description:   p.Description,
		PriceAmount:   p.PricePerNight.Amount,
		PriceCurrency: p.PricePerNight.Currency,
		Active:        p.Active,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func fromPropertyModel(m *propertyModel) *property.Property {
	return &property.Property{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:            m.ID,
		Owner:         m.Owner,
		Name:          m.Name,
		Description:   m.Description,
		PricePerNight: types.Money{Amount: m.PriceAmount, Currency: m.PriceCurrency},
		Active:        m.Active,
	}
}

// ==================== Booking models ====================

type bookingModel struct {
	ID             int64     `bson:"_id"`
	PropertyID     int64     `bson:"property_id"`
	Renter         string    `bson:"renter"`
	CheckinDate    int64     `bson:"checkin_date"`
	CheckoutDate   int64     `bson:"checkout_date"`
	AmountPaid     int64     `bson:"amount_paid"`
	AmountCurrency string    `bson:"amount_currency"`
	Settled        bool      `bson:"settled"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func toBookingModel(b *booking.Booking) *bookingModel {
	return &bookingModel{
		ID:             b.ID,
		PropertyID:     b.PropertyID,
		Renter:         b.Renter,
		CheckinDate:    b.CheckinDate,
		CheckoutDate:   b.CheckoutDate,
		AmountPaid:     b.AmountPaid.Amount,
		AmountCurrency: b.AmountPaid.Currency,
		Settled:        b.Settled,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

func fromBookingModel(m *bookingModel) *booking.Booking {
	return &booking.Booking{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:           m.ID,
		PropertyID:   m.PropertyID,
		Renter:       m.Renter,
		CheckinDate:  m.CheckinDate,
		CheckoutDate: m.CheckoutDate,
		AmountPaid:   types.Money{Amount: m.AmountPaid, Currency: m.AmountCurrency},
		Settled:      m.Settled,
	}
}

// ==================== Receipt models ====================

type receiptModel struct {
	ID             string    `bson:"_id"`
	PropertyID     int64     `bson:"property_id"`
	Recipient      string    `bson:"recipient"`
	Amount         int64     `bson:"amount"`
	AmountCurrency string    `bson:"amount_currency"`
	BookingIDs     []int64   `bson:"booking_ids"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func toReceiptModel(r *escrow.Receipt) *receiptModel {
	return &receiptModel{
		ID:             r.ID.String(),
		PropertyID:     r.PropertyID,
		Recipient:      r.Recipient,
		Amount:         r.Amount.Amount,
		AmountCurrency: r.Amount.Currency,
		BookingIDs:     r.BookingIDs,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func fromReceiptModel(m *receiptModel) (*escrow.Receipt, error) {
	rid, err := id.ParseWithPrefix(m.ID, id.PrefixReceipt)
	if err != nil {
		return nil, err
	}
	return &escrow.Receipt{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:         rid,
		PropertyID: m.PropertyID,
		Recipient:  m.Recipient,
		Amount:     types.Money{Amount: m.Amount, Currency: m.AmountCurrency},
		BookingIDs: m.BookingIDs,
	}, nil
}
