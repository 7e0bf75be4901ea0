// Package mongo implements store.Store on MongoDB.
//
// Sequential property and booking ids come from a counters collection
// updated with an atomic $inc, so id allocation stays gap-free across
// processes sharing the database.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	renthouse "github.com/IbrahimGhasia/Decentralized-Renting-House-Backend"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/booking"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/escrow"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/property"
	rhstore "github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/store"
)

// Collection name constants.
const (
	colProperties = "renthouse_properties"
	colBookings   = "renthouse_bookings"
	colReceipts   = "renthouse_receipts"
	colCounters   = "renthouse_counters"
)

// Counter document ids.
const (
	counterProperties = "properties"
	counterBookings   = "bookings"
)

// compile-time interface check
var _ rhstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// New connects to MongoDB at uri and uses the named database.
func New(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("renthouse/mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx) //nolint:errcheck // already failing
		return nil, fmt.Errorf("renthouse/mongo: ping: %w", err)
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *mongo.Client, database string) *Store {
	return &Store{client: client, db: client.Database(database)}
}

// Database returns the underlying database handle for direct access.
func (s *Store) Database() *mongo.Database { return s.db }

// Migrate creates indexes for all collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		colProperties: {
			{Keys: bson.D{{Key: "owner", Value: 1}}},
			{Keys: bson.D{{Key: "active", Value: 1}}},
		},
		colBookings: {
			{Keys: bson.D{{Key: "property_id", Value: 1}, {Key: "_id", Value: 1}}},
			{Keys: bson.D{{Key: "property_id", Value: 1}, {Key: "settled", Value: 1}, {Key: "_id", Value: 1}}},
		},
		colReceipts: {
			{Keys: bson.D{{Key: "property_id", Value: 1}, {Key: "created_at", Value: 1}}},
		},
	}

	for col, models := range indexes {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("renthouse/mongo: migrate %s indexes: %v: %w", col, err, renthouse.ErrMigrationFailed)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// nextID atomically increments and returns the named counter, starting
// at 1 for the first allocation.
func (s *Store) nextID(ctx context.Context, counter string) (int64, error) {
	var doc struct {
		Value int64 `bson:"value"`
	}
	err := s.db.Collection(colCounters).FindOneAndUpdate(ctx,
		bson.M{"_id": counter},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("renthouse/mongo: next %s id: %w", counter, err)
	}
	return doc.Value, nil
}

// counterValue reads the named counter without incrementing it.
func (s *Store) counterValue(ctx context.Context, counter string) (int64, error) {
	var doc struct {
		Value int64 `bson:"value"`
	}
	err := s.db.Collection(colCounters).FindOne(ctx, bson.M{"_id": counter}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, err
	}
	return doc.Value, nil
}

// ==================== Property Store ====================

func (s *Store) CreateProperty(ctx context.Context, p *property.Property) (int64, error) {
	propID, err := s.nextID(ctx, counterProperties)
	if err != nil {
		return 0, err
	}

	m := toPropertyModel(p)
	m.ID = propID

	if _, err := s.db.Collection(colProperties).InsertOne(ctx, m); err != nil {
		return 0, fmt.Errorf("renthouse/mongo: create property: %w", err)
	}
	return propID, nil
}

func (s *Store) GetProperty(ctx context.Context, propertyID int64) (*property.Property, error) {
	var m propertyModel
	err := s.db.Collection(colProperties).FindOne(ctx, bson.M{"_id": propertyID}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, renthouse.ErrPropertyNotFound
		}
		return nil, fmt.Errorf("renthouse/mongo: get property: %w", err)
	}
	return fromPropertyModel(&m), nil
}

func (s *Store) ListProperties(ctx context.Context, opts property.ListOpts) ([]*property.Property, error) {
	filter := bson.M{}
	if opts.Owner != "" {
		filter["owner"] = opts.Owner
	}
	if opts.ActiveOnly {
		filter["active"] = true
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if opts.Limit > 0 {
		findOpts = findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts = findOpts.SetSkip(int64(opts.Offset))
	}

	cursor, err := s.db.Collection(colProperties).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("renthouse/mongo: list properties: %w", err)
	}
	defer cursor.Close(ctx)

	result := make([]*property.Property, 0)
	for cursor.Next(ctx) {
		var m propertyModel
		if err := cursor.Decode(&m); err != nil {
			return nil, err
		}
		result = append(result, fromPropertyModel(&m))
	}
	return result, cursor.Err()
}

func (s *Store) DeactivateProperty(ctx context.Context, propertyID int64) error {
	res, err := s.db.Collection(colProperties).UpdateOne(ctx,
		bson.M{"_id": propertyID},
		bson.M{"$set": bson.M{"active": false}, "$currentDate": bson.M{"updated_at": true}},
	)
	if err != nil {
		return fmt.Errorf("renthouse/mongo: deactivate property: %w", err)
	}
	if res.MatchedCount == 0 {
		return renthouse.ErrPropertyNotFound
	}
	return nil
}

func (s *Store) PropertyCount(ctx context.Context) (int64, error) {
	return s.counterValue(ctx, counterProperties)
}

// ==================== Booking Store ====================

func (s *Store) CreateBooking(ctx context.Context, b *booking.Booking) (int64, error) {
	count, err := s.db.Collection(colProperties).CountDocuments(ctx, bson.M{"_id": b.PropertyID})
	if err != nil {
		return 0, fmt.Errorf("renthouse/mongo: create booking: %w", err)
	}
	if count == 0 {
		return 0, renthouse.ErrPropertyNotFound
	}

	bookingID, err := s.nextID(ctx, counterBookings)
	if err != nil {
		return 0, err
	}

	m := toBookingModel(b)
	m.ID = bookingID

	if _, err := s.db.Collection(colBookings).InsertOne(ctx, m); err != nil {
		return 0, fmt.Errorf("renthouse/mongo: create booking: %w", err)
	}
	return bookingID, nil
}

func (s *Store) GetBooking(ctx context.Context, bookingID int64) (*booking.Booking, error) {
	var m bookingModel
	err := s.db.Collection(colBookings).FindOne(ctx, bson.M{"_id": bookingID}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, renthouse.ErrBookingNotFound
		}
		return nil, fmt.Errorf("renthouse/mongo: get booking: %w", err)
	}
	return fromBookingModel(&m), nil
}

func (s *Store) BookingsForProperty(ctx context.Context, propertyID int64) ([]*booking.Booking, error) {
	return s.findBookings(ctx, bson.M{"property_id": propertyID})
}

func (s *Store) UnsettledBookings(ctx context.Context, propertyID int64) ([]*booking.Booking, error) {
	return s.findBookings(ctx, bson.M{"property_id": propertyID, "settled": false})
}

func (s *Store) findBookings(ctx context.Context, filter bson.M) ([]*booking.Booking, error) {
	cursor, err := s.db.Collection(colBookings).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("renthouse/mongo: find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	result := make([]*booking.Booking, 0)
	for cursor.Next(ctx) {
		var m bookingModel
		if err := cursor.Decode(&m); err != nil {
			return nil, err
		}
		result = append(result, fromBookingModel(&m))
	}
	return result, cursor.Err()
}

func (s *Store) MarkSettled(ctx context.Context, bookingIDs []int64) error {
	if len(bookingIDs) == 0 {
		return nil
	}

	res, err := s.db.Collection(colBookings).UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": bookingIDs}},
		bson.M{"$set": bson.M{"settled": true}, "$currentDate": bson.M{"updated_at": true}},
	)
	if err != nil {
		return fmt.Errorf("renthouse/mongo: mark settled: %w", err)
	}
	if res.MatchedCount != int64(len(bookingIDs)) {
		return renthouse.ErrBookingNotFound
	}
	return nil
}

func (s *Store) BookingCount(ctx context.Context) (int64, error) {
	return s.counterValue(ctx, counterBookings)
}

// ==================== Receipt Store ====================

func (s *Store) CreateReceipt(ctx context.Context, r *escrow.Receipt) error {
	if _, err := s.db.Collection(colReceipts).InsertOne(ctx, toReceiptModel(r)); err != nil {
		return fmt.Errorf("renthouse/mongo: create receipt: %w", err)
	}
	return nil
}

func (s *Store) ReceiptsForProperty(ctx context.Context, propertyID int64) ([]*escrow.Receipt, error) {
	cursor, err := s.db.Collection(colReceipts).Find(ctx,
		bson.M{"property_id": propertyID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("renthouse/mongo: list receipts: %w", err)
	}
	defer cursor.Close(ctx)

	result := make([]*escrow.Receipt, 0)
	for cursor.Next(ctx) {
		var m receiptModel
		if err := cursor.Decode(&m); err != nil {
			return nil, err
		}
		r, err := fromReceiptModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, cursor.Err()
}
