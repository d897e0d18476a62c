package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"barberly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	bookingColl *mongo.Collection
	claimColl   *mongo.Collection
	now         func() time.Time
}

// NewMongoBookingRepo binds the repository to the bookings and slot_claims
// collections of db.
func NewMongoBookingRepo(db *mongo.Database) *MongoBookingRepo {
	return &MongoBookingRepo{
		bookingColl: db.Collection("bookings"),
		claimColl:   db.Collection("slot_claims"),
		now:         time.Now,
	}
}

func (r *MongoBookingRepo) Create(ctx context.Context, b *models.Booking) error {
	if err := r.ClaimSlot(ctx, b.ProviderID, b.Date, b.Window(), b.ID); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	b.Occupying = b.Status.Occupying()
	if _, err := r.bookingColl.InsertOne(ctx, b); err != nil {
		if relErr := r.ReleaseSlot(context.Background(), b.ProviderID, b.Date, b.ID); relErr != nil {
			err = errors.Join(err, relErr)
		}
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert booking %s: %w", b.ID, ErrSlotTaken)
		}
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

func (r *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

func (r *MongoBookingRepo) GetByUID(ctx context.Context, uid string) (*models.Booking, error) {
	return r.findOne(ctx, bson.M{"uid": uid})
}

func (r *MongoBookingRepo) findOne(ctx context.Context, filter bson.M) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var b models.Booking
	if err := r.bookingColl.FindOne(ctx, filter).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to fetch booking: %w", err)
	}
	return &b, nil
}

func (r *MongoBookingRepo) ListOccupying(ctx context.Context, providerID, date string) ([]models.Booking, error) {
	filter := bson.M{
		"provider_id": providerID,
		"date":        date,
		"status":      bson.M{"$in": models.OccupyingStatuses},
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "start", Value: 1}}))
}

func (r *MongoBookingRepo) ListByCustomer(ctx context.Context, customerID string) ([]models.Booking, error) {
	return r.find(ctx, bson.M{"customer_id": customerID}, options.Find().SetSort(bson.D{{Key: "requested_at", Value: -1}}))
}

func (r *MongoBookingRepo) ListByProvider(ctx context.Context, providerID, date string) ([]models.Booking, error) {
	filter := bson.M{"provider_id": providerID}
	if date != "" {
		filter["date"] = date
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "start", Value: 1}}))
}

func (r *MongoBookingRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.bookingColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []models.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return bookings, nil
}

func (r *MongoBookingRepo) CompareAndSwap(ctx context.Context, id string, expectedStatus models.BookingStatus, expectedVersion int, upd models.BookingUpdate) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id, "status": expectedStatus, "version": expectedVersion}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Booking
	err := r.bookingColl.FindOneAndUpdate(ctx, filter, updateDocument(upd), opts).Decode(&updated)
	switch {
	case err == nil:
		return &updated, nil
	case mongo.IsDuplicateKeyError(err):
		return nil, fmt.Errorf("update booking %s: %w", id, ErrSlotTaken)
	case !errors.Is(err, mongo.ErrNoDocuments):
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	n, err := r.bookingColl.CountDocuments(ctx, bson.M{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to check booking %s: %w", id, err)
	}
	if n == 0 {
		return nil, ErrBookingNotFound
	}
	return nil, ErrStaleBooking
}

// updateDocument translates an update command into Mongo operators.
func updateDocument(upd models.BookingUpdate) bson.M {
	set := bson.M{}
	if upd.Status != nil {
		set["status"] = *upd.Status
		set["occupying"] = upd.Status.Occupying()
	}
	if upd.ProviderID != nil {
		set["provider_id"] = *upd.ProviderID
	}
	if upd.ShopID != nil {
		set["shop_id"] = *upd.ShopID
	}
	if upd.ReviewedAt != nil {
		set["reviewed_at"] = *upd.ReviewedAt
	}
	if upd.StartedAt != nil {
		set["started_at"] = *upd.StartedAt
	}
	if upd.CompletedAt != nil {
		set["completed_at"] = *upd.CompletedAt
	}
	if upd.CancelledAt != nil {
		set["cancelled_at"] = *upd.CancelledAt
	}
	if upd.CancelledBy != nil {
		set["cancelled_by"] = *upd.CancelledBy
	}
	if upd.Reason != nil {
		set["reason"] = *upd.Reason
	}
	if upd.Rating != nil {
		set["rating"] = *upd.Rating
	}
	if upd.Review != nil {
		set["review"] = *upd.Review
	}
	if upd.RatedAt != nil {
		set["rated_at"] = *upd.RatedAt
	}
	if upd.PaymentStatus != nil {
		set["payment_status"] = *upd.PaymentStatus
	}
	if upd.PaymentRef != nil {
		set["payment_ref"] = *upd.PaymentRef
	}
	if upd.RefundedAmount != nil {
		set["refunded_amount"] = *upd.RefundedAmount
	}
	if !upd.ClearLease && upd.Lease != nil {
		set["lease"] = *upd.Lease
	}
	updatedAt := upd.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	set["updated_at"] = updatedAt

	doc := bson.M{
		"$set": set,
		"$inc": bson.M{"version": 1},
	}
	if upd.AppendReassignment != nil {
		doc["$push"] = bson.M{"reassignments": *upd.AppendReassignment}
	}
	if upd.ClearLease {
		doc["$unset"] = bson.M{"lease": ""}
	}
	return doc
}
