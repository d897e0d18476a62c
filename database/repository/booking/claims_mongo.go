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

// slotClaim reserves one bucket of a provider's day for a booking.
type slotClaim struct {
	ProviderID string    `bson:"provider_id"`
	Date       string    `bson:"date"`
	Bucket     int       `bson:"bucket"`
	BookingID  string    `bson:"booking_id"`
	ClaimedAt  time.Time `bson:"claimed_at"`
}

// ClaimSlot inserts one claim per bucket of window. The unique index on
// (provider_id, date, bucket) lets exactly one of several racing bookings
// win each bucket. Claims left behind by bookings that no longer occupy the
// slot are taken over once.
func (r *MongoBookingRepo) ClaimSlot(ctx context.Context, providerID, date string, window models.TimeWindow, bookingID string) error {
	buckets := claimBuckets(window)

	for attempt := 0; attempt < 2; attempt++ {
		err := r.insertClaims(ctx, providerID, date, buckets, bookingID)
		if err == nil {
			return nil
		}
		if relErr := r.ReleaseSlot(ctx, providerID, date, bookingID); relErr != nil {
			return errors.Join(err, relErr)
		}
		if !mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("failed to claim slot: %w", err)
		}

		healed, err := r.healStaleClaims(ctx, providerID, date, buckets, bookingID)
		if err != nil {
			return err
		}
		if !healed {
			break
		}
	}
	return fmt.Errorf("claim %s %s for provider %s: %w", date, window, providerID, ErrSlotTaken)
}

func (r *MongoBookingRepo) insertClaims(ctx context.Context, providerID, date string, buckets []int, bookingID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := r.now()
	docs := make([]interface{}, 0, len(buckets))
	for _, b := range buckets {
		docs = append(docs, slotClaim{ProviderID: providerID, Date: date, Bucket: b, BookingID: bookingID, ClaimedAt: now})
	}
	_, err := r.claimColl.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	return err
}

// healStaleClaims deletes conflicting claims whose holder no longer occupies
// the slot. It reports true only when every conflicting holder was stale.
func (r *MongoBookingRepo) healStaleClaims(ctx context.Context, providerID, date string, buckets []int, bookingID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"provider_id": providerID,
		"date":        date,
		"bucket":      bson.M{"$in": buckets},
		"booking_id":  bson.M{"$ne": bookingID},
	}
	cursor, err := r.claimColl.Find(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("error finding conflicting claims: %w", err)
	}
	var conflicts []slotClaim
	if err := cursor.All(ctx, &conflicts); err != nil {
		return false, fmt.Errorf("error decoding conflicting claims: %w", err)
	}
	if len(conflicts) == 0 {
		// the holder released between our insert and this read
		return true, nil
	}

	oldest := make(map[string]time.Time)
	for _, c := range conflicts {
		if t, ok := oldest[c.BookingID]; !ok || c.ClaimedAt.Before(t) {
			oldest[c.BookingID] = c.ClaimedAt
		}
	}

	now := r.now()
	for holderID, claimedAt := range oldest {
		holder, err := r.GetByID(ctx, holderID)
		if err != nil && !errors.Is(err, ErrBookingNotFound) {
			return false, err
		}
		if !claimIsStale(holder, providerID, date, claimedAt, now) {
			return false, nil
		}
	}
	for holderID := range oldest {
		if err := r.ReleaseSlot(ctx, providerID, date, holderID); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (r *MongoBookingRepo) ReleaseSlot(ctx context.Context, providerID, date, bookingID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"provider_id": providerID, "date": date, "booking_id": bookingID}
	if _, err := r.claimColl.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("failed to release slot claims: %w", err)
	}
	return nil
}
