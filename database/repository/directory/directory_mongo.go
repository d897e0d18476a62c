package directoryRepo

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

// MongoDirectoryRepo implements DirectoryRepository using MongoDB.
type MongoDirectoryRepo struct {
	providerColl *mongo.Collection
	shopColl     *mongo.Collection
	serviceColl  *mongo.Collection
	customerColl *mongo.Collection
}

func NewMongoDirectoryRepo(db *mongo.Database) *MongoDirectoryRepo {
	return &MongoDirectoryRepo{
		providerColl: db.Collection("providers"),
		shopColl:     db.Collection("shops"),
		serviceColl:  db.Collection("services"),
		customerColl: db.Collection("customers"),
	}
}

// EnsureIndexes creates the lookup indexes of the directory collections.
func (r *MongoDirectoryRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	unique := func(coll *mongo.Collection) error {
		_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		})
		return err
	}
	for _, coll := range []*mongo.Collection{r.providerColl, r.shopColl, r.serviceColl, r.customerColl} {
		if err := unique(coll); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", coll.Name(), err)
		}
	}
	_, err := r.providerColl.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "shop_id", Value: 1}},
		Options: options.Index().SetName("shop_idx"),
	})
	if err != nil {
		return fmt.Errorf("failed to create provider shop index: %w", err)
	}
	return nil
}

func findByID[T any](ctx context.Context, coll *mongo.Collection, id string) (*T, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var out T
	if err := coll.FindOne(ctx, bson.M{"id": id}).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s %s: %w", coll.Name(), id, ErrNotFound)
		}
		return nil, fmt.Errorf("error fetching %s %s: %w", coll.Name(), id, err)
	}
	return &out, nil
}

func upsertByID(ctx context.Context, coll *mongo.Collection, id string, doc interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := coll.ReplaceOne(ctx, bson.M{"id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert %s %s: %w", coll.Name(), id, err)
	}
	return nil
}

func (r *MongoDirectoryRepo) GetProvider(ctx context.Context, id string) (*models.Provider, error) {
	return findByID[models.Provider](ctx, r.providerColl, id)
}

func (r *MongoDirectoryRepo) GetShop(ctx context.Context, id string) (*models.Shop, error) {
	return findByID[models.Shop](ctx, r.shopColl, id)
}

func (r *MongoDirectoryRepo) GetService(ctx context.Context, id string) (*models.Service, error) {
	return findByID[models.Service](ctx, r.serviceColl, id)
}

func (r *MongoDirectoryRepo) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	return findByID[models.Customer](ctx, r.customerColl, id)
}

func (r *MongoDirectoryRepo) ListShopProviders(ctx context.Context, shopID string) ([]models.Provider, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.providerColl.Find(ctx, bson.M{"shop_id": shopID})
	if err != nil {
		return nil, fmt.Errorf("error finding shop providers: %w", err)
	}
	defer cursor.Close(ctx)

	providers := []models.Provider{}
	if err := cursor.All(ctx, &providers); err != nil {
		return nil, fmt.Errorf("error decoding shop providers: %w", err)
	}
	return providers, nil
}

func (r *MongoDirectoryRepo) SaveSchedule(ctx context.Context, providerID string, schedule models.Schedule) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"schedule": schedule, "updated_at": schedule.UpdatedAt}}
	res, err := r.providerColl.UpdateOne(ctx, bson.M{"id": providerID}, update)
	if err != nil {
		return fmt.Errorf("failed to save schedule: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("providers %s: %w", providerID, ErrNotFound)
	}
	return nil
}

func (r *MongoDirectoryRepo) UpsertProvider(ctx context.Context, p *models.Provider) error {
	return upsertByID(ctx, r.providerColl, p.ID, p)
}

func (r *MongoDirectoryRepo) UpsertShop(ctx context.Context, s *models.Shop) error {
	return upsertByID(ctx, r.shopColl, s.ID, s)
}

func (r *MongoDirectoryRepo) UpsertService(ctx context.Context, s *models.Service) error {
	return upsertByID(ctx, r.serviceColl, s.ID, s)
}

func (r *MongoDirectoryRepo) UpsertCustomer(ctx context.Context, c *models.Customer) error {
	return upsertByID(ctx, r.customerColl, c.ID, c)
}
