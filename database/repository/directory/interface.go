package directoryRepo

import (
	"context"
	"errors"

	"barberly/models"
)

var ErrNotFound = errors.New("record not found")

// DirectoryRepository reads the accounts and catalogue a booking refers to.
// Profile management lives elsewhere; the upserts exist for seeding and the
// admin surface.
type DirectoryRepository interface {
	GetProvider(ctx context.Context, id string) (*models.Provider, error)
	GetShop(ctx context.Context, id string) (*models.Shop, error)
	GetService(ctx context.Context, id string) (*models.Service, error)
	GetCustomer(ctx context.Context, id string) (*models.Customer, error)
	ListShopProviders(ctx context.Context, shopID string) ([]models.Provider, error)
	SaveSchedule(ctx context.Context, providerID string, schedule models.Schedule) error
	UpsertProvider(ctx context.Context, p *models.Provider) error
	UpsertShop(ctx context.Context, s *models.Shop) error
	UpsertService(ctx context.Context, s *models.Service) error
	UpsertCustomer(ctx context.Context, c *models.Customer) error
}
