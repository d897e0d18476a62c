package directoryRepo

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"barberly/models"
)

// MemoryDirectoryRepo keeps the directory in process memory.
type MemoryDirectoryRepo struct {
	mu        sync.RWMutex
	providers map[string]models.Provider
	shops     map[string]models.Shop
	services  map[string]models.Service
	customers map[string]models.Customer
}

func NewMemoryDirectoryRepo() *MemoryDirectoryRepo {
	return &MemoryDirectoryRepo{
		providers: make(map[string]models.Provider),
		shops:     make(map[string]models.Shop),
		services:  make(map[string]models.Service),
		customers: make(map[string]models.Customer),
	}
}

func lookup[T any](mu *sync.RWMutex, m map[string]T, kind, id string) (*T, error) {
	mu.RLock()
	defer mu.RUnlock()

	v, ok := m[id]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return &v, nil
}

func (r *MemoryDirectoryRepo) GetProvider(ctx context.Context, id string) (*models.Provider, error) {
	p, err := lookup(&r.mu, r.providers, "providers", id)
	if err != nil {
		return nil, err
	}
	p.Capabilities = append([]models.ServiceType(nil), p.Capabilities...)
	p.ServiceIDs = append([]string(nil), p.ServiceIDs...)
	return p, nil
}

func (r *MemoryDirectoryRepo) GetShop(ctx context.Context, id string) (*models.Shop, error) {
	return lookup(&r.mu, r.shops, "shops", id)
}

func (r *MemoryDirectoryRepo) GetService(ctx context.Context, id string) (*models.Service, error) {
	return lookup(&r.mu, r.services, "services", id)
}

func (r *MemoryDirectoryRepo) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	return lookup(&r.mu, r.customers, "customers", id)
}

func (r *MemoryDirectoryRepo) ListShopProviders(ctx context.Context, shopID string) ([]models.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.Provider{}
	for _, p := range r.providers {
		if p.ShopID == shopID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryDirectoryRepo) SaveSchedule(ctx context.Context, providerID string, schedule models.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.providers[providerID]
	if !ok {
		return fmt.Errorf("providers %s: %w", providerID, ErrNotFound)
	}
	p.Schedule = schedule
	p.UpdatedAt = schedule.UpdatedAt
	r.providers[providerID] = p
	return nil
}

func (r *MemoryDirectoryRepo) UpsertProvider(ctx context.Context, p *models.Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.ID] = *p
	return nil
}

func (r *MemoryDirectoryRepo) UpsertShop(ctx context.Context, s *models.Shop) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shops[s.ID] = *s
	return nil
}

func (r *MemoryDirectoryRepo) UpsertService(ctx context.Context, s *models.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[s.ID] = *s
	return nil
}

func (r *MemoryDirectoryRepo) UpsertCustomer(ctx context.Context, c *models.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customers[c.ID] = *c
	return nil
}
