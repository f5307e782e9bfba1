package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/events"
)

type fakeIndex struct {
	mu        sync.Mutex
	docs      map[uuid.UUID]string
	hits      []uuid.UUID
	searchErr error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{docs: map[uuid.UUID]string{}}
}

func (f *fakeIndex) Upsert(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[p.ID] = p.Name
	return nil
}

func (f *fakeIndex) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, _ string, _, _ int) (int64, []uuid.UUID, error) {
	if f.searchErr != nil {
		return 0, nil, f.searchErr
	}
	return int64(len(f.hits)), f.hits, nil
}

func newCatalogService(env *testEnv, idx *fakeIndex) *CatalogService {
	svc := &CatalogService{Repo: env.repo, Settings: env.settings, Events: env.pub}
	if idx != nil {
		svc.Index = idx
	}
	return svc
}

func TestCatalog_CreatePatchDelete(t *testing.T) {
	env := newTestEnv(t)
	idx := newFakeIndex()
	svc := newCatalogService(env, idx)
	ctx := context.Background()

	orig := int64(5999)
	p, err := svc.CreateProduct(ctx, transport.CreateProductRequest{
		Name:          " Desk Lamp ",
		Price:         4999,
		OriginalPrice: &orig,
		Category:      "lighting",
	})
	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp", p.Name)
	assert.True(t, p.InStock)
	assert.Equal(t, "Desk Lamp", idx.docs[p.ID])

	view, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "$49.99", view.PriceFormatted)
	assert.Equal(t, 17, view.DiscountPercent)

	name := "Desk Lamp Pro"
	patched, err := svc.PatchProduct(ctx, transport.PatchProductRequest{Name: &name, ClearOriginal: true}, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp Pro", patched.Name)
	assert.Nil(t, patched.OriginalPrice)
	assert.Equal(t, "Desk Lamp Pro", idx.docs[p.ID])

	bad := int64(-1)
	_, err = svc.PatchProduct(ctx, transport.PatchProductRequest{Price: &bad}, p.ID)
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, svc.DeleteProduct(ctx, p.ID))
	assert.NotContains(t, idx.docs, p.ID)
	assert.ErrorIs(t, svc.DeleteProduct(ctx, p.ID), ErrNotFound)
	_, err = svc.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var kinds []string
	for _, e := range env.pub.all() {
		assert.Equal(t, events.TopicProducts, e.Topic)
		kinds = append(kinds, e.Event.(events.ProductEvent).Type)
	}
	assert.Equal(t, []string{events.ProductCreated, events.ProductUpdated, events.ProductDeleted}, kinds)
}

func TestCatalog_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := newCatalogService(env, nil)
	ctx := context.Background()

	for _, req := range []transport.CreateProductRequest{
		{Name: "  ", Price: 100},
		{Name: "Lamp", Price: -1},
		{Name: "Lamp", Rating: 6},
		{Name: "Lamp", Gallery: []models.MediaItem{{URL: "x.gif", Type: "gif"}}},
	} {
		_, err := svc.CreateProduct(ctx, req)
		assert.ErrorIs(t, err, ErrValidation)
	}
}

func TestCatalog_GetProductsFilters(t *testing.T) {
	env := newTestEnv(t)
	svc := newCatalogService(env, nil)
	ctx := context.Background()

	yes := true
	for _, req := range []transport.CreateProductRequest{
		{Name: "Desk Lamp", Price: 4999, Category: "lighting", Featured: true},
		{Name: "Floor Lamp", Price: 8999, Category: "lighting"},
		{Name: "Chair", Price: 12999, Category: "furniture", InStock: &yes},
	} {
		_, err := svc.CreateProduct(ctx, req)
		require.NoError(t, err)
	}

	page, err := svc.GetProducts(ctx, repo.ProductFilter{Category: "lighting"}, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Meta.Total)
	assert.Len(t, page.Data, 1)
	assert.True(t, page.Meta.HasNext)

	page, err = svc.GetProducts(ctx, repo.ProductFilter{Featured: &yes}, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Desk Lamp", page.Data[0].Name)
}

func TestCatalog_SearchUsesIndexThenFallsBack(t *testing.T) {
	env := newTestEnv(t)
	idx := newFakeIndex()
	svc := newCatalogService(env, idx)
	ctx := context.Background()

	lamp, err := svc.CreateProduct(ctx, transport.CreateProductRequest{Name: "Desk Lamp", Price: 4999})
	require.NoError(t, err)
	chair, err := svc.CreateProduct(ctx, transport.CreateProductRequest{Name: "Chair", Price: 12999})
	require.NoError(t, err)

	idx.hits = []uuid.UUID{chair.ID, lamp.ID}
	page, err := svc.Search(ctx, "anything", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, chair.ID, page.Data[0].ID)

	idx.searchErr = errors.New("cluster down")
	page, err = svc.Search(ctx, "lamp", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, lamp.ID, page.Data[0].ID)

	_, err = svc.Search(ctx, " ", 1, 10)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCatalog_Reindex(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		_, err := env.repo.CreateProduct(ctx, &models.Product{Name: name, Price: 100, InStock: true})
		require.NoError(t, err)
	}

	_, err := newCatalogService(env, nil).Reindex(ctx)
	assert.Error(t, err)

	idx := newFakeIndex()
	n, err := newCatalogService(env, idx).Reindex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, idx.docs, 3)
}
