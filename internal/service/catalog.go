package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/catalog"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CatalogService struct {
	Repo     *repo.GormRepo
	Settings *SettingsService
	Index    search.Index
	Events   events.Publisher
}

func (s *CatalogService) viewOptions(ctx context.Context) catalog.Options {
	st := s.Settings.LoadOrDefaults(ctx)
	return catalog.Options{Currency: st.Currency, Placeholder: st.PlaceholderImage}
}

func (s *CatalogService) views(ctx context.Context, items []models.Product) []catalog.ProductView {
	opt := s.viewOptions(ctx)
	out := make([]catalog.ProductView, 0, len(items))
	for _, p := range items {
		out = append(out, catalog.View(p, opt))
	}
	return out
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.ProductView, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	v := catalog.View(*p, s.viewOptions(ctx))
	return &v, nil
}

func (s *CatalogService) GetProducts(ctx context.Context, f repo.ProductFilter, page, size int) (*util.Page[catalog.ProductView], error) {
	offset, limit := util.Calculate(page, size)
	total, items, err := s.Repo.GetProducts(ctx, f, offset, limit)
	if err != nil {
		return nil, err
	}
	return &util.Page[catalog.ProductView]{
		Data: s.views(ctx, items),
		Meta: util.NewMeta(page, offset, limit, total),
	}, nil
}

// Search queries the index when one is configured and falls back to SQL LIKE otherwise.
func (s *CatalogService) Search(ctx context.Context, q string, page, size int) (*util.Page[catalog.ProductView], error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, fmt.Errorf("%w: query required", ErrValidation)
	}
	offset, limit := util.Calculate(page, size)

	var (
		total int64
		items []models.Product
		err   error
	)
	if s.Index != nil {
		var ids []uuid.UUID
		total, ids, err = s.Index.Search(ctx, q, offset, limit)
		if err == nil {
			items, err = s.Repo.GetProductsByIDs(ctx, ids)
		}
		if err != nil {
			logging.FromContext(ctx).Warn("search_index_error", "reason", "falling back to sql", "error", err)
			total, items, err = s.Repo.SearchProducts(ctx, q, offset, limit)
		}
	} else {
		total, items, err = s.Repo.SearchProducts(ctx, q, offset, limit)
	}
	if err != nil {
		return nil, err
	}

	return &util.Page[catalog.ProductView]{
		Data: s.views(ctx, items),
		Meta: util.NewMeta(page, offset, limit, total),
	}, nil
}

func validateProduct(p *models.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name required", ErrValidation)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	if p.OriginalPrice != nil && *p.OriginalPrice < 0 {
		return fmt.Errorf("%w: original_price must be >= 0", ErrValidation)
	}
	if p.Rating < 0 || p.Rating > 5 {
		return fmt.Errorf("%w: rating must be between 0 and 5", ErrValidation)
	}
	if p.ReviewCount < 0 {
		return fmt.Errorf("%w: review_count must be >= 0", ErrValidation)
	}
	for _, m := range p.Gallery {
		if m.URL == "" || (m.Type != "image" && m.Type != "video") {
			return fmt.Errorf("%w: gallery items need a url and type image or video", ErrValidation)
		}
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	p := &models.Product{
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Category:      strings.TrimSpace(req.Category),
		InStock:       true,
		Featured:      req.Featured,
		Rating:        req.Rating,
		ReviewCount:   req.ReviewCount,
		Colors:        req.Colors,
		Specs:         req.Specs,
		Image:         req.Image,
		Gallery:       req.Gallery,
	}
	if req.InStock != nil {
		p.InStock = *req.InStock
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	created, err := s.Repo.CreateProduct(ctx, p)
	if err != nil {
		return nil, err
	}
	s.afterWrite(ctx, events.ProductCreated, created)
	return created, nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, req transport.PatchProductRequest, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.OriginalPrice != nil {
		p.OriginalPrice = req.OriginalPrice
	}
	if req.ClearOriginal {
		p.OriginalPrice = nil
	}
	if req.Category != nil {
		p.Category = strings.TrimSpace(*req.Category)
	}
	if req.InStock != nil {
		p.InStock = *req.InStock
	}
	if req.Featured != nil {
		p.Featured = *req.Featured
	}
	if req.Rating != nil {
		p.Rating = *req.Rating
	}
	if req.ReviewCount != nil {
		p.ReviewCount = *req.ReviewCount
	}
	if req.Colors != nil {
		p.Colors = *req.Colors
	}
	if req.Specs != nil {
		p.Specs = *req.Specs
	}
	if req.Image != nil {
		p.Image = *req.Image
	}
	if req.Gallery != nil {
		p.Gallery = *req.Gallery
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	if err := s.Repo.SaveProduct(ctx, p); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, events.ProductUpdated, p)
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return notFound(err)
	}

	l := logging.FromContext(ctx).With("svc", "catalog.delete_product", "product_id", id)
	if s.Index != nil {
		bestEffort(l, "search_index_error", s.Index.Delete(ctx, id))
	}
	bestEffort(l, "publish_event_error", s.publish(ctx, events.ProductEvent{Type: events.ProductDeleted, ProductID: id.String(), At: time.Now().UTC()}))
	return nil
}

// Reindex pushes every product into the search index.
func (s *CatalogService) Reindex(ctx context.Context) (int, error) {
	if s.Index == nil {
		return 0, fmt.Errorf("search index not configured")
	}
	n := 0
	err := s.Repo.EachProduct(ctx, 200, func(batch []models.Product) error {
		for i := range batch {
			if err := s.Index.Upsert(ctx, &batch[i]); err != nil {
				return fmt.Errorf("index %s: %w", batch[i].ID, err)
			}
			n++
		}
		return nil
	})
	return n, err
}

func (s *CatalogService) afterWrite(ctx context.Context, kind string, p *models.Product) {
	l := logging.FromContext(ctx).With("svc", "catalog", "product_id", p.ID)
	if s.Index != nil {
		bestEffort(l, "search_index_error", s.Index.Upsert(ctx, p))
	}
	bestEffort(l, "publish_event_error", s.publish(ctx, events.ProductEvent{
		Type:      kind,
		ProductID: p.ID.String(),
		Name:      p.Name,
		Price:     p.Price,
		At:        time.Now().UTC(),
	}))
}

func (s *CatalogService) publish(ctx context.Context, ev events.ProductEvent) error {
	if s.Events == nil {
		return nil
	}
	return s.Events.Publish(ctx, events.TopicProducts, ev.ProductID, ev)
}
