// Package catalog maps stored products into the shape the storefront renders.
package catalog

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/money"
)

type Spec struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type ProductView struct {
	ID                     uuid.UUID          `json:"id"`
	Name                   string             `json:"name"`
	Description            string             `json:"description"`
	Category               string             `json:"category"`
	Price                  int64              `json:"price"`
	PriceFormatted         string             `json:"price_formatted"`
	OriginalPrice          *int64             `json:"original_price,omitempty"`
	OriginalPriceFormatted string             `json:"original_price_formatted,omitempty"`
	DiscountPercent        int                `json:"discount_percent,omitempty"`
	Currency               string             `json:"currency"`
	InStock                bool               `json:"in_stock"`
	Featured               bool               `json:"featured"`
	Rating                 float64            `json:"rating"`
	ReviewCount            int                `json:"review_count"`
	Colors                 []string           `json:"colors"`
	Specs                  []Spec             `json:"specs"`
	Image                  string             `json:"image"`
	Gallery                []models.MediaItem `json:"gallery"`
}

type Options struct {
	Currency    string
	Placeholder string
}

func View(p models.Product, opt Options) ProductView {
	v := ProductView{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Category:       p.Category,
		Price:          p.Price,
		PriceFormatted: money.Format(p.Price, opt.Currency),
		Currency:       opt.Currency,
		InStock:        p.InStock,
		Featured:       p.Featured,
		Rating:         p.Rating,
		ReviewCount:    p.ReviewCount,
		Colors:         nonNil(p.Colors),
		Specs:          ParseSpecs(p.Specs),
		Image:          ResolveImage(p, opt.Placeholder),
		Gallery:        galleryOf(p),
	}

	if p.OriginalPrice != nil && *p.OriginalPrice > p.Price {
		orig := *p.OriginalPrice
		v.OriginalPrice = &orig
		v.OriginalPriceFormatted = money.Format(orig, opt.Currency)
		v.DiscountPercent = DiscountPercent(p.Price, orig)
	}
	return v
}

// DiscountPercent is rounded to the nearest whole percent.
func DiscountPercent(price, original int64) int {
	if original <= 0 || price >= original {
		return 0
	}
	return int(((original-price)*100 + original/2) / original)
}

// ResolveImage picks the primary image, then the first gallery image, then the placeholder.
func ResolveImage(p models.Product, placeholder string) string {
	if img := strings.TrimSpace(p.Image); img != "" {
		return img
	}
	for _, m := range p.Gallery {
		if m.Type != "video" && strings.TrimSpace(m.URL) != "" {
			return m.URL
		}
	}
	return placeholder
}

// ParseSpecs accepts a JSON array of {label, value} objects or "Label: Value"
// lines. Entries without a label or value are skipped.
func ParseSpecs(raw string) []Spec {
	raw = strings.TrimSpace(raw)
	out := []Spec{}
	if raw == "" {
		return out
	}

	if strings.HasPrefix(raw, "[") {
		var parsed []Spec
		if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
			for _, s := range parsed {
				s.Label, s.Value = strings.TrimSpace(s.Label), strings.TrimSpace(s.Value)
				if s.Label != "" && s.Value != "" {
					out = append(out, s)
				}
			}
			return out
		}
	}

	for _, line := range strings.Split(raw, "\n") {
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		label, value = strings.TrimSpace(label), strings.TrimSpace(value)
		if label == "" || value == "" {
			continue
		}
		out = append(out, Spec{Label: label, Value: value})
	}
	return out
}

func galleryOf(p models.Product) []models.MediaItem {
	out := make([]models.MediaItem, 0, len(p.Gallery))
	for _, m := range p.Gallery {
		if strings.TrimSpace(m.URL) == "" {
			continue
		}
		if m.Type != "video" {
			m.Type = "image"
		}
		out = append(out, m)
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
