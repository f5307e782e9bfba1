// Package cart holds the shopper's in-progress selection: one entry per
// (product, variant) pair with a unit price captured when the entry was added.
package cart

import (
	"errors"
	"math"
	"strings"

	"github.com/google/uuid"
)

// MaxQuantity is the largest quantity one entry may hold. It matches the
// processor's per-line limit.
const MaxQuantity = 999999

var (
	ErrInvalidProduct = errors.New("invalid product")
	ErrQuantityLimit  = errors.New("quantity exceeds limit")
)

type Item struct {
	ProductID uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
	UnitPrice int64     `json:"unitPrice"`
	Image     string    `json:"image,omitempty"`
	Variant   string    `json:"selectedColor"`
	Quantity  int       `json:"quantity"`
}

// Product is the snapshot copied into a new entry.
type Product struct {
	ID    uuid.UUID
	Name  string
	Price int64
	Image string
}

type Cart struct {
	Items []Item `json:"items"`
}

func normalizeVariant(v string) string {
	return strings.TrimSpace(v)
}

func (c Cart) indexOf(productID uuid.UUID, variant string) int {
	variant = normalizeVariant(variant)
	for i := range c.Items {
		if c.Items[i].ProductID == productID && c.Items[i].Variant == variant {
			return i
		}
	}
	return -1
}

func (c Cart) TotalItems() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// TotalPrice saturates at math.MaxInt64 instead of wrapping.
func (c Cart) TotalPrice() int64 {
	var total int64
	for _, it := range c.Items {
		if it.Quantity <= 0 || it.UnitPrice <= 0 {
			continue
		}
		q := int64(it.Quantity)
		if it.UnitPrice > (math.MaxInt64-total)/q {
			return math.MaxInt64
		}
		total += q * it.UnitPrice
	}
	return total
}

func (c Cart) Clone() Cart {
	if c.Items == nil {
		return Cart{Items: []Item{}}
	}
	items := make([]Item, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items}
}

// Normalize merges duplicate (product, variant) entries, drops entries that
// cannot be retained and caps quantities at MaxQuantity. It is applied to
// carts loaded from storage.
func Normalize(c Cart) Cart {
	out := Cart{Items: make([]Item, 0, len(c.Items))}
	for _, it := range c.Items {
		if it.ProductID == uuid.Nil || it.Quantity <= 0 || it.UnitPrice < 0 {
			continue
		}
		it.Variant = normalizeVariant(it.Variant)
		if i := out.indexOf(it.ProductID, it.Variant); i >= 0 {
			out.Items[i].Quantity = capQuantity(out.Items[i].Quantity, it.Quantity)
			continue
		}
		it.Quantity = capQuantity(0, it.Quantity)
		out.Items = append(out.Items, it)
	}
	return out
}

func capQuantity(a, b int) int {
	if b >= MaxQuantity-a {
		return MaxQuantity
	}
	return a + b
}

func add(c Cart, p Product, variant string) (Cart, error) {
	if p.ID == uuid.Nil || p.Price < 0 {
		return c, ErrInvalidProduct
	}
	variant = normalizeVariant(variant)
	next := c.Clone()
	if i := next.indexOf(p.ID, variant); i >= 0 {
		if next.Items[i].Quantity >= MaxQuantity {
			return c, ErrQuantityLimit
		}
		next.Items[i].Quantity++
		return next, nil
	}
	next.Items = append(next.Items, Item{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Image:     p.Image,
		Variant:   variant,
		Quantity:  1,
	})
	return next, nil
}

func remove(c Cart, productID uuid.UUID, variant string) (Cart, bool) {
	i := c.indexOf(productID, variant)
	if i < 0 {
		return c, false
	}
	next := c.Clone()
	next.Items = append(next.Items[:i], next.Items[i+1:]...)
	return next, true
}

func setQuantity(c Cart, productID uuid.UUID, variant string, n int) (Cart, bool, error) {
	if n > MaxQuantity {
		return c, false, ErrQuantityLimit
	}
	if n <= 0 {
		next, ok := remove(c, productID, variant)
		return next, ok, nil
	}
	i := c.indexOf(productID, variant)
	if i < 0 {
		return c, false, nil
	}
	next := c.Clone()
	next.Items[i].Quantity = n
	return next, true, nil
}

// merge folds other into c. Existing entries keep their unit price.
func merge(c, other Cart) (Cart, bool) {
	extra := Normalize(other)
	if len(extra.Items) == 0 {
		return c, false
	}
	combined := c.Clone()
	combined.Items = append(combined.Items, extra.Items...)
	return Normalize(combined), true
}
