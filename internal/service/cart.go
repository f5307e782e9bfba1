package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

// CartService loads a shopper's cart into a cart.Store, applies one mutation
// and persists the snapshot the store publishes.
type CartService struct {
	Repo *repo.GormRepo
}

func (s *CartService) Get(ctx context.Context, owner string) (cart.Cart, error) {
	return s.Repo.LoadCart(ctx, owner)
}

// mutate runs fn against the owner's cart inside a locked transaction. The
// store's subscriber persists every snapshot, so concurrent requests on the
// same cart apply one after another.
func (s *CartService) mutate(ctx context.Context, owner string, fn func(st *cart.Store) error) (cart.Cart, error) {
	var out cart.Cart
	err := s.Repo.UpdateCart(ctx, owner, func(current cart.Cart, save func(cart.Cart) error) error {
		st := cart.NewStore(current)
		var saveErr error
		unsubscribe := st.Subscribe(func(snap cart.Cart) {
			if err := save(snap); err != nil && saveErr == nil {
				saveErr = err
			}
		})
		defer unsubscribe()

		if err := fn(st); err != nil {
			return err
		}
		if saveErr != nil {
			return saveErr
		}
		out = st.Snapshot()
		return nil
	})
	if err != nil {
		return cart.Cart{}, err
	}
	return out, nil
}

// Add snapshots the product's current price into the cart.
func (s *CartService) Add(ctx context.Context, owner string, productID uuid.UUID, variant string) (cart.Cart, error) {
	p, err := s.Repo.GetProduct(ctx, productID)
	if err != nil {
		return cart.Cart{}, notFound(err)
	}
	if !p.InStock {
		return cart.Cart{}, fmt.Errorf("%w: product is out of stock", ErrValidation)
	}

	return s.mutate(ctx, owner, func(st *cart.Store) error {
		err := st.Add(cart.Product{ID: p.ID, Name: p.Name, Price: p.Price, Image: p.Image}, variant)
		if errors.Is(err, cart.ErrInvalidProduct) || errors.Is(err, cart.ErrQuantityLimit) {
			return fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return err
	})
}

func (s *CartService) SetQuantity(ctx context.Context, owner string, productID uuid.UUID, variant string, n int) (cart.Cart, error) {
	return s.mutate(ctx, owner, func(st *cart.Store) error {
		changed, err := st.SetQuantity(productID, variant, n)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrValidation, err)
		}
		if !changed {
			return fmt.Errorf("%w: item not in cart", ErrNotFound)
		}
		return nil
	})
}

func (s *CartService) Remove(ctx context.Context, owner string, productID uuid.UUID, variant string) (cart.Cart, error) {
	return s.mutate(ctx, owner, func(st *cart.Store) error {
		if !st.Remove(productID, variant) {
			return fmt.Errorf("%w: item not in cart", ErrNotFound)
		}
		return nil
	})
}

func (s *CartService) Clear(ctx context.Context, owner string) error {
	_, err := s.mutate(ctx, owner, func(st *cart.Store) error {
		st.Clear()
		return nil
	})
	return err
}

// Merge moves a guest cart into the account cart after sign-in.
func (s *CartService) Merge(ctx context.Context, guest, user string) (cart.Cart, error) {
	if guest == "" || guest == user {
		return s.Repo.LoadCart(ctx, user)
	}
	g, err := s.Repo.LoadCart(ctx, guest)
	if err != nil {
		return cart.Cart{}, err
	}
	if len(g.Items) == 0 {
		return s.Repo.LoadCart(ctx, user)
	}

	merged, err := s.mutate(ctx, user, func(st *cart.Store) error {
		st.Merge(g)
		return nil
	})
	if err != nil {
		return cart.Cart{}, err
	}
	if err := s.Repo.DeleteCart(ctx, guest); err != nil {
		logging.FromContext(ctx).Warn("cart_merge_cleanup_error", "owner", guest, "error", err)
	}
	return merged, nil
}
