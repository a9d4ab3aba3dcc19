package repository

import (
	"encoding/json"
	"fmt"

	"github.com/prperemyshlev/shop-identity/internal/domain"
	"github.com/prperemyshlev/shop-identity/pkg/database"
)

// Repositories holds all repository interfaces
type Repositories struct {
	Account AccountRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	return &Repositories{
		Account: NewAccountRepository(db),
	}
}

// NewMemoryRepositories creates repositories backed by process memory
func NewMemoryRepositories() *Repositories {
	return &Repositories{
		Account: NewMemoryAccountRepository(),
	}
}

func decodeCart(c Collection) (domain.Cart, error) {
	cart := make(domain.Cart, len(c))
	for key, raw := range c {
		var line domain.CartLine
		if err := json.Unmarshal(raw, &line); err != nil {
			return nil, fmt.Errorf("failed to decode cart line %q: %w", key, err)
		}
		cart[key] = line
	}
	return cart, nil
}

func decodeWishlist(c Collection) (domain.Wishlist, error) {
	wishlist := make(domain.Wishlist, len(c))
	for key, raw := range c {
		var item domain.WishlistItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("failed to decode wishlist item %q: %w", key, err)
		}
		wishlist[key] = item
	}
	return wishlist, nil
}

func encodeCollection[T any](items map[string]T) (Collection, error) {
	c := make(Collection, len(items))
	for key, item := range items {
		raw, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("failed to encode collection item %q: %w", key, err)
		}
		c[key] = raw
	}
	return c, nil
}
