package domain

import "time"

// CollectionKind names one of the per-account embedded maps
type CollectionKind string

const (
	CollectionCart     CollectionKind = "cart"
	CollectionWishlist CollectionKind = "wishlist"
)

// Valid reports whether k is a known collection
func (k CollectionKind) Valid() bool {
	return k == CollectionCart || k == CollectionWishlist
}

// CartLine is one keyed entry of a cart. The key is stable per product and variant.
type CartLine struct {
	ProductID string    `json:"product_id"`
	VariantID string    `json:"variant_id,omitempty"`
	Quantity  int       `json:"quantity"`
	Name      string    `json:"name,omitempty"`
	Price     float64   `json:"price,omitempty"`
	Image     string    `json:"image,omitempty"`
	AddedAt   time.Time `json:"added_at"`
}

// WishlistItem is a lightweight product snapshot
type WishlistItem struct {
	ProductID string    `json:"product_id"`
	Name      string    `json:"name,omitempty"`
	Price     float64   `json:"price,omitempty"`
	Image     string    `json:"image,omitempty"`
	AddedAt   time.Time `json:"added_at"`
}

type Cart map[string]CartLine

type Wishlist map[string]WishlistItem
