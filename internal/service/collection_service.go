package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prperemyshlev/shop-identity/internal/domain"
	"github.com/prperemyshlev/shop-identity/internal/dto"
	"github.com/prperemyshlev/shop-identity/internal/repository"
	"github.com/prperemyshlev/shop-identity/pkg/observability"
)

// collectionService implements CollectionService. Each call is one atomic
// store operation on one key (or the whole map for clear), so concurrent
// writes to the same key resolve last-write-wins.
type collectionService struct {
	accounts repository.AccountRepository
	metrics  *observability.IdentityMetrics
	now      func() time.Time
}

// NewCollectionService creates a new cart and wishlist service
func NewCollectionService(accounts repository.AccountRepository, metrics *observability.IdentityMetrics) CollectionService {
	return &collectionService{
		accounts: accounts,
		metrics:  metrics,
		now:      time.Now,
	}
}

func (s *collectionService) GetCart(ctx context.Context, userID string) (*dto.CartResponse, error) {
	items, err := s.get(ctx, userID, domain.CollectionCart)
	if err != nil {
		return nil, err
	}
	return cartResponse(items)
}

// PutCartLine upserts a line. Quantities are overwritten, never merged.
func (s *collectionService) PutCartLine(ctx context.Context, userID, key string, line domain.CartLine) (*dto.CartResponse, error) {
	if line.AddedAt.IsZero() {
		line.AddedAt = s.now().UTC()
	}

	items, err := s.put(ctx, userID, domain.CollectionCart, key, line)
	if err != nil {
		return nil, err
	}
	return cartResponse(items)
}

func (s *collectionService) RemoveCartLine(ctx context.Context, userID, key string) (*dto.CartResponse, error) {
	items, err := s.remove(ctx, userID, domain.CollectionCart, key)
	if err != nil {
		return nil, err
	}
	return cartResponse(items)
}

func (s *collectionService) ClearCart(ctx context.Context, userID string) (*dto.CartResponse, error) {
	items, err := s.clear(ctx, userID, domain.CollectionCart)
	if err != nil {
		return nil, err
	}
	return cartResponse(items)
}

func (s *collectionService) GetWishlist(ctx context.Context, userID string) (*dto.WishlistResponse, error) {
	items, err := s.get(ctx, userID, domain.CollectionWishlist)
	if err != nil {
		return nil, err
	}
	return wishlistResponse(items)
}

func (s *collectionService) PutWishlistItem(ctx context.Context, userID, key string, item domain.WishlistItem) (*dto.WishlistResponse, error) {
	if item.AddedAt.IsZero() {
		item.AddedAt = s.now().UTC()
	}

	items, err := s.put(ctx, userID, domain.CollectionWishlist, key, item)
	if err != nil {
		return nil, err
	}
	return wishlistResponse(items)
}

func (s *collectionService) RemoveWishlistItem(ctx context.Context, userID, key string) (*dto.WishlistResponse, error) {
	items, err := s.remove(ctx, userID, domain.CollectionWishlist, key)
	if err != nil {
		return nil, err
	}
	return wishlistResponse(items)
}

func (s *collectionService) ClearWishlist(ctx context.Context, userID string) (*dto.WishlistResponse, error) {
	items, err := s.clear(ctx, userID, domain.CollectionWishlist)
	if err != nil {
		return nil, err
	}
	return wishlistResponse(items)
}

func (s *collectionService) get(ctx context.Context, userID string, kind domain.CollectionKind) (repository.Collection, error) {
	if userID == "" {
		return nil, missingField("user_id")
	}

	items, err := s.accounts.GetCollection(ctx, userID, kind)
	if err != nil {
		return nil, collectionError(err)
	}
	return items, nil
}

func (s *collectionService) put(ctx context.Context, userID string, kind domain.CollectionKind, key string, item any) (repository.Collection, error) {
	key = strings.TrimSpace(key)
	if userID == "" {
		return nil, missingField("user_id")
	}
	if key == "" {
		return nil, missingField("key")
	}

	raw, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s item: %w", kind, err)
	}

	items, err := s.accounts.UpsertCollectionItem(ctx, userID, kind, key, raw)
	if err != nil {
		return nil, collectionError(err)
	}

	s.metrics.RecordCollectionMutation(ctx, string(kind), "put")
	return items, nil
}

func (s *collectionService) remove(ctx context.Context, userID string, kind domain.CollectionKind, key string) (repository.Collection, error) {
	key = strings.TrimSpace(key)
	if userID == "" {
		return nil, missingField("user_id")
	}
	if key == "" {
		return nil, missingField("key")
	}

	items, err := s.accounts.RemoveCollectionItem(ctx, userID, kind, key)
	if err != nil {
		return nil, collectionError(err)
	}

	s.metrics.RecordCollectionMutation(ctx, string(kind), "remove")
	return items, nil
}

func (s *collectionService) clear(ctx context.Context, userID string, kind domain.CollectionKind) (repository.Collection, error) {
	if userID == "" {
		return nil, missingField("user_id")
	}

	items, err := s.accounts.ReplaceCollection(ctx, userID, kind, repository.Collection{})
	if err != nil {
		return nil, collectionError(err)
	}

	s.metrics.RecordCollectionMutation(ctx, string(kind), "clear")
	return items, nil
}

func collectionError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return domain.ErrUserNotFound
	case errors.Is(err, repository.ErrItemNotFound):
		return domain.ErrItemNotFound
	default:
		return storeFailure(err)
	}
}

func cartResponse(items repository.Collection) (*dto.CartResponse, error) {
	lines, err := decodeItems[domain.CartLine](items)
	if err != nil {
		return nil, err
	}
	return &dto.CartResponse{Items: domain.Cart(lines), Count: len(lines)}, nil
}

func wishlistResponse(items repository.Collection) (*dto.WishlistResponse, error) {
	entries, err := decodeItems[domain.WishlistItem](items)
	if err != nil {
		return nil, err
	}
	return &dto.WishlistResponse{Items: domain.Wishlist(entries), Count: len(entries)}, nil
}

func decodeItems[T any](items repository.Collection) (map[string]T, error) {
	out := make(map[string]T, len(items))
	for key, raw := range items {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, storeFailure(fmt.Errorf("failed to decode item %q: %w", key, err))
		}
		out[key] = item
	}
	return out, nil
}
