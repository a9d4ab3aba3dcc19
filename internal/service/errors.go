package service

import (
	"errors"
	"fmt"

	"github.com/prperemyshlev/shop-identity/internal/domain"
	"github.com/prperemyshlev/shop-identity/internal/repository"
)

func missingField(name string) error {
	return fmt.Errorf("%w: %s", domain.ErrMissingField, name)
}

func storeFailure(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrStoreFailure, err)
}

// accountLookupError maps a repository error from a lookup by id
func accountLookupError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return domain.ErrAccountNotFound
	}
	return storeFailure(err)
}
