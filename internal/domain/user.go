package domain

import "time"

// Defaults for newly created accounts
const (
	RoleCustomer = "customer"
	TierStandard = "standard"
)

// Account represents a person using the shop. Credential and reset fields
// carry `json:"-"` and must never leave the service; use PublicProfile.
type Account struct {
	ID              string      `json:"id" db:"id"`
	Email           string      `json:"email" db:"email"`
	Name            string      `json:"name" db:"name"`
	Phone           *string     `json:"phone" db:"phone"`
	Role            string      `json:"role" db:"role"`
	Tier            string      `json:"tier" db:"tier"`
	ProfileImage    *string     `json:"profile_image" db:"profile_image"`
	PasswordHash    *string     `json:"-" db:"password_hash"`
	FederatedID     *string     `json:"-" db:"federated_id"`
	IsActive        bool        `json:"is_active" db:"is_active"`
	IsEmailVerified bool        `json:"is_email_verified" db:"is_email_verified"`
	Addresses       []Address   `json:"addresses" db:"addresses"`
	Preferences     Preferences `json:"preferences" db:"preferences"`
	Stats           Stats       `json:"stats" db:"stats"`
	ResetTokenHash  *string     `json:"-" db:"reset_token_hash"`
	ResetTokenExp   *time.Time  `json:"-" db:"reset_token_expiry"`
	SyncMarkerHash  *string     `json:"-" db:"sync_marker_hash"`
	SyncMarkerExp   *time.Time  `json:"-" db:"sync_marker_expiry"`
	Cart            Cart        `json:"-" db:"cart"`
	Wishlist        Wishlist    `json:"-" db:"wishlist"`
	LastLoginAt     *time.Time  `json:"last_login_at" db:"last_login_at"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
}

// HasPassword reports whether the account can authenticate locally
func (a *Account) HasPassword() bool {
	return a.PasswordHash != nil && *a.PasswordHash != ""
}

// IsFederated reports whether the account was linked to an external identity provider
func (a *Account) IsFederated() bool {
	return a.FederatedID != nil && *a.FederatedID != ""
}

// HasPendingReset reports whether a reset token is stored and not yet expired.
// An expired token is treated as absent.
func (a *Account) HasPendingReset(now time.Time) bool {
	return a.ResetTokenHash != nil && a.ResetTokenExp != nil && now.Before(*a.ResetTokenExp)
}

// Address is a saved shipping or billing address
type Address struct {
	Label      string `json:"label,omitempty"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"is_default,omitempty"`
}

type Preferences struct {
	Newsletter bool   `json:"newsletter"`
	Currency   string `json:"currency,omitempty"`
	Language   string `json:"language,omitempty"`
}

type Stats struct {
	TotalOrders int     `json:"total_orders"`
	TotalSpent  float64 `json:"total_spent"`
}

// PublicProfile is the only account shape serialized outward
type PublicProfile struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	Phone           *string     `json:"phone"`
	Role            string      `json:"role"`
	IsEmailVerified bool        `json:"is_email_verified"`
	Tier            string      `json:"tier"`
	LastLoginAt     *time.Time  `json:"last_login_at"`
	ProfileImage    *string     `json:"profile_image"`
	Addresses       []Address   `json:"addresses"`
	Preferences     Preferences `json:"preferences"`
	Stats           Stats       `json:"stats"`
	CreatedAt       time.Time   `json:"created_at"`
}

// Profile returns the public subset of the account
func (a *Account) Profile() PublicProfile {
	addresses := a.Addresses
	if addresses == nil {
		addresses = []Address{}
	}

	return PublicProfile{
		ID:              a.ID,
		Name:            a.Name,
		Email:           a.Email,
		Phone:           a.Phone,
		Role:            a.Role,
		IsEmailVerified: a.IsEmailVerified,
		Tier:            a.Tier,
		LastLoginAt:     a.LastLoginAt,
		ProfileImage:    a.ProfileImage,
		Addresses:       addresses,
		Preferences:     a.Preferences,
		Stats:           a.Stats,
		CreatedAt:       a.CreatedAt,
	}
}
