package ebay

import (
	"strings"
	"time"
)

// Credentials is a user-supplied eBay developer application identity. Every
// linked account keeps the triple it was obtained with; refresh calls must
// reuse it.
type Credentials struct {
	AppID  string `json:"appId"`
	CertID string `json:"certId"`
	DevID  string `json:"devId"`
}

// Complete reports whether all three credential fields are present.
func (c Credentials) Complete() bool {
	return strings.TrimSpace(c.AppID) != "" &&
		strings.TrimSpace(c.CertID) != "" &&
		strings.TrimSpace(c.DevID) != ""
}

// PendingAuth bridges OAuth initiation and callback for one user. Exactly one
// pending context exists per user; a new initiation overwrites the previous
// one and the callback consumes it exactly once.
type PendingAuth struct {
	Credentials Credentials `json:"credentials"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Account binds one platform user to one remote eBay seller identity together
// with its token pair and the credential triple used to obtain it.
type Account struct {
	ID           int64
	UserID       int64
	EbayUserID   string
	AccessToken  string
	RefreshToken string
	TokenExpiry  time.Time
	Credentials  Credentials
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TokenResponse models the eBay token endpoint response for both the
// authorization_code and refresh_token grants.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// UserInfo is the seller identity returned by the account API.
type UserInfo struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// InventoryItem is one listing returned by the Sell Inventory API.
type InventoryItem struct {
	SKU       string         `json:"sku"`
	Locale    string         `json:"locale,omitempty"`
	Condition string         `json:"condition,omitempty"`
	Product   map[string]any `json:"product,omitempty"`
}

// Inventory is a page of inventory items.
type Inventory struct {
	Items []InventoryItem `json:"inventoryItems"`
	Total int             `json:"total"`
}

// PricingRule describes how an item's price should follow the market.
// Data shape only; repricing itself is out of scope for this service.
type PricingRule struct {
	ID              int64
	UserID          int64
	AccountID       int64
	ItemID          string
	RuleType        string
	PriceAction     string
	PriceAdjustment float64
	MinPrice        float64
	MaxPrice        float64
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Competitor is a tracked rival listing for one of the user's items.
type Competitor struct {
	ID               int64
	UserID           int64
	AccountID        int64
	ItemID           string
	CompetitorItemID string
	CompetitorTitle  string
	CompetitorPrice  float64
	CompetitorSeller string
	PriceRange       float64
	LastChecked      time.Time
}

// PriceLog records the outcome of a single price update attempt.
type PriceLog struct {
	ID              int64
	UserID          int64
	AccountID       int64
	ItemID          string
	OldPrice        float64
	NewPrice        float64
	Status          string
	Reason          string
	CompetitorPrice float64
	UpdateDate      time.Time
}
