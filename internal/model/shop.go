package model

import (
	"encoding/json"
	"strconv"
	"time"
)

// Category classifies a product in the storefront.
type Category string

const (
	CategoryRoles     Category = "roles"
	CategoryPerks     Category = "perks"
	CategoryItems     Category = "items"
	CategoryCosmetics Category = "cosmetics"
	CategoryOther     Category = "other"
)

// CategoryInfo is the display metadata for one category.
type CategoryInfo struct {
	Name  string
	Emoji string
}

// Categories is the fixed set of storefront categories in display order.
var Categories = map[Category]CategoryInfo{
	CategoryRoles:     {Name: "Roles", Emoji: "🎭"},
	CategoryPerks:     {Name: "Perks", Emoji: "⭐"},
	CategoryItems:     {Name: "Items", Emoji: "🎁"},
	CategoryCosmetics: {Name: "Cosmetics", Emoji: "✨"},
	CategoryOther:     {Name: "Other", Emoji: "📦"},
}

// NormalizeCategory maps unknown category values onto CategoryOther.
func NormalizeCategory(c Category) Category {
	if _, ok := Categories[c]; ok {
		return c
	}
	return CategoryOther
}

// Product is a purchasable storefront entry. Prices are GameCoins.
type Product struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Price          int64     `json:"price"`
	Description    string    `json:"description"`
	Category       Category  `json:"category"`
	ImageURL       string    `json:"image_url,omitempty"`
	RoleID         string    `json:"role_id,omitempty"`
	DurationDays   int       `json:"duration_days,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	Enabled        bool      `json:"enabled"`
	PurchasesCount int64     `json:"purchases_count"`
}

// Purchase is an immutable record of one completed transaction. ProductName
// and PricePaid are snapshots so later product edits do not rewrite history.
// Only Active may change, when a time-limited purchase expires.
type Purchase struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	PricePaid   int64     `json:"price_paid"`
	PurchasedAt time.Time `json:"purchased_at"`
	Active      bool      `json:"active"`
}

// Settings holds storefront-wide switches.
type Settings struct {
	Enabled bool    `json:"enabled"`
	TaxRate float64 `json:"tax_rate"`
}

// ShopState is the virtual_shop subtree of the shared document.
//
// Migrated reports that a legacy or corrupt stored shape (arrays where maps
// belong) was repaired while decoding; the caller is expected to persist the
// repaired document once.
type ShopState struct {
	Products  map[string]*Product  `json:"products"`
	Purchases map[string]*Purchase `json:"purchases"`
	Settings  Settings             `json:"settings"`

	Migrated bool `json:"-"`
}

// NewShopState returns an empty, enabled shop.
func NewShopState() *ShopState {
	return &ShopState{
		Products:  map[string]*Product{},
		Purchases: map[string]*Purchase{},
		Settings:  Settings{Enabled: true},
	}
}

type shopStateWire struct {
	Products  json.RawMessage `json:"products"`
	Purchases json.RawMessage `json:"purchases"`
	Settings  *Settings       `json:"settings"`
}

// UnmarshalJSON decodes the subtree and upgrades legacy list-shaped products
// and purchases to id-keyed maps. Anything unreadable resets to an empty map
// rather than failing the whole document load.
func (s *ShopState) UnmarshalJSON(b []byte) error {
	var wire shopStateWire
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}

	products, migrated := decodeKeyed[Product](wire.Products)
	s.Products = products
	s.Migrated = s.Migrated || migrated

	purchases, migrated := decodeKeyed[Purchase](wire.Purchases)
	s.Purchases = purchases
	s.Migrated = s.Migrated || migrated

	if wire.Settings != nil {
		s.Settings = *wire.Settings
	} else {
		s.Settings = Settings{Enabled: true}
		s.Migrated = true
	}
	return nil
}

// decodeKeyed reads a map keyed by id, upgrading a legacy array to an
// index-keyed map. The second result reports whether a repair happened.
func decodeKeyed[T any](raw json.RawMessage) (map[string]*T, bool) {
	if len(raw) == 0 {
		return map[string]*T{}, true
	}

	var keyed map[string]*T
	if err := json.Unmarshal(raw, &keyed); err == nil {
		if keyed == nil {
			return map[string]*T{}, true
		}
		return keyed, false
	}

	var list []*T
	if err := json.Unmarshal(raw, &list); err == nil {
		keyed = make(map[string]*T, len(list))
		for i, item := range list {
			if item == nil {
				continue
			}
			keyed[strconv.Itoa(i)] = item
		}
		return keyed, true
	}

	return map[string]*T{}, true
}
