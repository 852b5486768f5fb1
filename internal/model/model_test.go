package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestShopStateDecodeKeyedMaps(t *testing.T) {
	raw := `{
		"products": {"p1": {"id": "p1", "name": "VIP", "price": 100, "enabled": true}},
		"purchases": {"b1": {"id": "b1", "user_id": "u1", "product_id": "p1", "price_paid": 100, "active": true}},
		"settings": {"enabled": true, "tax_rate": 0}
	}`

	var state ShopState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if state.Migrated {
		t.Error("well-formed state should not be marked migrated")
	}
	if got := state.Products["p1"].Name; got != "VIP" {
		t.Errorf("expected product name VIP, got %q", got)
	}
	if got := state.Purchases["b1"].PricePaid; got != 100 {
		t.Errorf("expected price_paid 100, got %d", got)
	}
}

func TestShopStateUpgradesLegacyArrays(t *testing.T) {
	raw := `{
		"products": [{"id": "a", "name": "First", "price": 10}, {"id": "b", "name": "Second", "price": 20}],
		"purchases": [{"id": "x", "user_id": "u1", "active": true}],
		"settings": {"enabled": true}
	}`

	var state ShopState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !state.Migrated {
		t.Fatal("legacy array shape should be reported as migrated")
	}
	if len(state.Products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(state.Products))
	}
	if state.Products["0"].Name != "First" || state.Products["1"].Name != "Second" {
		t.Errorf("products not keyed by index: %+v", state.Products)
	}
	if state.Purchases["0"].UserID != "u1" {
		t.Errorf("purchases not keyed by index: %+v", state.Purchases)
	}
}

func TestShopStateResetsGarbageShapes(t *testing.T) {
	raw := `{"products": "oops", "purchases": 42, "settings": {"enabled": true}}`

	var state ShopState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !state.Migrated {
		t.Error("garbage shapes should be reported as migrated")
	}
	if len(state.Products) != 0 || len(state.Purchases) != 0 {
		t.Errorf("garbage shapes should reset to empty maps, got %d products, %d purchases",
			len(state.Products), len(state.Purchases))
	}
}

func TestDocumentPreservesUnknownSubtrees(t *testing.T) {
	raw := `{
		"virtual_shop": {"products": {}, "purchases": {}, "settings": {"enabled": true, "tax_rate": 0}},
		"economy": {"u1": 500},
		"payment_info": {"paypal": "someone@example.com"},
		"reminders": [1, 2, 3]
	}`

	doc := &Document{}
	if err := json.Unmarshal([]byte(raw), doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Economy["u1"] != 500 {
		t.Errorf("expected economy balance 500, got %d", doc.Economy["u1"])
	}

	out, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var round map[string]json.RawMessage
	if err := json.Unmarshal(out, &round); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}
	for _, key := range []string{"payment_info", "reminders", "virtual_shop", "economy"} {
		if _, ok := round[key]; !ok {
			t.Errorf("subtree %q lost in round trip", key)
		}
	}
	if string(round["payment_info"]) != `{"paypal":"someone@example.com"}` {
		t.Errorf("payment_info rewritten: %s", round["payment_info"])
	}
}

func TestRateCacheValidity(t *testing.T) {
	now := time.Now()
	required := []string{"ARS", "COP"}

	cases := []struct {
		name  string
		cache *RateCache
		want  bool
	}{
		{"nil cache", nil, false},
		{"fresh with all currencies", &RateCache{
			Rates:       map[string]float64{"ARS": 70, "COP": 200},
			LastUpdated: now.Add(-10 * time.Minute),
		}, true},
		{"expired", &RateCache{
			Rates:       map[string]float64{"ARS": 70, "COP": 200},
			LastUpdated: now.Add(-2 * time.Hour),
		}, false},
		{"missing currency", &RateCache{
			Rates:       map[string]float64{"ARS": 70},
			LastUpdated: now.Add(-10 * time.Minute),
		}, false},
		{"zero timestamp", &RateCache{
			Rates: map[string]float64{"ARS": 70, "COP": 200},
		}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.cache.Valid(now, time.Hour, required); got != tc.want {
				t.Errorf("Valid() = %v, want %v", got, tc.want)
			}
		})
	}
}
