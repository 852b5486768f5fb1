package model

import "encoding/json"

const (
	keyVirtualShop   = "virtual_shop"
	keyExchangeRates = "exchange_rates"
	keyEconomy       = "economy"
)

// Document is the whole process-wide data file. The shop core owns the
// virtual_shop, exchange_rates and economy subtrees; any other subtree
// (payment info, reminders, ...) belongs to other bot features and must
// survive a load/save cycle byte for byte.
type Document struct {
	VirtualShop   *ShopState
	ExchangeRates *RateCache
	Economy       map[string]int64

	extra map[string]json.RawMessage
}

// NewDocument returns an empty document with all owned subtrees initialised.
func NewDocument() *Document {
	return &Document{
		VirtualShop: NewShopState(),
		Economy:     map[string]int64{},
	}
}

// Shop returns the virtual_shop subtree, initialising it on first access.
func (d *Document) Shop() *ShopState {
	if d.VirtualShop == nil {
		d.VirtualShop = NewShopState()
	}
	return d.VirtualShop
}

// UnmarshalJSON splits the raw document into the owned, typed subtrees and a
// passthrough for everything else.
func (d *Document) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	d.VirtualShop = nil
	d.ExchangeRates = nil
	d.Economy = map[string]int64{}
	d.extra = map[string]json.RawMessage{}

	for key, val := range raw {
		switch key {
		case keyVirtualShop:
			shop := &ShopState{}
			if err := json.Unmarshal(val, shop); err != nil {
				shop = NewShopState()
				shop.Migrated = true
			}
			d.VirtualShop = shop
		case keyExchangeRates:
			cache := &RateCache{}
			if err := json.Unmarshal(val, cache); err == nil {
				d.ExchangeRates = cache
			}
		case keyEconomy:
			if err := json.Unmarshal(val, &d.Economy); err != nil {
				d.Economy = map[string]int64{}
			}
		default:
			d.extra[key] = val
		}
	}
	return nil
}

// MarshalJSON reassembles the owned subtrees and the untouched remainder.
func (d *Document) MarshalJSON() ([]byte, error) {
	raw := make(map[string]json.RawMessage, len(d.extra)+3)
	for key, val := range d.extra {
		raw[key] = val
	}

	if d.VirtualShop != nil {
		b, err := json.Marshal(struct {
			Products  map[string]*Product  `json:"products"`
			Purchases map[string]*Purchase `json:"purchases"`
			Settings  Settings             `json:"settings"`
		}{d.VirtualShop.Products, d.VirtualShop.Purchases, d.VirtualShop.Settings})
		if err != nil {
			return nil, err
		}
		raw[keyVirtualShop] = b
	}
	if d.ExchangeRates != nil {
		b, err := json.Marshal(d.ExchangeRates)
		if err != nil {
			return nil, err
		}
		raw[keyExchangeRates] = b
	}
	if d.Economy != nil {
		b, err := json.Marshal(d.Economy)
		if err != nil {
			return nil, err
		}
		raw[keyEconomy] = b
	}

	return json.Marshal(raw)
}
