package rates

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed currencies.yaml
var currenciesYAML []byte

// Country describes one supported country for the price display.
type Country struct {
	Name         string  `yaml:"name"`
	Flag         string  `yaml:"flag"`
	Currency     string  `yaml:"currency"`
	Symbol       string  `yaml:"symbol"`
	FallbackRate float64 `yaml:"fallback_rate"`
}

type currencyTable struct {
	Base      string             `yaml:"base"`
	Countries map[string]Country `yaml:"countries"`
}

var table currencyTable

func init() {
	if err := yaml.Unmarshal(currenciesYAML, &table); err != nil {
		panic(fmt.Sprintf("rates: invalid embedded currency table: %v", err))
	}
	if table.Base == "" || len(table.Countries) == 0 {
		panic("rates: embedded currency table is incomplete")
	}
}

// BaseCurrency is the currency product prices are stored in.
func BaseCurrency() string {
	return table.Base
}

// Countries returns the supported country display table keyed by country id.
func Countries() map[string]Country {
	out := make(map[string]Country, len(table.Countries))
	for id, c := range table.Countries {
		out[id] = c
	}
	return out
}

// FallbackRates returns the static conversion factors for every non-base
// currency.
func FallbackRates() map[string]float64 {
	out := map[string]float64{}
	for _, c := range table.Countries {
		if c.Currency == table.Base {
			continue
		}
		out[c.Currency] = c.FallbackRate
	}
	return out
}

// RequiredCurrencies lists the non-base currency codes the cache must hold
// to be considered usable, in stable order.
func RequiredCurrencies() []string {
	var codes []string
	for code := range FallbackRates() {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
