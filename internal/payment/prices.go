package payment

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// PriceTable maps catalog product ids to processor price ids.
type PriceTable struct {
	Currency string            `yaml:"currency"`
	Prices   map[string]string `yaml:"prices"`
}

func LoadPriceTable(path string) (*PriceTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read price table %s: %w", path, err)
	}
	t, err := ParsePriceTable(data)
	if err != nil {
		return nil, fmt.Errorf("price table %s: %w", path, err)
	}
	return t, nil
}

func ParsePriceTable(data []byte) (*PriceTable, error) {
	var t PriceTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	applyDefaults(&t)

	for productID, priceID := range t.Prices {
		if strings.TrimSpace(priceID) == "" {
			return nil, fmt.Errorf("product %s has an empty price id", productID)
		}
	}
	return &t, nil
}

func applyDefaults(t *PriceTable) {
	if t.Currency == "" {
		t.Currency = "usd"
	}
	t.Currency = strings.ToLower(t.Currency)

	normalized := make(map[string]string, len(t.Prices))
	for k, v := range t.Prices {
		normalized[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	t.Prices = normalized
}

func (t *PriceTable) Lookup(productID string) (string, error) {
	if t != nil {
		if id, ok := t.Prices[strings.ToLower(strings.TrimSpace(productID))]; ok {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownProduct, productID)
}
