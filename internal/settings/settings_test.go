package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestDefaults(t *testing.T) {
	s := Defaults()

	assert.Equal(t, "Storefront", s.StoreName)
	assert.Equal(t, "usd", s.Currency)
	assert.Equal(t, int64(999), s.ShippingCost)
	assert.Equal(t, int64(10000), s.FreeShippingThreshold)
	assert.Equal(t, []string{"US", "CA"}, s.ShippingCountries)
	assert.True(t, s.ShowReviews)
	assert.Equal(t, 12, s.ProductsPerPage)
}

func TestLoad_OverridesAndFallbacks(t *testing.T) {
	s, invalid := Load(map[string]*string{
		"store_name":         ptr("Northwind Goods"),
		"hero_title":         nil,
		"shipping_cost":      ptr("4.50"),
		"products_per_page":  ptr("lots"),
		"show_reviews":       ptr("false"),
		"shipping_countries": ptr("us, gb"),
		"footer_copy":        ptr("free-form"),
	})

	assert.Equal(t, "Northwind Goods", s.StoreName)
	assert.Equal(t, "New season essentials", s.HeroTitle)
	assert.Equal(t, int64(450), s.ShippingCost)
	assert.Equal(t, 12, s.ProductsPerPage)
	assert.False(t, s.ShowReviews)
	assert.Equal(t, []string{"US", "GB"}, s.ShippingCountries)

	require.Len(t, invalid, 1)
	assert.Equal(t, "products_per_page", invalid[0].Key)
}

func TestLoad_MoneyUsesLoadedCurrency(t *testing.T) {
	s, invalid := Load(map[string]*string{
		"currency":      ptr("JPY"),
		"shipping_cost": ptr("800"),
	})

	require.Empty(t, invalid)
	assert.Equal(t, "jpy", s.Currency)
	assert.Equal(t, int64(800), s.ShippingCost)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr bool
	}{
		{name: "known string", key: "store_name", value: "Shop"},
		{name: "known money", key: "shipping_cost", value: "12.00"},
		{name: "negative money", key: "shipping_cost", value: "-1", wantErr: true},
		{name: "bad bool", key: "show_reviews", value: "maybe", wantErr: true},
		{name: "bad currency", key: "currency", value: "dollars", wantErr: true},
		{name: "unknown key", key: "about_page.body", value: "anything"},
		{name: "malformed key", key: "Bad Key", value: "x", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Validate(tt.key, tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestKnown(t *testing.T) {
	assert.True(t, Known("currency"))
	assert.False(t, Known("nope"))
	assert.Len(t, Schema(), len(schema))
}
