// Package settings maps the stored key/value settings onto a typed struct.
// Every known key is declared once in schema with its kind and default.
package settings

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/pkg/money"
)

type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindBool   Kind = "bool"
	KindMoney  Kind = "money"
	KindList   Kind = "list"
)

type StoreSettings struct {
	StoreName             string   `json:"store_name"`
	Tagline               string   `json:"tagline"`
	HeroTitle             string   `json:"hero_title"`
	HeroSubtitle          string   `json:"hero_subtitle"`
	AnnouncementBar       string   `json:"announcement_bar"`
	ContactEmail          string   `json:"contact_email"`
	Currency              string   `json:"currency"`
	ShippingCost          int64    `json:"shipping_cost"`
	FreeShippingThreshold int64    `json:"free_shipping_threshold"`
	ShippingCountries     []string `json:"shipping_countries"`
	ReturnWindowDays      int      `json:"return_window_days"`
	ProductsPerPage       int      `json:"products_per_page"`
	ShowReviews           bool     `json:"show_reviews"`
	PlaceholderImage      string   `json:"placeholder_image"`
}

type Field struct {
	Key     string
	Kind    Kind
	Default string
	set     func(s *StoreSettings, raw string) error
}

// schema order matters: currency is applied before the money fields that depend on it.
var schema = []Field{
	{Key: "store_name", Kind: KindString, Default: "Storefront", set: func(s *StoreSettings, v string) error { s.StoreName = v; return nil }},
	{Key: "tagline", Kind: KindString, Default: "", set: func(s *StoreSettings, v string) error { s.Tagline = v; return nil }},
	{Key: "hero_title", Kind: KindString, Default: "New season essentials", set: func(s *StoreSettings, v string) error { s.HeroTitle = v; return nil }},
	{Key: "hero_subtitle", Kind: KindString, Default: "", set: func(s *StoreSettings, v string) error { s.HeroSubtitle = v; return nil }},
	{Key: "announcement_bar", Kind: KindString, Default: "", set: func(s *StoreSettings, v string) error { s.AnnouncementBar = v; return nil }},
	{Key: "contact_email", Kind: KindString, Default: "support@example.com", set: func(s *StoreSettings, v string) error { s.ContactEmail = v; return nil }},
	{Key: "currency", Kind: KindString, Default: "usd", set: setCurrency},
	{Key: "shipping_cost", Kind: KindMoney, Default: "9.99", set: moneySetter(func(s *StoreSettings, n int64) { s.ShippingCost = n })},
	{Key: "free_shipping_threshold", Kind: KindMoney, Default: "100.00", set: moneySetter(func(s *StoreSettings, n int64) { s.FreeShippingThreshold = n })},
	{Key: "shipping_countries", Kind: KindList, Default: "US,CA", set: setCountries},
	{Key: "return_window_days", Kind: KindInt, Default: "30", set: intSetter(func(s *StoreSettings, n int) { s.ReturnWindowDays = n })},
	{Key: "products_per_page", Kind: KindInt, Default: "12", set: intSetter(func(s *StoreSettings, n int) { s.ProductsPerPage = n })},
	{Key: "show_reviews", Kind: KindBool, Default: "true", set: func(s *StoreSettings, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		s.ShowReviews = b
		return nil
	}},
	{Key: "placeholder_image", Kind: KindString, Default: "/placeholder.svg", set: func(s *StoreSettings, v string) error { s.PlaceholderImage = v; return nil }},
}

var (
	currencyRe = regexp.MustCompile(`^[a-z]{3}$`)
	countryRe  = regexp.MustCompile(`^[A-Z]{2}$`)
	keyRe      = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]{0,127}$`)
)

func setCurrency(s *StoreSettings, v string) error {
	v = strings.ToLower(strings.TrimSpace(v))
	if !currencyRe.MatchString(v) {
		return fmt.Errorf("currency must be a 3-letter ISO code")
	}
	s.Currency = v
	return nil
}

func setCountries(s *StoreSettings, v string) error {
	var out []string
	for _, c := range strings.Split(v, ",") {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if !countryRe.MatchString(c) {
			return fmt.Errorf("invalid country code %q", c)
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return fmt.Errorf("at least one country required")
	}
	s.ShippingCountries = out
	return nil
}

func moneySetter(assign func(*StoreSettings, int64)) func(*StoreSettings, string) error {
	return func(s *StoreSettings, v string) error {
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		if d.IsNegative() {
			return fmt.Errorf("amount must not be negative")
		}
		assign(s, money.FromDecimal(d, s.Currency))
		return nil
	}
}

func intSetter(assign func(*StoreSettings, int)) func(*StoreSettings, string) error {
	return func(s *StoreSettings, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("value must not be negative")
		}
		assign(s, n)
		return nil
	}
}

func Schema() []Field {
	out := make([]Field, len(schema))
	copy(out, schema)
	return out
}

func lookup(key string) (Field, bool) {
	for _, f := range schema {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

func Known(key string) bool {
	_, ok := lookup(key)
	return ok
}

// Defaults returns the settings with every field at its declared default.
func Defaults() StoreSettings {
	s, _ := Load(nil)
	return s
}

// Invalid describes a stored value that could not be parsed and was replaced by its default.
type Invalid struct {
	Key   string
	Value string
	Err   error
}

// Load fills StoreSettings from stored values. Missing keys, null values and
// values that fail to parse fall back to their defaults.
func Load(values map[string]*string) (StoreSettings, []Invalid) {
	var s StoreSettings
	var invalid []Invalid
	for _, f := range schema {
		if v, ok := values[f.Key]; ok && v != nil {
			err := f.set(&s, *v)
			if err == nil {
				continue
			}
			invalid = append(invalid, Invalid{Key: f.Key, Value: *v, Err: err})
		}
		if err := f.set(&s, f.Default); err != nil {
			panic(fmt.Sprintf("settings: bad default for %s: %v", f.Key, err))
		}
	}
	return s, invalid
}

// Validate checks a key and value before they are stored. Unknown keys are
// free-form page copy and only need a well-formed key.
func Validate(key, value string) error {
	if !keyRe.MatchString(key) {
		return fmt.Errorf("invalid setting key %q", key)
	}
	f, ok := lookup(key)
	if !ok {
		return nil
	}
	probe := Defaults()
	if err := f.set(&probe, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func ValidKey(key string) bool {
	return keyRe.MatchString(key)
}
