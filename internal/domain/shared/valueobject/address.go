package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/playhub/backend/internal/domain/shared"
)

// ShippingAddress is where physical goods of an order are sent
type ShippingAddress struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"` // ISO 3166-1 alpha-2
	Phone      string `json:"phone,omitempty"`
}

// Normalize trims fields and upper-cases the country code
func (a ShippingAddress) Normalize() ShippingAddress {
	return ShippingAddress{
		Name:       strings.TrimSpace(a.Name),
		Line1:      strings.TrimSpace(a.Line1),
		Line2:      strings.TrimSpace(a.Line2),
		City:       strings.TrimSpace(a.City),
		State:      strings.TrimSpace(a.State),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.ToUpper(strings.TrimSpace(a.Country)),
		Phone:      strings.TrimSpace(a.Phone),
	}
}

// Validate checks required fields and lengths
func (a ShippingAddress) Validate() error {
	required := []struct {
		field, value string
		max          int
	}{
		{"name", a.Name, 100},
		{"line1", a.Line1, 200},
		{"city", a.City, 100},
		{"postal_code", a.PostalCode, 20},
	}
	for _, r := range required {
		if r.value == "" {
			return shared.ErrInvalidInput.WithMessage(fmt.Sprintf("shipping address %s is required", r.field))
		}
		if len(r.value) > r.max {
			return shared.ErrInvalidInput.WithMessage(fmt.Sprintf("shipping address %s is too long", r.field))
		}
	}
	if len(a.Country) != 2 {
		return shared.ErrInvalidInput.WithMessage("shipping address country must be a 2-letter ISO code")
	}
	for _, r := range a.Country {
		if r < 'A' || r > 'Z' {
			return shared.ErrInvalidInput.WithMessage("shipping address country must be a 2-letter ISO code")
		}
	}
	if len(a.Line2) > 200 || len(a.State) > 100 || len(a.Phone) > 30 {
		return shared.ErrInvalidInput.WithMessage("shipping address field is too long")
	}
	return nil
}

// IsZero reports whether no field is set
func (a ShippingAddress) IsZero() bool {
	return a == ShippingAddress{}
}

// Value implements driver.Valuer, storing the address as JSON
func (a ShippingAddress) Value() (driver.Value, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (a *ShippingAddress) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*a = ShippingAddress{}
		return nil
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("cannot scan %T into ShippingAddress", value)
	}
}
