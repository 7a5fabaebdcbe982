package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// ShippingAddress is a value object representing a recipient address.
// Marketplace syncs may deliver orders before the full address is known,
// so a partially filled address is legal; completeness is checked
// explicitly before rate shopping or label purchase.
type ShippingAddress struct {
	street1    string
	street2    string
	city       string
	state      string
	postalCode string
	country    string
	phone      string
}

// AddressOption is a functional option for configuring ShippingAddress
type AddressOption func(*ShippingAddress)

// WithStreet2 sets the second street line
func WithStreet2(street2 string) AddressOption {
	return func(a *ShippingAddress) {
		a.street2 = strings.TrimSpace(street2)
	}
}

// WithPhone sets the contact phone number
func WithPhone(phone string) AddressOption {
	return func(a *ShippingAddress) {
		a.phone = strings.TrimSpace(phone)
	}
}

// NewShippingAddress creates a new ShippingAddress. Fields may be empty;
// only length limits are enforced here.
func NewShippingAddress(street1, city, state, postalCode, country string, opts ...AddressOption) (ShippingAddress, error) {
	addr := ShippingAddress{
		street1:    strings.TrimSpace(street1),
		city:       strings.TrimSpace(city),
		state:      strings.TrimSpace(state),
		postalCode: strings.TrimSpace(postalCode),
		country:    strings.ToUpper(strings.TrimSpace(country)),
	}
	for _, opt := range opts {
		opt(&addr)
	}

	for name, v := range map[string]struct {
		value string
		max   int
	}{
		"street1":     {addr.street1, 200},
		"street2":     {addr.street2, 200},
		"city":        {addr.city, 100},
		"state":       {addr.state, 100},
		"postal code": {addr.postalCode, 20},
		"country":     {addr.country, 2},
		"phone":       {addr.phone, 30},
	} {
		if len(v.value) > v.max {
			return ShippingAddress{}, fmt.Errorf("%s cannot exceed %d characters", name, v.max)
		}
	}

	return addr, nil
}

// MustNewShippingAddress creates a new ShippingAddress, panics on error
func MustNewShippingAddress(street1, city, state, postalCode, country string, opts ...AddressOption) ShippingAddress {
	addr, err := NewShippingAddress(street1, city, state, postalCode, country, opts...)
	if err != nil {
		panic(err)
	}
	return addr
}

// EmptyShippingAddress returns an empty address
func EmptyShippingAddress() ShippingAddress {
	return ShippingAddress{}
}

// Street1 returns the first street line
func (a ShippingAddress) Street1() string { return a.street1 }

// Street2 returns the second street line
func (a ShippingAddress) Street2() string { return a.street2 }

// City returns the city
func (a ShippingAddress) City() string { return a.city }

// State returns the state or province code
func (a ShippingAddress) State() string { return a.state }

// PostalCode returns the postal code
func (a ShippingAddress) PostalCode() string { return a.postalCode }

// Country returns the ISO-3166 country code
func (a ShippingAddress) Country() string { return a.country }

// Phone returns the contact phone number
func (a ShippingAddress) Phone() string { return a.phone }

// IsEmpty returns true if every field is blank
func (a ShippingAddress) IsEmpty() bool {
	return a.street1 == "" && a.city == "" && a.state == "" &&
		a.postalCode == "" && a.country == ""
}

// IsComplete reports whether the address carries everything a carrier
// needs to quote or purchase a label.
func (a ShippingAddress) IsComplete() bool {
	return a.street1 != "" && a.city != "" && a.postalCode != "" && a.country != ""
}

// OneLine returns the address as a single formatted line
func (a ShippingAddress) OneLine() string {
	if a.IsEmpty() {
		return ""
	}
	parts := make([]string, 0, 6)
	for _, p := range []string{a.street1, a.street2, a.city, a.state, a.postalCode, a.country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// String returns a string representation of the address
func (a ShippingAddress) String() string {
	return a.OneLine()
}

// Equals returns true if both addresses are equal
func (a ShippingAddress) Equals(other ShippingAddress) bool {
	return a == other
}

// addressJSON is used for JSON marshaling/unmarshaling
type addressJSON struct {
	Street1    string `json:"street1"`
	Street2    string `json:"street2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (a ShippingAddress) MarshalJSON() ([]byte, error) {
	return json.Marshal(addressJSON{
		Street1:    a.street1,
		Street2:    a.street2,
		City:       a.city,
		State:      a.state,
		PostalCode: a.postalCode,
		Country:    a.country,
		Phone:      a.phone,
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (a *ShippingAddress) UnmarshalJSON(data []byte) error {
	var v addressJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	addr, err := NewShippingAddress(v.Street1, v.City, v.State, v.PostalCode, v.Country,
		WithStreet2(v.Street2), WithPhone(v.Phone))
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// Value implements driver.Valuer for database storage as a JSON column
func (a ShippingAddress) Value() (driver.Value, error) {
	if a.IsEmpty() {
		return nil, nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner for database retrieval
func (a *ShippingAddress) Scan(value any) error {
	if value == nil {
		*a = EmptyShippingAddress()
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into ShippingAddress", value)
	}

	if len(data) == 0 || string(data) == "null" {
		*a = EmptyShippingAddress()
		return nil
	}
	return json.Unmarshal(data, a)
}
