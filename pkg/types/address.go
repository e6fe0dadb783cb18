package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Address is a shipping destination persisted as JSON on the order row.
type Address struct {
	RecipientName string  `json:"recipient_name" validate:"required"`
	Phone         string  `json:"phone" validate:"required"`
	Line1         string  `json:"line1" validate:"required"`
	Line2         *string `json:"line2,omitempty"`
	City          string  `json:"city" validate:"required"`
	Region        string  `json:"region,omitempty"`
	PostalCode    string  `json:"postal_code,omitempty"`
	Country       string  `json:"country" validate:"required,len=2"`
}

// MissingFields lists required fields that are blank.
func (a Address) MissingFields() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"recipient_name", a.RecipientName},
		{"phone", a.Phone},
		{"line1", a.Line1},
		{"city", a.City},
		{"country", a.Country},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Value marshals Address into JSON.
func (a Address) Value() (driver.Value, error) {
	buf, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

// Scan decodes a JSON column into Address.
func (a *Address) Scan(value interface{}) error {
	raw, err := scanBytes("address", value)
	if err != nil || raw == nil {
		return err
	}
	return json.Unmarshal(raw, a)
}

// SelectedOptions holds buyer-chosen product variants (e.g. "side": "left").
type SelectedOptions map[string]string

// Value marshals the map into JSON.
func (o SelectedOptions) Value() (driver.Value, error) {
	if o == nil {
		return "{}", nil
	}
	buf, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

// Scan decodes JSON into the map.
func (o *SelectedOptions) Scan(value interface{}) error {
	raw, err := scanBytes("selected options", value)
	if err != nil {
		return err
	}
	if raw == nil {
		*o = nil
		return nil
	}
	result := make(SelectedOptions)
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*o = result
	return nil
}

// Equal compares option sets, treating nil and empty as equal.
func (o SelectedOptions) Equal(other SelectedOptions) bool {
	if len(o) != len(other) {
		return false
	}
	for k, v := range o {
		if other[k] != v {
			return false
		}
	}
	return true
}

func scanBytes(name string, value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("%s: unsupported scan type %T", name, value)
	}
}
