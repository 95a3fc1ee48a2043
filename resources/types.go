package resources

import (
	"bytes"
	"encoding/json"

	"github.com/jrsteele09/spares-console/users"
)

// ID is the API's identifier, a number or a string on the wire.
type ID = users.ID

// FlexBool decodes any JSON value by script truthiness: false, 0, "", null and NaN are
// false, everything else is true.
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "", "null", "false", `""`:
		*b = false
		return nil
	case "true":
		*b = true
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*b = n != 0
		return nil
	}
	// non-empty strings, arrays and objects
	*b = true
	return nil
}

// Amount keeps a price or quantity exactly as the API sent it, number or string.
type Amount string

func (a *Amount) UnmarshalJSON(data []byte) error {
	var id users.ID
	if err := id.UnmarshalJSON(data); err != nil {
		return err
	}
	*a = Amount(id)
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if a == "" {
		return []byte("null"), nil
	}
	var n json.Number
	if err := json.Unmarshal([]byte(a), &n); err == nil {
		return []byte(a), nil
	}
	return json.Marshal(string(a))
}

type Part struct {
	ID           ID       `json:"id,omitempty"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	PartNumber   string   `json:"part_number,omitempty"`
	Price        Amount   `json:"price,omitempty"`
	Availability FlexBool `json:"availability"`
	CategoryID   ID       `json:"category_id,omitempty"`
	VendorID     ID       `json:"vendor_id,omitempty"`
	Images       []string `json:"images,omitempty"`
	CreatedAt    string   `json:"created_at,omitempty"`
}

type Category struct {
	ID          ID     `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ParentID    ID     `json:"parent_id,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

type Vendor struct {
	ID           ID       `json:"id,omitempty"`
	BusinessName string   `json:"business_name,omitempty"`
	Email        string   `json:"email,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	Address      string   `json:"address,omitempty"`
	IsVerified   FlexBool `json:"is_verified"`
	UserID       ID       `json:"user_id,omitempty"`
	CreatedAt    string   `json:"created_at,omitempty"`
}

type PickupPoint struct {
	ID        ID     `json:"id,omitempty"`
	Name      string `json:"name"`
	Address   string `json:"address,omitempty"`
	City      string `json:"city,omitempty"`
	Phone     string `json:"phone,omitempty"`
	VendorID  ID     `json:"vendor_id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}
