package jsonx

import "encoding/json"

// NullableString distinguishes three states of a JSON string field:
// absent, explicitly null, and a concrete value. Plain *string collapses
// absent and null into nil, which loses the "clear this field" intent.
type NullableString struct {
	Set   bool   // field appeared in the JSON document
	Valid bool   // field held a non-null value
	Value string // the value when Valid
}

// UnmarshalJSON records presence and null-ness alongside the value.
func (n *NullableString) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Valid = false
		n.Value = ""
		return nil
	}
	if err := json.Unmarshal(b, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// MarshalJSON round-trips the tri-state back to JSON.
func (n NullableString) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}
