package types

import (
	"encoding/json"
	"strings"
)

// OptionalString is a patch field for a nullable column. Set reports whether
// the field was present in the patch at all; when Set is true a nil Value
// clears the column.
type OptionalString struct {
	Set   bool
	Value *string
}

// Some returns a present OptionalString holding s.
func Some(s string) OptionalString {
	return OptionalString{Set: true, Value: &s}
}

// Null returns a present OptionalString that clears the column.
func Null() OptionalString {
	return OptionalString{Set: true}
}

// UnmarshalJSON marks the field present; a JSON null clears the value.
// Absent keys never reach UnmarshalJSON and so stay unset.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// MarshalJSON renders the value, or null when unset or cleared.
func (o OptionalString) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// StringPtr returns a pointer to s, or nil when s is blank.
func StringPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// NormalizeIDs drops repeated ids, keeping the first occurrence of each.
// It returns ErrInvalidID for a blank id.
func NormalizeIDs(ids []string) ([]string, error) {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return nil, ErrInvalidID
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}
