package profile

import (
	"encoding/json"
	"fmt"
	"maps"
)

// VolunteerRecord is an opaque volunteering entry. Its fields are carried
// through untouched; only the id is interpreted. On the wire the id sits next
// to the other fields in one flat object.
type VolunteerRecord struct {
	ID     string
	Fields map[string]any
}

func (v VolunteerRecord) RecordID() string { return v.ID }

func (v VolunteerRecord) WithID(id string) VolunteerRecord {
	v.ID = id
	return v
}

// Clone copies the field map so edits do not leak between snapshots.
func (v VolunteerRecord) Clone() VolunteerRecord {
	v.Fields = maps.Clone(v.Fields)
	return v
}

// Normalized puts the fields in the shape they have after a JSON round trip:
// numbers become float64, nested values become maps and slices of any, and an
// empty map becomes nil. Fields that cannot be encoded are left as they are.
func (v VolunteerRecord) Normalized() VolunteerRecord {
	if len(v.Fields) == 0 {
		v.Fields = nil
		return v
	}
	data, err := json.Marshal(v.Fields)
	if err != nil {
		return v
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return v
	}
	delete(fields, "id")
	if len(fields) == 0 {
		fields = nil
	}
	v.Fields = fields
	return v
}

// String returns the named field formatted for display, or "".
func (v VolunteerRecord) String(field string) string {
	raw, ok := v.Fields[field]
	if !ok || raw == nil {
		return ""
	}
	if s, ok := raw.(string); ok {
		return s
	}
	return fmt.Sprint(raw)
}

func (v VolunteerRecord) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(v.Fields)+1)
	for key, value := range v.Fields {
		flat[key] = value
	}
	flat["id"] = v.ID
	return json.Marshal(flat)
}

func (v *VolunteerRecord) UnmarshalJSON(data []byte) error {
	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	v.ID = ""
	if raw, ok := flat["id"]; ok {
		switch id := raw.(type) {
		case string:
			v.ID = id
		case float64:
			v.ID = fmt.Sprintf("%.0f", id)
		case nil:
		default:
			return fmt.Errorf("profile: volunteering id has unsupported type %T", raw)
		}
		delete(flat, "id")
	}
	if len(flat) == 0 {
		v.Fields = nil
		return nil
	}
	v.Fields = flat
	return nil
}
