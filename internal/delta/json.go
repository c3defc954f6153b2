package delta

import (
	"encoding/json"
	"fmt"
	"math"
)

// MarshalJSON encodes an op in the rich-text wire form:
//
//	{"insert":"text","attributes":{"bold":true}}
//	{"insert":{"image":"http://x/y.png"}}
//	{"retain":3}
//	{"delete":2}
func (o Op) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, 2)
	switch v := o.Insert.(type) {
	case string:
		m["insert"] = v
	case Embed:
		m["insert"] = map[string]any{v.Type: v.Value}
	case nil:
	default:
		return nil, fmt.Errorf("marshal op: unsupported insert type %T", o.Insert)
	}
	if o.Delete > 0 {
		m["delete"] = o.Delete
	}
	if o.Retain > 0 {
		m["retain"] = o.Retain
	}
	if len(o.Attributes) > 0 {
		m["attributes"] = map[string]any(o.Attributes)
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes the wire form produced by MarshalJSON.
// Whole-number attribute values decode as int so header levels survive a
// round trip through storage.
func (o *Op) UnmarshalJSON(data []byte) error {
	var raw struct {
		Insert     json.RawMessage `json:"insert"`
		Delete     int             `json:"delete"`
		Retain     int             `json:"retain"`
		Attributes map[string]any  `json:"attributes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal op: %w", err)
	}

	*o = Op{Delete: raw.Delete, Retain: raw.Retain}
	if len(raw.Attributes) > 0 {
		o.Attributes = make(Attributes, len(raw.Attributes))
		for k, v := range raw.Attributes {
			o.Attributes[k] = normalizeNumber(v)
		}
	}

	if len(raw.Insert) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw.Insert, &s); err == nil {
		o.Insert = s
		return nil
	}
	var embed map[string]any
	if err := json.Unmarshal(raw.Insert, &embed); err != nil {
		return fmt.Errorf("unmarshal op: insert must be a string or an embed object: %w", err)
	}
	if len(embed) != 1 {
		return fmt.Errorf("unmarshal op: embed must have exactly one key, got %d", len(embed))
	}
	for k, v := range embed {
		o.Insert = Embed{Type: k, Value: normalizeNumber(v)}
	}
	return nil
}

func normalizeNumber(v any) any {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return v
	}
	return int(f)
}
