package sections

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidPatch indicates that a patch value does not fit the section schema.
var ErrInvalidPatch = errors.New("sections: invalid patch")

// Section is one block placed on the canvas.
type Section struct {
	ID        string
	Type      Type
	Data      Data
	Order     int
	IsVisible bool
}

type sectionWire struct {
	ID        string          `json:"id"`
	Type      Type            `json:"type"`
	Data      json.RawMessage `json:"data"`
	Order     int             `json:"order"`
	IsVisible bool            `json:"isVisible"`
}

// MarshalJSON encodes the section with its variant payload under "data".
func (s Section) MarshalJSON() ([]byte, error) {
	payload := []byte("{}")
	if s.Data != nil {
		encoded, err := json.Marshal(s.Data)
		if err != nil {
			return nil, err
		}
		payload = encoded
	}
	return json.Marshal(sectionWire{
		ID:        s.ID,
		Type:      s.Type,
		Data:      payload,
		Order:     s.Order,
		IsVisible: s.IsVisible,
	})
}

// UnmarshalJSON decodes "data" into the variant selected by "type".
func (s *Section) UnmarshalJSON(raw []byte) error {
	var wire sectionWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return err
	}
	data := newData(wire.Type)
	trimmed := bytes.TrimSpace(wire.Data)
	if len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		if err := json.Unmarshal(trimmed, data); err != nil {
			return fmt.Errorf("section %s: decode %s data: %w", wire.ID, wire.Type, err)
		}
	}
	*s = Section{
		ID:        wire.ID,
		Type:      wire.Type,
		Data:      data,
		Order:     wire.Order,
		IsVisible: wire.IsVisible,
	}
	return nil
}

// Patch maps top-level data field names to replacement JSON values.
type Patch map[string]json.RawMessage

// NewPatch encodes plain values into a Patch.
func NewPatch(fields map[string]any) (Patch, error) {
	patch := make(Patch, len(fields))
	for key, value := range fields {
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("%w: field %s: %v", ErrInvalidPatch, key, err)
		}
		patch[key] = encoded
	}
	return patch, nil
}

// mergeData overlays the patch onto a copy of data. Keys outside the variant
// schema are dropped by the decode step.
func mergeData(kind Type, data Data, patch Patch) (Data, error) {
	fields := map[string]json.RawMessage{}
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(encoded, &fields); err != nil {
			return nil, err
		}
	}
	for key, value := range patch {
		fields[key] = value
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	next := newData(kind)
	if err := json.Unmarshal(merged, next); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	return next, nil
}

// cloneData returns an independent copy of the payload.
func cloneData(kind Type, data Data) Data {
	copied, err := mergeData(kind, data, nil)
	if err != nil {
		return DefaultData(kind)
	}
	return copied
}

// Clone returns a section whose payload shares no memory with s.
func (s Section) Clone() Section {
	copied := s
	copied.Data = cloneData(s.Type, s.Data)
	return copied
}
