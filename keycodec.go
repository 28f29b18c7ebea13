package tables

import (
	"fmt"
	"strings"
)

type KeyField struct {
	Name string
	Type KeyType
}

// KeySchema is the ordered list of key fields that maps a structured key onto
// an entity id. An empty KeySchema describes a singleton table.
type KeySchema []KeyField

// Keys maps key field names to values.
type Keys map[string]any

func (ks KeySchema) Names() []string {
	names := make([]string, len(ks))
	for i, kf := range ks {
		names[i] = kf.Name
	}
	return names
}

func (ks KeySchema) String() string {
	var buf strings.Builder
	buf.WriteByte('(')
	for i, kf := range ks {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(kf.Name)
		buf.WriteByte(' ')
		buf.WriteString(kf.Type.String())
	}
	buf.WriteByte(')')
	return buf.String()
}

// EncodeKey encodes keys into an entity: one segment per key field, in key
// schema order. It fails with ErrSchemaMismatch unless keys names exactly the
// fields of ks.
func EncodeKey(ks KeySchema, keys Keys) (Entity, error) {
	if len(keys) != len(ks) {
		return "", fmt.Errorf("%w: got %d key values for %d key fields %v", ErrSchemaMismatch, len(keys), len(ks), ks)
	}
	if len(ks) == 0 {
		return "", fmt.Errorf("%w: cannot encode an empty key", ErrSchemaMismatch)
	}
	buf := make([]byte, 0, len(ks)*SegmentSize)
	for _, kf := range ks {
		v, found := keys[kf.Name]
		if !found {
			return "", fmt.Errorf("%w: missing key field %q of %v", ErrSchemaMismatch, kf.Name, ks)
		}
		var err error
		buf, err = kf.Type.encodeSegment(buf, v)
		if err != nil {
			return "", fmt.Errorf("key field %s: %w", kf.Name, err)
		}
	}
	return EntityFromBytes(buf), nil
}

// DecodeKey splits e into one segment per key field and decodes each by its
// declared type.
func DecodeKey(ks KeySchema, e Entity) (Keys, error) {
	raw, err := e.Bytes()
	if err != nil {
		return nil, err
	}
	if n := len(raw) / SegmentSize; n != len(ks) {
		return nil, fmt.Errorf("%w: entity has %d segments, key schema %v has %d fields", ErrSchemaMismatch, n, ks, len(ks))
	}
	keys := make(Keys, len(ks))
	for i, kf := range ks {
		v, err := kf.Type.decodeSegment(raw[i*SegmentSize : (i+1)*SegmentSize])
		if err != nil {
			return nil, fmt.Errorf("key field %s: %w", kf.Name, err)
		}
		keys[kf.Name] = v
	}
	return keys, nil
}
