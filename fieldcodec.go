package tables

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
)

// RawField is the stored form of one field: its wire text plus the type tag
// recorded at write time.
type RawField struct {
	Type FieldType
	Data string
}

// RawRow is the stored form of a row.
type RawRow map[string]RawField

func (raw RawRow) clone() RawRow {
	if raw == nil {
		return nil
	}
	c := make(RawRow, len(raw))
	for k, v := range raw {
		c[k] = v
	}
	return c
}

// Row maps field names to Go values: float64, *big.Int, bool, string, Entity,
// or a slice of one of those.
type Row map[string]any

// EncodeField renders v, which must match ft, into its wire text.
//
// Wide integers are decimal text. Arrays are one JSON document; wide integer
// elements are JSON strings so they survive hosts with float-only numbers.
func EncodeField(ft FieldType, v any) (string, error) {
	switch ft {
	case Number:
		f, ok := toFloat(v)
		if !ok {
			return "", valueTypeErr(ft, v)
		}
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	case BigInt:
		n, ok := toBigInt(v)
		if !ok {
			return "", valueTypeErr(ft, v)
		}
		return n.String(), nil
	case Boolean:
		b, ok := v.(bool)
		if !ok {
			return "", valueTypeErr(ft, v)
		}
		return strconv.FormatBool(b), nil
	case String:
		s, ok := v.(string)
		if !ok {
			return "", valueTypeErr(ft, v)
		}
		return s, nil
	case EntityRef:
		e, ok := v.(Entity)
		if !ok {
			return "", valueTypeErr(ft, v)
		}
		e, err := ParseEntity(string(e))
		if err != nil {
			return "", err
		}
		return string(e), nil
	case NumberArray:
		var a []float64
		switch v := v.(type) {
		case []float64:
			a = v
		case []int:
			a = make([]float64, len(v))
			for i, n := range v {
				a[i] = float64(n)
			}
		default:
			return "", valueTypeErr(ft, v)
		}
		return marshalArray(ft, a)
	case BigIntArray:
		a, ok := v.([]*big.Int)
		if !ok {
			return "", valueTypeErr(ft, v)
		}
		strs := make([]string, len(a))
		for i, n := range a {
			if n == nil {
				return "", fmt.Errorf("%w: %v element %d is nil", ErrValueType, ft, i)
			}
			strs[i] = n.String()
		}
		return marshalArray(ft, strs)
	case BooleanArray:
		a, ok := v.([]bool)
		if !ok {
			return "", valueTypeErr(ft, v)
		}
		return marshalArray(ft, a)
	case StringArray:
		a, ok := v.([]string)
		if !ok {
			return "", valueTypeErr(ft, v)
		}
		return marshalArray(ft, a)
	case EntityArray:
		a, ok := v.([]Entity)
		if !ok {
			return "", valueTypeErr(ft, v)
		}
		canon := make([]Entity, len(a))
		for i, e := range a {
			c, err := ParseEntity(string(e))
			if err != nil {
				return "", fmt.Errorf("%v element %d: %w", ft, i, err)
			}
			canon[i] = c
		}
		if a == nil {
			canon = nil
		}
		return marshalArray(ft, canon)
	default:
		return "", fmt.Errorf("%w: cannot encode as %v", ErrMissingTypeTag, ft)
	}
}

// DecodeField parses wire text written by EncodeField for ft.
func DecodeField(ft FieldType, data string) (any, error) {
	switch ft {
	case Number:
		f, err := strconv.ParseFloat(data, 64)
		if err != nil {
			return nil, dataErrf([]byte(data), 0, err, "invalid %v", ft)
		}
		return f, nil
	case BigInt:
		n, ok := new(big.Int).SetString(data, 10)
		if !ok {
			return nil, dataErrf([]byte(data), 0, nil, "invalid %v", ft)
		}
		return n, nil
	case Boolean:
		switch data {
		case "true":
			return true, nil
		case "false":
			return false, nil
		default:
			return nil, dataErrf([]byte(data), 0, nil, "invalid %v", ft)
		}
	case String:
		return data, nil
	case EntityRef:
		return Entity(data), nil
	case NumberArray:
		var a []float64
		if err := unmarshalArray(ft, data, &a); err != nil {
			return nil, err
		}
		return a, nil
	case BigIntArray:
		var strs []string
		if err := unmarshalArray(ft, data, &strs); err != nil {
			return nil, err
		}
		a := make([]*big.Int, len(strs))
		for i, s := range strs {
			n, ok := new(big.Int).SetString(s, 10)
			if !ok {
				return nil, dataErrf([]byte(data), 0, nil, "invalid %v element %d", ft, i)
			}
			a[i] = n
		}
		return a, nil
	case BooleanArray:
		var a []bool
		if err := unmarshalArray(ft, data, &a); err != nil {
			return nil, err
		}
		return a, nil
	case StringArray:
		var a []string
		if err := unmarshalArray(ft, data, &a); err != nil {
			return nil, err
		}
		return a, nil
	case EntityArray:
		var a []Entity
		if err := unmarshalArray(ft, data, &a); err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, ErrMissingTypeTag
	}
}

func marshalArray[T any](ft FieldType, a []T) (string, error) {
	if a == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("%w: %v: %v", ErrValueType, ft, err)
	}
	return string(raw), nil
}

func unmarshalArray[T any](ft FieldType, data string, ptr *[]T) error {
	if err := json.Unmarshal([]byte(data), ptr); err != nil {
		return dataErrf([]byte(data), 0, err, "invalid %v", ft)
	}
	if *ptr == nil {
		*ptr = []T{}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}

func valueTypeErr(ft FieldType, v any) error {
	return fmt.Errorf("%w: %v got %T", ErrValueType, ft, v)
}

// encodeRow encodes each field of row by its declared type.
func (tbl *Table) encodeRow(row Row) (RawRow, error) {
	raw := make(RawRow, len(row))
	for name, v := range row {
		ft, found := tbl.FieldType(name)
		if !found {
			return nil, tableErrf(tbl, "", name, ErrUnknownField, "")
		}
		data, err := EncodeField(ft, v)
		if err != nil {
			return nil, tableErrf(tbl, "", name, err, "")
		}
		raw[name] = RawField{ft, data}
	}
	return raw, nil
}

// decodeRow decodes each stored field by its own type tag, without consulting
// the declared schema.
func (tbl *Table) decodeRow(e Entity, raw RawRow) (Row, error) {
	if raw == nil {
		return nil, nil
	}
	row := make(Row, len(raw))
	for name, rf := range raw {
		if rf.Type == FieldTypeNone {
			return nil, tableErrf(tbl, e, name, ErrMissingTypeTag, "")
		}
		v, err := DecodeField(rf.Type, rf.Data)
		if err != nil {
			return nil, tableErrf(tbl, e, name, err, "decoding")
		}
		row[name] = v
	}
	return row, nil
}
