// Package records reads the JSON Lines mutation stream that tablectl applies
// to a store. Each line names a table, addresses one row by keys or by raw
// entity, and carries the field values to write.
//
//	{"table": "Position", "keys": {"entity": "0x…01"}, "value": {"x": 1, "y": 2}}
//	{"table": "GameConfig", "op": "update", "value": {"turnLength": "600"}}
//	{"table": "Position", "entity": "0x…01", "op": "remove"}
//
// Numbers are decoded without loss, so wide integer fields and keys may be
// given either as JSON numbers or as decimal strings.
package records

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"

	tables "github.com/primodiumxyz/reactive-tables-sub000"
)

type Op string

const (
	OpSet    Op = "set"
	OpUpdate Op = "update"
	OpRemove Op = "remove"
)

// Record is one line of a records file.
type Record struct {
	Table  string         `json:"table" jsonschema:"description=Table name; matched case-insensitively"`
	Keys   map[string]any `json:"keys,omitempty" jsonschema:"description=Key field values; omit for singleton tables"`
	Entity string         `json:"entity,omitempty" jsonschema:"description=Raw entity id; used instead of keys"`
	Op     Op             `json:"op,omitempty" jsonschema:"enum=set,enum=update,enum=remove,description=Mutation kind; defaults to set"`
	Value  map[string]any `json:"value,omitempty" jsonschema:"description=Field values; wide integers may be decimal strings"`

	// Line is the 1-based line number the record was read from.
	Line int `json:"-"`
}

// Mutation is a Record resolved against a schema.
type Mutation struct {
	Table  *tables.Table
	Entity tables.Entity
	Op     Op
	Row    tables.Row
	Line   int
}

var ErrSyntax = errors.New("invalid record")

// Read calls fn for every record in r, in order. Blank lines are skipped.
func Read(r io.Reader, fn func(rec *Record) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var line int
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		rec, err := decode(data)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		rec.Line = line
		if err := fn(rec); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read records: %w", err)
	}
	return nil
}

// ReadAll returns every record in r.
func ReadAll(r io.Reader) ([]*Record, error) {
	var recs []*Record
	err := Read(r, func(rec *Record) error {
		recs = append(recs, rec)
		return nil
	})
	return recs, err
}

func decode(data []byte) (*Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	dec.DisallowUnknownFields()
	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", ErrSyntax)
	}
	if rec.Table == "" {
		return nil, fmt.Errorf("%w: missing table", ErrSyntax)
	}
	return &rec, nil
}

// Resolve looks up the record's table in scm, derives its entity and coerces
// its value into a typed row.
func (rec *Record) Resolve(scm *tables.Schema) (*Mutation, error) {
	tbl := scm.TableNamed(rec.Table)
	if tbl == nil {
		return nil, fmt.Errorf("line %d: %w %q", rec.Line, tables.ErrUnknownTable, rec.Table)
	}
	m := &Mutation{Table: tbl, Op: rec.Op, Line: rec.Line}
	if m.Op == "" {
		m.Op = OpSet
	}

	var err error
	switch {
	case rec.Entity != "" && len(rec.Keys) > 0:
		return nil, fmt.Errorf("line %d: %w: both keys and entity given", rec.Line, ErrSyntax)
	case rec.Entity != "":
		m.Entity, err = tables.ParseEntity(rec.Entity)
	default:
		var keys tables.Keys
		keys, err = CoerceKeys(tbl.KeySchema(), rec.Keys)
		if err == nil {
			m.Entity, err = tbl.EntityOf(keys)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", rec.Line, err)
	}

	switch m.Op {
	case OpSet, OpUpdate:
		m.Row, err = CoerceRow(tbl, rec.Value)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", rec.Line, err)
		}
	case OpRemove:
		if len(rec.Value) > 0 {
			return nil, fmt.Errorf("line %d: %w: remove takes no value", rec.Line, ErrSyntax)
		}
	default:
		return nil, fmt.Errorf("line %d: %w: unknown op %q", rec.Line, ErrSyntax, rec.Op)
	}
	return m, nil
}

// Apply performs the mutation on st.
func (m *Mutation) Apply(st *tables.Store) error {
	switch m.Op {
	case OpSet:
		return st.Set(m.Table, m.Entity, m.Row)
	case OpUpdate:
		return st.Update(m.Table, m.Entity, m.Row)
	case OpRemove:
		st.Remove(m.Table, m.Entity)
		return nil
	default:
		panic(fmt.Errorf("unknown op %q", m.Op))
	}
}

// ApplyAll reads, resolves and applies every record in r, stopping at the
// first failure. It returns the number of records applied.
func ApplyAll(st *tables.Store, r io.Reader) (int, error) {
	var n int
	err := Read(r, func(rec *Record) error {
		m, err := rec.Resolve(st.Schema())
		if err != nil {
			return err
		}
		if err := m.Apply(st); err != nil {
			return fmt.Errorf("line %d: %w", rec.Line, err)
		}
		n++
		return nil
	})
	return n, err
}

// CoerceRow converts decoded JSON values into the Go types tbl's fields hold.
func CoerceRow(tbl *tables.Table, value map[string]any) (tables.Row, error) {
	row := make(tables.Row, len(value))
	for name, v := range value {
		ft, found := tbl.FieldType(name)
		if !found {
			return nil, fmt.Errorf("%w: %s.%s", tables.ErrUnknownField, tbl.Name(), name)
		}
		fv, err := coerceField(ft, v)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", tbl.Name(), name, err)
		}
		row[name] = fv
	}
	return row, nil
}

func coerceField(ft tables.FieldType, v any) (any, error) {
	switch ft {
	case tables.Number:
		switch v := v.(type) {
		case json.Number:
			f, err := v.Float64()
			if err != nil {
				return nil, fmt.Errorf("%w: %v: %v", tables.ErrValueType, ft, err)
			}
			return f, nil
		case float64:
			return v, nil
		}
	case tables.BigInt:
		switch v := v.(type) {
		case json.Number:
			return parseBigInt(ft, string(v))
		case string:
			return parseBigInt(ft, v)
		}
	case tables.Boolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case tables.String:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case tables.EntityRef:
		if s, ok := v.(string); ok {
			return tables.ParseEntity(s)
		}
	case tables.NumberArray:
		return coerceArray[float64](ft, v)
	case tables.BigIntArray:
		return coerceArray[*big.Int](ft, v)
	case tables.BooleanArray:
		return coerceArray[bool](ft, v)
	case tables.StringArray:
		return coerceArray[string](ft, v)
	case tables.EntityArray:
		return coerceArray[tables.Entity](ft, v)
	}
	return nil, fmt.Errorf("%w: %v cannot hold %T", tables.ErrValueType, ft, v)
}

func coerceArray[T any](ft tables.FieldType, v any) ([]T, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %v cannot hold %T", tables.ErrValueType, ft, v)
	}
	result := make([]T, len(items))
	for i, item := range items {
		ev, err := coerceField(ft.Elem(), item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		result[i] = ev.(T)
	}
	return result, nil
}

func parseBigInt(ft tables.FieldType, s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %v: invalid integer %q", tables.ErrValueType, ft, s)
	}
	return n, nil
}

// CoerceKeys converts decoded JSON key values into the Go types ks encodes.
func CoerceKeys(ks tables.KeySchema, keys map[string]any) (tables.Keys, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	result := make(tables.Keys, len(keys))
	for name, v := range keys {
		kf, found := keyField(ks, name)
		if !found {
			return nil, fmt.Errorf("%w: unknown key field %q of %v", tables.ErrSchemaMismatch, name, ks)
		}
		var s string
		switch v := v.(type) {
		case json.Number:
			s = string(v)
		case string:
			s = v
		case bool:
			if kf.Type.Kind != tables.KeyKindBool {
				return nil, fmt.Errorf("%w: key field %s is %v", tables.ErrValueType, name, kf.Type)
			}
			result[name] = v
			continue
		default:
			return nil, fmt.Errorf("%w: key field %s cannot be %T", tables.ErrValueType, name, v)
		}
		kv, err := ParseKeyValue(kf.Type, s)
		if err != nil {
			return nil, fmt.Errorf("key field %s: %w", name, err)
		}
		result[name] = kv
	}
	return result, nil
}

func keyField(ks tables.KeySchema, name string) (tables.KeyField, bool) {
	for _, kf := range ks {
		if kf.Name == name {
			return kf, true
		}
	}
	return tables.KeyField{}, false
}

// ParseKeyValue parses the text form of a key value: an integer (decimal, or
// hex with a 0x prefix), true/false, or hex for addresses and bytes32.
func ParseKeyValue(kt tables.KeyType, s string) (any, error) {
	switch kt.Kind {
	case tables.KeyKindUint, tables.KeyKindInt:
		n, ok := parseKeyInt(s)
		if !ok {
			return nil, fmt.Errorf("%w: %v: invalid integer %q", tables.ErrValueType, kt, s)
		}
		return n, nil
	case tables.KeyKindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v: %q", tables.ErrValueType, kt, s)
		}
		return b, nil
	case tables.KeyKindAddress, tables.KeyKindBytes32:
		return s, nil
	default:
		return nil, fmt.Errorf("%w: invalid key type %v", tables.ErrValueType, kt)
	}
}

// parseKeyInt accepts an optionally signed decimal integer or 0x-prefixed hex.
func parseKeyInt(s string) (*big.Int, bool) {
	digits, neg := strings.CutPrefix(s, "-")
	base := 10
	if rest, found := strings.CutPrefix(digits, "0x"); found {
		digits, base = rest, 16
	} else if rest, found := strings.CutPrefix(digits, "0X"); found {
		digits, base = rest, 16
	}
	if digits == "" || strings.ContainsAny(digits, "+-_") {
		return nil, false
	}
	n, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, false
	}
	if neg {
		n.Neg(n)
	}
	return n, true
}

// JSONSchema describes the record format as a JSON Schema document.
func JSONSchema() ([]byte, error) {
	r := jsonschema.Reflector{Anonymous: true, DoNotReference: true}
	schema := r.Reflect(&Record{})
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record schema: %w", err)
	}
	return data, nil
}
