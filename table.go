package tables

import (
	"fmt"
	"slices"
)

// Table is the static descriptor of one component table: its name, value
// field schema and optional key schema. Row data lives in a Store.
type Table struct {
	schema          *Schema
	name            string
	pos             int // index in schema.tables
	fieldNames      []string
	fieldTypes      map[string]FieldType
	keySchema       KeySchema
	suppressContent bool
}

func (tbl *Table) finalize() {
	tbl.fieldNames = make([]string, 0, len(tbl.fieldTypes))
	for name := range tbl.fieldTypes {
		tbl.fieldNames = append(tbl.fieldNames, name)
	}
	slices.Sort(tbl.fieldNames)
}

func (tbl *Table) Name() string {
	return tbl.name
}

func (tbl *Table) String() string {
	return tbl.name
}

func (tbl *Table) Schema() *Schema {
	return tbl.schema
}

// Fields returns the value field names in sorted order.
func (tbl *Table) Fields() []string {
	return slices.Clone(tbl.fieldNames)
}

func (tbl *Table) FieldType(name string) (FieldType, bool) {
	ft, found := tbl.fieldTypes[name]
	return ft, found
}

func (tbl *Table) KeySchema() KeySchema {
	return slices.Clone(tbl.keySchema)
}

// IsSingleton reports whether tbl has no key fields, and so holds at most one
// row under SingletonEntity.
func (tbl *Table) IsSingleton() bool {
	return len(tbl.keySchema) == 0
}

// EntityOf derives the entity for keys. Empty keys map to SingletonEntity.
func (tbl *Table) EntityOf(keys Keys) (Entity, error) {
	if len(keys) == 0 {
		return SingletonEntity, nil
	}
	e, err := EncodeKey(tbl.keySchema, keys)
	if err != nil {
		return "", tableErrf(tbl, "", "", err, "")
	}
	return e, nil
}

// KeysOf decodes e back into the key values it was derived from.
func (tbl *Table) KeysOf(e Entity) (Keys, error) {
	keys, err := DecodeKey(tbl.keySchema, e)
	if err != nil {
		return nil, tableErrf(tbl, e, "", err, "")
	}
	return keys, nil
}

func (tbl *Table) checkRawFields(raw RawRow) error {
	for name := range raw {
		if _, found := tbl.fieldTypes[name]; !found {
			return tableErrf(tbl, "", name, ErrUnknownField, "")
		}
	}
	return nil
}

// Describe returns a one-line summary like "Position(entity bytes32) {x number, y number}".
func (tbl *Table) Describe() string {
	s := tbl.name
	if len(tbl.keySchema) > 0 {
		s += tbl.keySchema.String()
	}
	s += " {"
	for i, name := range tbl.fieldNames {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s %v", name, tbl.fieldTypes[name])
	}
	return s + "}"
}
