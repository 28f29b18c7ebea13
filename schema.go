package tables

import (
	"fmt"
	"strings"
)

// Schema is the static set of tables a Store is constructed from. Tables are
// usually declared as package-level vars and never change shape afterwards.
type Schema struct {
	tables            []*Table
	tablesByLowerName map[string]*Table
}

func NewSchema() *Schema {
	scm := &Schema{}
	scm.init()
	return scm
}

func (scm *Schema) init() {
	if scm.tablesByLowerName == nil {
		scm.tablesByLowerName = make(map[string]*Table)
	}
}

func (scm *Schema) Tables() []*Table {
	return append([]*Table(nil), scm.tables...)
}

// TableNamed does a case-insensitive lookup, returning nil if not found.
func (scm *Schema) TableNamed(name string) *Table {
	return scm.tablesByLowerName[strings.ToLower(name)]
}

func (scm *Schema) addTable(tbl *Table) {
	lower := strings.ToLower(tbl.name)
	if scm.tablesByLowerName[lower] != nil {
		panic(fmt.Errorf("duplicate table %s", tbl.name))
	}
	tbl.schema = scm
	tbl.pos = len(scm.tables)
	scm.tables = append(scm.tables, tbl)
	scm.tablesByLowerName[lower] = tbl
}

// Fields maps value field names to their types.
type Fields map[string]FieldType

type tableOpt int

const (
	SuppressContentWhenLogging = tableOpt(1)
)

// AddTable declares a table with the given value fields and key schema. Pass a
// nil key schema for a singleton table. Invalid declarations panic.
func AddTable(scm *Schema, name string, fields Fields, key KeySchema, opts ...any) *Table {
	return DefineTable(scm, name, func(b *TableBuilder) {
		for fname, ft := range fields {
			b.Field(fname, ft)
		}
		for _, kf := range key {
			b.Key(kf.Name, kf.Type)
		}
		for _, opt := range opts {
			switch opt := opt.(type) {
			case tableOpt:
				if opt == SuppressContentWhenLogging {
					b.SuppressContentWhenLogging()
				}
			default:
				panic(fmt.Errorf("invalid option %T %v", opt, opt))
			}
		}
	})
}

type TableBuilder struct {
	tbl *Table
}

// DefineTable declares a table, letting f describe its fields and keys.
func DefineTable(scm *Schema, name string, f func(b *TableBuilder)) *Table {
	scm.init()
	if name == "" {
		panic("DefineTable: empty table name")
	}
	tbl := &Table{
		name:       name,
		fieldTypes: make(map[string]FieldType),
	}
	f(&TableBuilder{tbl})
	tbl.finalize()
	scm.addTable(tbl)
	return tbl
}

func (b *TableBuilder) Field(name string, ft FieldType) {
	if name == "" {
		panic(fmt.Errorf("%s: empty field name", b.tbl.name))
	}
	if !ft.Valid() {
		panic(fmt.Errorf("%s.%s: invalid field type %v", b.tbl.name, name, ft))
	}
	if _, dup := b.tbl.fieldTypes[name]; dup {
		panic(fmt.Errorf("%s: duplicate field %s", b.tbl.name, name))
	}
	b.tbl.fieldTypes[name] = ft
}

// Key appends a key field; order of calls is the key schema order.
func (b *TableBuilder) Key(name string, kt KeyType) {
	if name == "" {
		panic(fmt.Errorf("%s: empty key field name", b.tbl.name))
	}
	if !kt.Valid() {
		panic(fmt.Errorf("%s.%s: invalid key type %v", b.tbl.name, name, kt))
	}
	for _, kf := range b.tbl.keySchema {
		if kf.Name == name {
			panic(fmt.Errorf("%s: duplicate key field %s", b.tbl.name, name))
		}
	}
	b.tbl.keySchema = append(b.tbl.keySchema, KeyField{name, kt})
}

func (b *TableBuilder) SuppressContentWhenLogging() {
	b.tbl.suppressContent = true
}
