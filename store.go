package tables

import (
	"log/slog"
	"strings"
)

// Store holds the rows of every table in a Schema. It is not safe for
// concurrent use: all calls, including subscriber callbacks, are expected to
// run on one goroutine. Construct one per application and pass it to the code
// that needs it.
type Store struct {
	schema  *Schema
	logger  *slog.Logger
	verbose bool

	tables []*tableState

	delivering bool
	pending    []pendingDelivery

	ReadCount  uint64
	WriteCount uint64
}

type Options struct {
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Verbose logs every read and write at debug level.
	Verbose bool
}

func New(schema *Schema, opt Options) *Store {
	if schema == nil {
		panic("tables.New: nil schema")
	}
	logger := opt.Logger
	if logger == nil {
		logger = slog.Default()
	}
	st := &Store{
		schema:  schema,
		logger:  logger,
		verbose: opt.Verbose,
		tables:  make([]*tableState, len(schema.tables)),
	}
	for i, tbl := range schema.tables {
		st.tables[i] = newTableState(st, tbl)
	}
	return st
}

func (st *Store) Schema() *Schema {
	return st.schema
}

func (st *Store) Logger() *slog.Logger {
	return st.logger
}

// TableNamed looks up a declared table by case-insensitive name.
func (st *Store) TableNamed(name string) (*Table, error) {
	tbl := st.schema.TableNamed(name)
	if tbl == nil {
		return nil, &TableError{Table: &Table{name: name}, Err: ErrUnknownTable}
	}
	return tbl, nil
}

func (st *Store) tableState(tbl *Table) (*tableState, error) {
	if tbl == nil {
		return nil, &TableError{Err: ErrUnknownTable, Msg: "nil table"}
	}
	if tbl.schema != st.schema || tbl.pos >= len(st.tables) || st.tables[tbl.pos].tbl != tbl {
		return nil, tableErrf(tbl, "", "", ErrUnknownTable, "not declared in this store's schema")
	}
	return st.tables[tbl.pos], nil
}

// mustTableState is used by accessors that cannot return an error. Passing a
// table from another schema is a programming error.
func (st *Store) mustTableState(tbl *Table) *tableState {
	return must(st.tableState(tbl))
}

func (st *Store) logOp(op string, tbl *Table, e Entity, raw RawRow) {
	if !st.verbose {
		return
	}
	if raw == nil {
		st.logger.Debug("tables: "+op, "table", tbl.name, "entity", e.Short())
	} else {
		st.logger.Debug("tables: "+op, "table", tbl.name, "entity", e.Short(), "row", loggableRow(tbl, raw))
	}
}

func loggableRow(tbl *Table, raw RawRow) string {
	if raw == nil {
		return "<none>"
	}
	if tbl.suppressContent {
		return "<suppressed>"
	}
	var buf strings.Builder
	buf.WriteByte('{')
	for i, name := range sortedKeys(raw) {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(name)
		buf.WriteByte('=')
		buf.WriteString(raw[name].Data)
	}
	buf.WriteByte('}')
	return buf.String()
}
