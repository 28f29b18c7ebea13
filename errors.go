package tables

import (
	"errors"
	"fmt"
	"strings"
)

// Caller programming errors. Every error returned by this package wraps one of
// these, so callers can match with errors.Is.
var (
	ErrSchemaMismatch  = errors.New("key schema mismatch")
	ErrMalformedEntity = errors.New("malformed entity")
	ErrMissingTypeTag  = errors.New("missing type tag")
	ErrUnknownTable    = errors.New("unknown table")
	ErrUnknownField    = errors.New("unknown field")
	ErrValueType       = errors.New("value does not match field type")
)

type DataError struct {
	Data []byte
	Off  int
	Err  error
	Msg  string
}

func dataErrf(data []byte, off int, err error, format string, args ...any) error {
	return &DataError{data, off, err, fmt.Sprintf(format, args...)}
}

func (e *DataError) Unwrap() error {
	return e.Err
}

func (e *DataError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	n := len(e.Data)
	if n <= prefixLen+suffixLen {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v: (%d) %x", e.Msg, e.Err, n, e.Data)
		} else {
			return fmt.Sprintf("%s: (%d) %x", e.Msg, n, e.Data)
		}
	} else {
		p, s := e.Data[:prefixLen], e.Data[n-suffixLen:]
		if e.Err != nil {
			return fmt.Sprintf("%s: %v: (%d) %x...%x", e.Msg, e.Err, n, p, s)
		} else {
			return fmt.Sprintf("%s: (%d) %x...%x", e.Msg, n, p, s)
		}
	}
}

// TableError reports a failure local to one table, and optionally one entity
// and field within it.
type TableError struct {
	Table  *Table
	Entity Entity
	Field  string
	Msg    string
	Err    error
}

func tableErrf(tbl *Table, e Entity, field string, err error, format string, args ...any) error {
	return &TableError{tbl, e, field, fmt.Sprintf(format, args...), err}
}

func (e *TableError) Unwrap() error {
	return e.Err
}

func (e *TableError) Error() string {
	var buf strings.Builder
	if e.Table != nil {
		buf.WriteString(e.Table.Name())
	} else {
		buf.WriteString("<nil table>")
	}
	if e.Entity != "" {
		buf.WriteByte('/')
		buf.WriteString(e.Entity.Short())
	}
	if e.Field != "" {
		buf.WriteByte('.')
		buf.WriteString(e.Field)
	}
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
		if e.Err != nil {
			buf.WriteString(": ")
			buf.WriteString(e.Err.Error())
		}
	} else if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}
