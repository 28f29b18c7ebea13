package tables

import (
	"fmt"
)

type Op int

const (
	OpNone   Op = 0
	OpPut    Op = 1
	OpDelete Op = 2
)

func (v Op) String() string {
	switch v {
	case OpNone:
		return "none"
	case OpPut:
		return "put"
	case OpDelete:
		return "delete"
	default:
		return fmt.Sprintf("invalid op %d", int(v))
	}
}

// Update describes one mutation of one row, as delivered to subscribers. The
// rows it carries are shared between subscribers and must not be modified.
type Update struct {
	table    *Table
	op       Op
	entity   Entity
	newRaw   RawRow
	oldRaw   RawRow
	newRow   Row
	oldRow   Row
	replayed bool
	err      error
}

func (u *Update) Table() *Table {
	return u.table
}
func (u *Update) Op() Op {
	return u.op
}
func (u *Update) Entity() Entity {
	return u.entity
}

// New is the row after the mutation, nil on removal.
func (u *Update) New() Row {
	return u.newRow
}

// Old is the row before the mutation, nil if it did not exist.
func (u *Update) Old() Row {
	return u.oldRow
}

// Value returns the [new, old] pair.
func (u *Update) Value() [2]Row {
	return [2]Row{u.newRow, u.oldRow}
}
func (u *Update) HasNew() bool {
	return u.newRaw != nil
}
func (u *Update) HasOld() bool {
	return u.oldRaw != nil
}
func (u *Update) RawNew() RawRow {
	return u.newRaw
}
func (u *Update) RawOld() RawRow {
	return u.oldRaw
}

// Replayed reports whether the update was synthesized from an existing row by
// the RunOnInit subscription option.
func (u *Update) Replayed() bool {
	return u.replayed
}

// Err is non-nil when New or Old could not be decoded, which happens only for
// rows written through SetRaw without type tags.
func (u *Update) Err() error {
	return u.err
}

func (u *Update) String() string {
	return fmt.Sprintf("%s %s/%s: %s -> %s", u.op, u.table.name, u.entity.Short(), loggableRow(u.table, u.oldRaw), loggableRow(u.table, u.newRaw))
}

func makeUpdate(tbl *Table, op Op, e Entity, newRaw, oldRaw RawRow) *Update {
	u := &Update{
		table:  tbl,
		op:     op,
		entity: e,
		newRaw: newRaw,
		oldRaw: oldRaw,
	}
	var err error
	u.newRow, err = tbl.decodeRow(e, newRaw)
	if err != nil {
		u.err = err
	}
	u.oldRow, err = tbl.decodeRow(e, oldRaw)
	if err != nil && u.err == nil {
		u.err = err
	}
	return u
}
