package tables

import (
	"fmt"
	"strings"
)

type DumpFlags uint64

const (
	DumpTableHeaders = DumpFlags(1 << iota)
	DumpRows
	DumpStats
	DumpKeys

	DumpAll = DumpFlags(0xFFFFFFFFFFFFFFFF)
)

var (
	dumpSep1 = strings.Repeat("=", 80)
	dumpSep2 = strings.Repeat("-", 60)
)

func (f DumpFlags) Contains(v DumpFlags) bool {
	return (f & v) == v
}

// Dump renders every table for debugging.
func (st *Store) Dump(f DumpFlags) string {
	var buf strings.Builder
	for _, tbl := range st.schema.tables {
		st.dumpTable(&buf, f, tbl)
	}
	return buf.String()
}

// DumpTable renders one table for debugging.
func (st *Store) DumpTable(tbl *Table, f DumpFlags) string {
	var buf strings.Builder
	st.dumpTable(&buf, f, tbl)
	return buf.String()
}

func (st *Store) dumpTable(w *strings.Builder, f DumpFlags, tbl *Table) {
	ts := st.mustTableState(tbl)
	s := st.TableStats(tbl)
	prefix := tbl.Name()

	if f.Contains(DumpTableHeaders) {
		fmt.Fprintln(w, dumpSep1)
		fmt.Fprintf(w, "%s (%d rows)\n", tbl.Describe(), s.Rows)
	}
	if f.Contains(DumpStats) {
		fmt.Fprintf(w, "%s.stats: frozen = %d, buffered = %d, subscribers = %d\n", prefix, s.Frozen, s.Buffered, s.Subscribers)
	}
	if f.Contains(DumpRows) {
		if f.Contains(DumpStats) {
			fmt.Fprintln(w, dumpSep2)
		}
		for _, e := range ts.entities() {
			st.dumpRow(w, f, tbl, ts, e)
		}
	}
}

func (st *Store) dumpRow(w *strings.Builder, f DumpFlags, tbl *Table, ts *tableState, e Entity) {
	label := string(e)
	if e == SingletonEntity {
		label = "<singleton>"
	} else if f.Contains(DumpKeys) && !tbl.IsSingleton() {
		if keys, err := tbl.KeysOf(e); err == nil {
			label = formatKeys(tbl.keySchema, keys)
		}
	}
	var flags string
	if ov := ts.overrides[e]; ov != nil {
		flags = " FROZEN"
		if ov.hasBuffered {
			flags += " buffered=" + loggableRow(tbl, ov.buffered)
		}
	}
	raw := ts.rows[e]
	if _, err := tbl.decodeRow(e, raw); err != nil {
		fmt.Fprintf(w, "%s/%s = ** ERROR: %v\n", tbl.Name(), label, err)
		return
	}
	fmt.Fprintf(w, "%s/%s = %s%s\n", tbl.Name(), label, loggableRow(tbl, raw), flags)
}

func formatKeys(ks KeySchema, keys Keys) string {
	var buf strings.Builder
	for i, kf := range ks {
		if i > 0 {
			buf.WriteByte('|')
		}
		fmt.Fprint(&buf, keys[kf.Name])
	}
	return buf.String()
}
