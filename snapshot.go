package tables

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

const snapshotFormatVer = 1

// Snapshot layout (msgpack): {"v": 1, "tbl": name, "rows": [{"e": entity, "f": [{"n": name, "t": tag, "d": data}]}]}.
// Rows are in entity order and fields in name order, so equal tables produce
// equal bytes.
type snapshot struct {
	Ver   int           `msgpack:"v"`
	Table string        `msgpack:"tbl"`
	Rows  []snapshotRow `msgpack:"rows"`
}

type snapshotRow struct {
	Entity Entity          `msgpack:"e"`
	Fields []snapshotField `msgpack:"f"`
}

type snapshotField struct {
	Name string `msgpack:"n"`
	Type uint8  `msgpack:"t"`
	Data string `msgpack:"d"`
}

// Snapshot encodes the stored rows of tbl. Frozen entities contribute their
// stored row, not the value their freeze displays.
func (st *Store) Snapshot(tbl *Table) ([]byte, error) {
	ts, err := st.tableState(tbl)
	if err != nil {
		return nil, err
	}
	snap := snapshot{
		Ver:   snapshotFormatVer,
		Table: tbl.name,
		Rows:  make([]snapshotRow, 0, len(ts.rows)),
	}
	for _, e := range ts.entities() {
		raw := ts.rows[e]
		row := snapshotRow{Entity: e, Fields: make([]snapshotField, 0, len(raw))}
		for _, name := range sortedKeys(raw) {
			rf := raw[name]
			row.Fields = append(row.Fields, snapshotField{name, uint8(rf.Type), rf.Data})
		}
		snap.Rows = append(snap.Rows, row)
	}

	var buf bytes.Buffer
	enc := msgpack.GetEncoder()
	enc.Reset(&buf)
	err = enc.Encode(&snap)
	msgpack.PutEncoder(enc)
	if err != nil {
		return nil, tableErrf(tbl, "", "", err, "failed to encode snapshot using MsgPack")
	}
	return buf.Bytes(), nil
}

// Restore writes every row of a snapshot of tbl into the store, in entity
// order, notifying subscribers as Set would. Rows the snapshot does not
// mention are left alone.
func (st *Store) Restore(tbl *Table, data []byte) error {
	ts, err := st.tableState(tbl)
	if err != nil {
		return err
	}

	var snap snapshot
	dec := msgpack.GetDecoder()
	dec.Reset(bytes.NewReader(data))
	err = dec.Decode(&snap)
	msgpack.PutDecoder(dec)
	if err != nil {
		return tableErrf(tbl, "", "", dataErrf(data, 0, err, "failed to decode msgpack snapshot"), "")
	}
	if snap.Ver != snapshotFormatVer {
		return tableErrf(tbl, "", "", nil, "unsupported snapshot version %d", snap.Ver)
	}
	if !strings.EqualFold(snap.Table, tbl.name) {
		return tableErrf(tbl, "", "", ErrUnknownTable, "snapshot is of table %q", snap.Table)
	}

	rows := make(map[Entity]RawRow, len(snap.Rows))
	for _, sr := range snap.Rows {
		e := sr.Entity
		if _, dup := rows[e]; dup {
			return tableErrf(tbl, e, "", nil, "duplicate row in snapshot")
		}
		raw := make(RawRow, len(sr.Fields))
		for _, f := range sr.Fields {
			ft := FieldType(f.Type)
			if ft != FieldTypeNone && !ft.Valid() {
				return tableErrf(tbl, e, f.Name, nil, "invalid type tag %d", f.Type)
			}
			raw[f.Name] = RawField{ft, f.Data}
		}
		if err := tbl.checkRawFields(raw); err != nil {
			return withEntity(err, e)
		}
		rows[e] = raw
	}
	for _, e := range sortedKeys(rows) {
		ts.put(e, rows[e])
	}
	if st.verbose {
		st.logger.Debug(fmt.Sprintf("tables: RESTORE %d rows", len(rows)), "table", tbl.name)
	}
	return nil
}
