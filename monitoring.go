package tables

type TableStats struct {
	Rows        int
	Frozen      int
	Buffered    int
	Subscribers int
	DataSize    int
}

func (st *Store) TableStats(tbl *Table) TableStats {
	ts := st.mustTableState(tbl)
	result := TableStats{
		Rows:        len(ts.rows),
		Frozen:      len(ts.overrides),
		Subscribers: len(ts.subs),
	}
	for _, ov := range ts.overrides {
		if ov.hasBuffered {
			result.Buffered++
		}
	}
	for e, raw := range ts.rows {
		result.DataSize += len(e)
		for name, rf := range raw {
			result.DataSize += len(name) + len(rf.Data) + 1
		}
	}
	return result
}
