package tables

// Keyed accessors derive the entity from structured keys using the table's
// key schema. Nil or empty keys address SingletonEntity.

func (st *Store) GetWithKeys(tbl *Table, keys Keys) (Row, error) {
	e, err := tbl.EntityOf(keys)
	if err != nil {
		return nil, err
	}
	return st.Get(tbl, e)
}

func (st *Store) SetWithKeys(tbl *Table, keys Keys, row Row) error {
	e, err := tbl.EntityOf(keys)
	if err != nil {
		return err
	}
	return st.Set(tbl, e, row)
}

func (st *Store) UpdateWithKeys(tbl *Table, keys Keys, partial Row) error {
	e, err := tbl.EntityOf(keys)
	if err != nil {
		return err
	}
	return st.Update(tbl, e, partial)
}

func (st *Store) HasWithKeys(tbl *Table, keys Keys) (bool, error) {
	e, err := tbl.EntityOf(keys)
	if err != nil {
		return false, err
	}
	return st.Has(tbl, e), nil
}

func (st *Store) RemoveWithKeys(tbl *Table, keys Keys) error {
	e, err := tbl.EntityOf(keys)
	if err != nil {
		return err
	}
	st.Remove(tbl, e)
	return nil
}

// EntityKeys returns the key values e was derived from.
func (st *Store) EntityKeys(tbl *Table, e Entity) (Keys, error) {
	if _, err := st.tableState(tbl); err != nil {
		return nil, err
	}
	return tbl.KeysOf(e)
}

// ObserveWithKeys is Observe addressed by keys.
func (st *Store) ObserveWithKeys(tbl *Table, keys Keys, fn func(row Row)) (*Subscription, error) {
	e, err := tbl.EntityOf(keys)
	if err != nil {
		return nil, err
	}
	return st.Observe(tbl, e, fn)
}
