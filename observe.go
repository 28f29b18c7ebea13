package tables

// Observe calls fn with the current value of e's row, then again with the new
// value (nil once removed) each time an update for e is delivered. It is the
// adapter for presentation code that re-renders on change.
func (st *Store) Observe(tbl *Table, e Entity, fn func(row Row)) (*Subscription, error) {
	row, err := st.Get(tbl, e)
	if err != nil {
		return nil, err
	}
	sub, err := st.Subscribe(tbl, func(u *Update) {
		if u.Err() != nil {
			return
		}
		fn(u.New())
	}, OnlyEntity(e))
	if err != nil {
		return nil, err
	}
	fn(row)
	return sub, nil
}
