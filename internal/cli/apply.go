package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	tables "github.com/primodiumxyz/reactive-tables-sub000"
	"github.com/primodiumxyz/reactive-tables-sub000/internal/records"
)

type applyFlags struct {
	table    string
	with     []string
	without  []string
	noDump   bool
	stats    bool
	snapshot string
	restore  string
}

func newApplyCmd(a *app) *cobra.Command {
	var f applyFlags
	cmd := &cobra.Command{
		Use:   "apply [RECORDS...]",
		Short: "Apply record files to an empty store and print the result",
		Long: "Apply reads JSON Lines record files (standard input if none or \"-\") into an\n" +
			"empty store, then dumps it. With --table it restricts output to one table and\n" +
			"can run --with/--without queries, write a snapshot or restore one first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runApply(cmd, args, &f)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.table, "table", "t", "", "restrict output to this table")
	fl.StringArrayVar(&f.with, "with", nil, "print entities whose FIELD equals VALUE (FIELD=VALUE, repeatable, needs --table)")
	fl.StringArrayVar(&f.without, "without", nil, "print entities whose FIELD differs from VALUE (needs --table)")
	fl.BoolVar(&f.noDump, "no-dump", false, "do not dump rows")
	fl.BoolVar(&f.stats, "stats", false, "include per-table statistics in the dump")
	fl.StringVar(&f.snapshot, "snapshot", "", "write a snapshot of --table to this file")
	fl.StringVar(&f.restore, "restore", "", "restore a snapshot of --table from this file before applying")
	return cmd
}

func (a *app) runApply(cmd *cobra.Command, args []string, f *applyFlags) error {
	scm, err := a.loadSchema()
	if err != nil {
		return err
	}
	var tbl *tables.Table
	if f.table != "" {
		tbl, err = a.tableNamed(scm, f.table)
		if err != nil {
			return err
		}
	} else if len(f.with) > 0 || len(f.without) > 0 || f.snapshot != "" || f.restore != "" {
		return fmt.Errorf("--with, --without, --snapshot and --restore need --table")
	}

	st := a.newStore(scm)
	if f.restore != "" {
		data, err := os.ReadFile(f.restore)
		if err != nil {
			return fmt.Errorf("read snapshot: %w", err)
		}
		if err := st.Restore(tbl, data); err != nil {
			return err
		}
	}
	if err := a.applyFiles(cmd, st, args); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if !f.noDump {
		flags := tables.DumpTableHeaders | tables.DumpRows | tables.DumpKeys
		if f.stats {
			flags |= tables.DumpStats
		}
		if tbl != nil {
			io.WriteString(w, st.DumpTable(tbl, flags))
		} else {
			io.WriteString(w, st.Dump(flags))
		}
	}
	if len(f.with) > 0 || len(f.without) > 0 {
		if err := runQuery(w, st, tbl, f.with, f.without); err != nil {
			return err
		}
	}
	if f.snapshot != "" {
		data, err := st.Snapshot(tbl)
		if err != nil {
			return err
		}
		if err := os.WriteFile(f.snapshot, data, 0o644); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		a.logger.Info("snapshot written", "table", tbl.Name(), "rows", st.Len(tbl), "bytes", len(data), "path", f.snapshot)
	}
	return nil
}

// applyFiles applies each named records file in order; no names or "-" mean
// standard input.
func (a *app) applyFiles(cmd *cobra.Command, st *tables.Store, names []string) error {
	if len(names) == 0 {
		names = []string{"-"}
	}
	for _, name := range names {
		var r io.Reader
		if name == "-" {
			r = cmd.InOrStdin()
			name = "<stdin>"
		} else {
			file, err := os.Open(name)
			if err != nil {
				return fmt.Errorf("failed to open records file %s: %w", name, err)
			}
			defer func() {
				_ = file.Close()
			}()
			r = file
		}
		n, err := records.ApplyAll(st, r)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		a.logger.Info("records applied", "file", name, "count", n)
	}
	return nil
}

func runQuery(w io.Writer, st *tables.Store, tbl *tables.Table, with, without []string) error {
	var result []tables.Entity
	if len(with) > 0 {
		partial, err := parseAssignments(tbl, with)
		if err != nil {
			return err
		}
		result, err = st.AllWith(tbl, partial)
		if err != nil {
			return err
		}
	}
	if len(without) > 0 {
		partial, err := parseAssignments(tbl, without)
		if err != nil {
			return err
		}
		excluded, err := st.AllWithout(tbl, partial)
		if err != nil {
			return err
		}
		if len(with) > 0 {
			result = intersect(result, excluded)
		} else {
			result = excluded
		}
	}
	for _, e := range result {
		if tbl.IsSingleton() {
			fmt.Fprintln(w, e)
			continue
		}
		keys, err := tbl.KeysOf(e)
		if err != nil {
			fmt.Fprintln(w, e)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\n", e, formatKeys(tbl.KeySchema(), keys))
	}
	return nil
}

// parseAssignments turns FIELD=VALUE arguments into a typed partial row.
// VALUE is read as JSON when it parses, and as a bare string otherwise.
func parseAssignments(tbl *tables.Table, args []string) (tables.Row, error) {
	values := make(map[string]any, len(args))
	for _, arg := range args {
		name, text, found := strings.Cut(arg, "=")
		if !found || name == "" {
			return nil, fmt.Errorf("invalid assignment %q, wanted FIELD=VALUE", arg)
		}
		values[name] = parseJSONValue(text)
	}
	return records.CoerceRow(tbl, values)
}

func parseJSONValue(text string) any {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return text
	}
	return v
}

// intersect keeps the elements of a that are also in b. Both are sorted.
func intersect(a, b []tables.Entity) []tables.Entity {
	var result []tables.Entity
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			result = append(result, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return result
}

func formatKeys(ks tables.KeySchema, keys tables.Keys) string {
	parts := make([]string, len(ks))
	for i, kf := range ks {
		parts[i] = fmt.Sprintf("%s=%v", kf.Name, keys[kf.Name])
	}
	return strings.Join(parts, " ")
}
