package cli

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	tables "github.com/primodiumxyz/reactive-tables-sub000"
	"github.com/primodiumxyz/reactive-tables-sub000/internal/records"
)

type watchFlags struct {
	table       string
	minInterval time.Duration
	once        bool
}

func newWatchCmd(a *app) *cobra.Command {
	var f watchFlags
	cmd := &cobra.Command{
		Use:   "watch RECORDS",
		Short: "Print store updates as a records file changes",
		Long: "Watch applies a records file to a store and prints every update delivered to\n" +
			"subscribers. Each time the file changes it is re-read, and the store is brought\n" +
			"in line with it, so only rows that actually changed produce updates.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.runWatch(ctx, cmd.OutOrStdout(), args[0], &f)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.table, "table", "t", "", "only print updates of this table")
	fl.DurationVar(&f.minInterval, "min-interval", 200*time.Millisecond, "minimum time between reloads")
	fl.BoolVar(&f.once, "once", false, "apply the file once and exit")
	return cmd
}

func (a *app) runWatch(ctx context.Context, w io.Writer, path string, f *watchFlags) error {
	scm, err := a.loadSchema()
	if err != nil {
		return err
	}
	tbls := scm.Tables()
	if f.table != "" {
		tbl, err := a.tableNamed(scm, f.table)
		if err != nil {
			return err
		}
		tbls = []*tables.Table{tbl}
	}

	live := a.newStore(scm)
	for _, tbl := range tbls {
		sub, err := live.Subscribe(tbl, func(u *tables.Update) {
			fmt.Fprintln(w, u)
		})
		if err != nil {
			return err
		}
		defer sub.Unsubscribe()
	}

	reload := func() error {
		n, err := a.reload(live, path)
		if err != nil {
			return err
		}
		a.logger.Info("records reloaded", "file", path, "changed", n)
		return nil
	}
	if err := reload(); err != nil {
		return err
	}
	if f.once {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		_ = watcher.Close()
	}()
	// Editors often replace the file, so watch its directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	target := filepath.Clean(path)

	limiter := rate.NewLimiter(rate.Every(f.minInterval), 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := limiter.Wait(ctx); err != nil {
				return nil
			}
			drainEvents(watcher)
			if err := reload(); err != nil {
				a.logger.Warn("reload failed, keeping previous rows", "file", path, "err", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn("error watching records file", "file", path, "err", err)
		}
	}
}

// drainEvents discards events queued while waiting, since the reload that
// follows reads the file's latest content anyway.
func drainEvents(watcher *fsnotify.Watcher) {
	for {
		select {
		case <-watcher.Events:
		default:
			return
		}
	}
}

// reload applies the records file to a scratch store and then syncs live to
// it. A file that fails to apply leaves live untouched.
func (a *app) reload(live *tables.Store, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open records file %s: %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	staged := tables.New(live.Schema(), tables.Options{Logger: a.logger})
	if _, err := records.ApplyAll(staged, file); err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return syncStore(live, staged), nil
}

// syncStore makes every table of live hold exactly the rows of staged, writing
// only rows that differ. It returns the number of rows written or removed.
func syncStore(live, staged *tables.Store) int {
	var n int
	for _, tbl := range live.Schema().Tables() {
		for _, e := range live.Entities(tbl) {
			if !staged.Has(tbl, e) {
				live.Remove(tbl, e)
				n++
			}
		}
		for _, e := range staged.Entities(tbl) {
			want, _ := staged.GetRaw(tbl, e)
			if got, found := live.GetRaw(tbl, e); found && maps.Equal(got, want) {
				continue
			}
			// staged shares live's schema
			if err := live.SetRaw(tbl, e, want); err != nil {
				panic(err)
			}
			n++
		}
	}
	return n
}
