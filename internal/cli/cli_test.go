package cli

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tables "github.com/primodiumxyz/reactive-tables-sub000"
)

const testSchema = `
tables:
  - name: Position
    key:
      - {name: entity, type: bytes32}
    fields:
      x: number
      y: number
  - name: Inventory
    key:
      - {name: owner, type: address}
      - {name: slot, type: uint8}
    fields:
      labels: string[]
  - name: GameConfig
    fields:
      turnLength: bigint
`

const addr = "0x5fbdb2315678afecb367f032d93f642f64180aa3"

func ent(n byte) string {
	b := make([]byte, tables.SegmentSize)
	b[tables.SegmentSize-1] = n
	return string(tables.EntityFromBytes(b))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func setupFiles(t *testing.T) (schemaPath, recordsPath string) {
	t.Helper()
	dir := t.TempDir()
	schemaPath = writeFile(t, dir, "schema.yaml", testSchema)
	recordsPath = writeFile(t, dir, "records.jsonl", strings.Join([]string{
		`{"table": "Position", "entity": "` + ent(1) + `", "value": {"x": 1, "y": 2}}`,
		`{"table": "Position", "entity": "` + ent(2) + `", "value": {"x": 1, "y": 5}}`,
		`{"table": "Position", "entity": "` + ent(3) + `", "value": {"x": 4, "y": 2}}`,
		`{"table": "Inventory", "keys": {"owner": "` + addr + `", "slot": 3}, "value": {"labels": ["sword"]}}`,
		`{"table": "GameConfig", "value": {"turnLength": "600"}}`,
	}, "\n"))
	return schemaPath, recordsPath
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.Execute()
	if stderr.Len() > 0 {
		t.Log(stderr.String())
	}
	return stdout.String(), err
}

func contains(t *testing.T, out string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("** output lacks %q:\n%s", want, out)
		}
	}
}

func TestDescribe(t *testing.T) {
	schemaPath, _ := setupFiles(t)
	out, err := run(t, "", "--schema", schemaPath, "describe")
	if err != nil {
		t.Fatal(err)
	}
	contains(t, out,
		"Position(entity bytes32) {x number, y number}\tkeyed\n",
		"Inventory(owner address, slot uint8) {labels string[]}\tkeyed\n",
		"GameConfig {turnLength bigint}\tsingleton\n",
	)

	out, err = run(t, "", "--schema", schemaPath, "describe", "inventory")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(out, "\n") != 1 {
		t.Errorf("** describe inventory printed %q", out)
	}

	if _, err := run(t, "", "--schema", schemaPath, "describe", "Nope"); err == nil {
		t.Errorf("** describe of an unknown table succeeded")
	}
}

func TestDescribe_yamlRoundTrip(t *testing.T) {
	schemaPath, _ := setupFiles(t)
	out, err := run(t, "", "--schema", schemaPath, "describe", "--yaml")
	if err != nil {
		t.Fatal(err)
	}
	scm, err := tables.ParseSchemaYAML([]byte(out))
	if err != nil {
		t.Fatalf("** describe --yaml output does not parse: %v\n%s", err, out)
	}
	if len(scm.Tables()) != 3 {
		t.Errorf("** got %d tables, wanted 3", len(scm.Tables()))
	}
}

func TestSchemaFromEnv(t *testing.T) {
	schemaPath, _ := setupFiles(t)
	t.Setenv("TABLECTL_SCHEMA", schemaPath)
	out, err := run(t, "", "describe")
	if err != nil {
		t.Fatal(err)
	}
	contains(t, out, "GameConfig")
}

func TestMissingSchema(t *testing.T) {
	t.Setenv("TABLECTL_SCHEMA", "")
	if _, err := run(t, "", "describe"); err == nil || !strings.Contains(err.Error(), "no schema file") {
		t.Errorf("** got %v, wanted missing schema error", err)
	}
}

func TestApply(t *testing.T) {
	schemaPath, recordsPath := setupFiles(t)
	out, err := run(t, "", "-s", schemaPath, "apply", recordsPath)
	if err != nil {
		t.Fatal(err)
	}
	contains(t, out,
		"Position(entity bytes32) {x number, y number} (3 rows)",
		"Position/"+ent(1)+" = {x=1 y=2}",
		"Inventory/"+addr+"|3 = {labels=[\"sword\"]}",
		"GameConfig/<singleton> = {turnLength=600}",
	)
}

func TestApply_stdin(t *testing.T) {
	schemaPath, recordsPath := setupFiles(t)
	data, err := os.ReadFile(recordsPath)
	if err != nil {
		t.Fatal(err)
	}
	out, err := run(t, string(data), "-s", schemaPath, "apply", "--table", "GameConfig", "--stats")
	if err != nil {
		t.Fatal(err)
	}
	contains(t, out, "GameConfig.stats: frozen = 0, buffered = 0, subscribers = 0")
	if strings.Contains(out, "Position") {
		t.Errorf("** --table output includes other tables:\n%s", out)
	}
}

func TestApply_queries(t *testing.T) {
	schemaPath, recordsPath := setupFiles(t)

	out, err := run(t, "", "-s", schemaPath, "apply", recordsPath, "--no-dump", "-t", "Position", "--with", "x=1")
	if err != nil {
		t.Fatal(err)
	}
	if want := ent(1) + "\tentity=" + ent(1) + "\n" + ent(2) + "\tentity=" + ent(2) + "\n"; out != want {
		t.Errorf("** --with x=1 printed %q, wanted %q", out, want)
	}

	out, err = run(t, "", "-s", schemaPath, "apply", recordsPath, "--no-dump", "-t", "Position", "--with", "y=2", "--without", "x=1")
	if err != nil {
		t.Fatal(err)
	}
	if want := ent(3) + "\tentity=" + ent(3) + "\n"; out != want {
		t.Errorf("** --with y=2 --without x=1 printed %q, wanted %q", out, want)
	}

	if _, err := run(t, "", "-s", schemaPath, "apply", recordsPath, "--with", "x=1"); err == nil {
		t.Errorf("** --with without --table succeeded")
	}
	if _, err := run(t, "", "-s", schemaPath, "apply", recordsPath, "-t", "Position", "--with", "z=1"); err == nil {
		t.Errorf("** query on an unknown field succeeded")
	}
}

func TestApply_snapshotRestore(t *testing.T) {
	schemaPath, recordsPath := setupFiles(t)
	snapPath := filepath.Join(t.TempDir(), "position.msgpack")

	if _, err := run(t, "", "-s", schemaPath, "apply", recordsPath, "--no-dump", "-t", "Position", "--snapshot", snapPath); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, "", "-s", schemaPath, "apply", "-t", "Position", "--restore", snapPath)
	if err != nil {
		t.Fatal(err)
	}
	contains(t, out, "(3 rows)", "Position/"+ent(3)+" = {x=4 y=2}")
}

func TestApply_badRecord(t *testing.T) {
	schemaPath, _ := setupFiles(t)
	_, err := run(t, `{"table": "Position", "entity": "0x01"}`, "-s", schemaPath, "apply")
	if err == nil || !strings.Contains(err.Error(), "<stdin>: line 1:") {
		t.Errorf("** got %v, wanted a located error", err)
	}
}

func TestWatch_once(t *testing.T) {
	schemaPath, recordsPath := setupFiles(t)
	out, err := run(t, "", "-s", schemaPath, "watch", "--once", "-t", "Position", recordsPath)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("** got %d updates, wanted 3:\n%s", len(lines), out)
	}
	contains(t, lines[0], "put Position/", "<none> -> {x=1 y=2}")
}

func TestSyncStore(t *testing.T) {
	scm, err := tables.ParseSchemaYAML([]byte(testSchema))
	if err != nil {
		t.Fatal(err)
	}
	pos := scm.TableNamed("Position")
	live := tables.New(scm, tables.Options{})
	staged := tables.New(scm, tables.Options{})
	a, b, c := tables.Entity(ent(1)), tables.Entity(ent(2)), tables.Entity(ent(3))

	for _, st := range []*tables.Store{live, staged} {
		if err := st.Set(pos, a, tables.Row{"x": 1.0}); err != nil {
			t.Fatal(err)
		}
	}
	if err := live.Set(pos, b, tables.Row{"x": 2.0}); err != nil {
		t.Fatal(err)
	}
	if err := staged.Set(pos, c, tables.Row{"x": 3.0}); err != nil {
		t.Fatal(err)
	}

	var ops []string
	if _, err := live.Subscribe(pos, func(u *tables.Update) {
		ops = append(ops, u.Op().String()+" "+string(u.Entity()))
	}); err != nil {
		t.Fatal(err)
	}

	if n := syncStore(live, staged); n != 2 {
		t.Errorf("** syncStore changed %d rows, wanted 2", n)
	}
	if got, want := strings.Join(ops, ","), "delete "+string(b)+",put "+string(c); got != want {
		t.Errorf("** updates = %s, wanted %s", got, want)
	}
	if n := syncStore(live, staged); n != 0 {
		t.Errorf("** second syncStore changed %d rows, wanted 0", n)
	}
}

func TestKeyEncodeDecode(t *testing.T) {
	schemaPath, _ := setupFiles(t)

	out, err := run(t, "", "-s", schemaPath, "key", "encode", "Inventory", "owner="+addr, "slot=3")
	if err != nil {
		t.Fatal(err)
	}
	e := strings.TrimSpace(out)
	want := "0x" + strings.Repeat("0", 24) + addr[2:] + strings.Repeat("0", 63) + "3"
	if e != want {
		t.Fatalf("** key encode = %s, wanted %s", e, want)
	}

	out, err = run(t, "", "-s", schemaPath, "key", "decode", "Inventory", e)
	if err != nil {
		t.Fatal(err)
	}
	if want := "owner\taddress\t" + addr + "\nslot\tuint8\t3\n"; out != want {
		t.Errorf("** key decode = %q, wanted %q", out, want)
	}

	if _, err := run(t, "", "-s", schemaPath, "key", "encode", "Inventory", "slot=3"); err == nil {
		t.Errorf("** encoding a partial key succeeded")
	}
	if _, err := run(t, "", "-s", schemaPath, "key", "encode", "GameConfig"); err == nil {
		t.Errorf("** encoding a singleton key succeeded")
	}
}

func TestKeyEncode_spec(t *testing.T) {
	out, err := run(t, "", "key", "encode", "--key", "x int32, y:int32", "x=-1", "y=2")
	if err != nil {
		t.Fatal(err)
	}
	want := "0x" + strings.Repeat("ff", 32) + strings.Repeat("0", 63) + "2\n"
	if out != want {
		t.Errorf("** key encode = %q, wanted %q", out, want)
	}

	for _, spec := range []string{"x", "x int7", "x bool, x bool"} {
		if _, err := run(t, "", "key", "encode", "--key", spec, "x=1"); err == nil {
			t.Errorf("** --key %q accepted", spec)
		}
	}
}

func TestKeyHash(t *testing.T) {
	out, err := run(t, "", "key", "hash", "0x")
	if err != nil {
		t.Fatal(err)
	}
	if want := "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470\n"; out != want {
		t.Errorf("** key hash of nothing = %q, wanted %q", out, want)
	}

	a, err := run(t, "", "key", "hash", "0x6162", "c")
	if err != nil {
		t.Fatal(err)
	}
	b, err := run(t, "", "key", "hash", "abc")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("** hex and text parts hash differently: %s vs %s", a, b)
	}

	if _, err := run(t, "", "key", "hash", "0xzz"); err == nil {
		t.Errorf("** invalid hex accepted")
	}
}

func TestRecordsSchema(t *testing.T) {
	out, err := run(t, "", "records-schema")
	if err != nil {
		t.Fatal(err)
	}
	contains(t, out, `"table"`, `"entity"`)
}

func TestParseEnv(t *testing.T) {
	t.Setenv("TABLECTL_LOG_LEVEL", "debug")
	t.Setenv("TABLECTL_VERBOSE", "true")
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != slog.LevelDebug || !cfg.Verbose {
		t.Errorf("** ParseEnv = %+v", cfg)
	}

	t.Setenv("TABLECTL_LOG_LEVEL", "chatty")
	if err := ParseEnv(&cfg); err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Errorf("** ParseEnv with a bad level = %v", err)
	}
}

func TestLogLevelFlag(t *testing.T) {
	if _, err := run(t, "", "--log-level", "chatty", "records-schema"); err == nil {
		t.Errorf("** bad --log-level accepted")
	}
}
