package tables

import (
	"errors"
	"log/slog"
	"math/big"
	"reflect"
	"testing"
)

var (
	basicSchema   = &Schema{}
	positionTable = AddTable(basicSchema, "Position", Fields{
		"x": Number,
		"y": Number,
	}, KeySchema{{"entity", KeyBytes32}})
	ownerTable = AddTable(basicSchema, "OwnedBy", Fields{
		"value": EntityRef,
	}, KeySchema{{"entity", KeyBytes32}})
	configTable = AddTable(basicSchema, "GameConfig", Fields{
		"turnLength": BigInt,
		"name":       String,
		"open":       Boolean,
	}, nil)
	inventoryTable = AddTable(basicSchema, "Inventory", Fields{
		"amount":  BigInt,
		"counts":  BigIntArray,
		"labels":  StringArray,
		"weights": NumberArray,
		"flags":   BooleanArray,
		"items":   EntityArray,
	}, KeySchema{{"owner", KeyAddress}, {"slot", KeyUint8}})
	secretTable = AddTable(basicSchema, "Secret", Fields{
		"seed": String,
	}, KeySchema{{"entity", KeyBytes32}}, SuppressContentWhenLogging)

	otherSchema = &Schema{}
	strayTable  = AddTable(otherSchema, "Position", Fields{"x": Number}, nil)
)

func ent(n byte) Entity {
	b := make([]byte, SegmentSize)
	b[SegmentSize-1] = n
	return EntityFromBytes(b)
}

type testLogWriter struct {
	t testing.TB
}

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

func setup(t testing.TB, schema *Schema) *Store {
	t.Helper()
	return New(schema, Options{
		Logger:  slog.New(slog.NewTextHandler(testLogWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug})),
		Verbose: true,
	})
}

func deepEqual[T any](t testing.TB, a, e T) {
	if !reflect.DeepEqual(a, e) {
		t.Helper()
		t.Errorf("** got %v, wanted %v", a, e)
	}
}

func isempty[T any, S ~[]T](t testing.TB, a S) {
	if len(a) > 0 {
		t.Helper()
		t.Errorf("** got %v, wanted empty slice", a)
	}
}

func isnil[M ~map[string]any](t testing.TB, a M) {
	if a != nil {
		t.Helper()
		t.Errorf("** got %v, wanted nil", a)
	}
}

func ok(t testing.TB, err error) {
	if err != nil {
		t.Helper()
		t.Fatalf("** unexpected error: %v", err)
	}
}

func isErr(t testing.TB, err, target error) {
	if !errors.Is(err, target) {
		t.Helper()
		t.Errorf("** got error %v, wanted %v", err, target)
	}
}

func bigEqual(t testing.TB, a any, e int64) {
	n, isBig := a.(*big.Int)
	if !isBig || n.Cmp(big.NewInt(e)) != 0 {
		t.Helper()
		t.Errorf("** got %T %v, wanted big %d", a, a, e)
	}
}

func TestStore_SetGet(t *testing.T) {
	st := setup(t, basicSchema)
	a, b := ent(1), ent(2)

	ok(t, st.Set(positionTable, a, Row{"x": 1.0, "y": 2.0}))
	ok(t, st.Set(positionTable, b, Row{"x": -3.5, "y": 0.0}))

	deepEqual(t, must(st.Get(positionTable, a)), Row{"x": 1.0, "y": 2.0})
	deepEqual(t, must(st.Get(positionTable, b)), Row{"x": -3.5, "y": 0.0})
	isnil(t, must(st.Get(positionTable, ent(3))))
	isnil(t, must(st.Get(ownerTable, a)))

	deepEqual(t, st.Has(positionTable, a), true)
	deepEqual(t, st.Has(positionTable, ent(3)), false)
	deepEqual(t, st.Entities(positionTable), []Entity{a, b})
	deepEqual(t, st.Len(positionTable), 2)
}

func TestStore_SetReplacesWholeRow(t *testing.T) {
	st := setup(t, basicSchema)
	a := ent(1)
	ok(t, st.Set(positionTable, a, Row{"x": 1.0, "y": 2.0}))
	ok(t, st.Set(positionTable, a, Row{"x": 5.0}))
	deepEqual(t, must(st.Get(positionTable, a)), Row{"x": 5.0})
}

func TestStore_UpdateMerges(t *testing.T) {
	st := setup(t, basicSchema)
	a := ent(1)

	ok(t, st.Update(positionTable, a, Row{"x": 1.0}))
	deepEqual(t, must(st.Get(positionTable, a)), Row{"x": 1.0})

	ok(t, st.Update(positionTable, a, Row{"y": 7.0}))
	deepEqual(t, must(st.Get(positionTable, a)), Row{"x": 1.0, "y": 7.0})

	ok(t, st.Update(positionTable, a, Row{"x": 2.0}))
	deepEqual(t, must(st.Get(positionTable, a)), Row{"x": 2.0, "y": 7.0})
}

func TestStore_EmptyRowIsPresent(t *testing.T) {
	st := setup(t, basicSchema)
	a := ent(1)
	ok(t, st.Set(positionTable, a, Row{}))
	deepEqual(t, st.Has(positionTable, a), true)
	deepEqual(t, must(st.Get(positionTable, a)), Row{})
}

func TestStore_GetOr(t *testing.T) {
	st := setup(t, basicSchema)
	def := Row{"x": 0.0, "y": 0.0}
	deepEqual(t, must(st.GetOr(positionTable, ent(1), def)), def)
	ok(t, st.Set(positionTable, ent(1), Row{"x": 1.0}))
	deepEqual(t, must(st.GetOr(positionTable, ent(1), def)), Row{"x": 1.0})
}

func TestStore_RemoveIsIdempotent(t *testing.T) {
	st := setup(t, basicSchema)
	a := ent(1)
	ok(t, st.Set(positionTable, a, Row{"x": 1.0}))

	st.Remove(positionTable, a)
	st.Remove(positionTable, a)
	deepEqual(t, st.Has(positionTable, a), false)
	isempty(t, st.Entities(positionTable))
}

func TestStore_Clear(t *testing.T) {
	st := setup(t, basicSchema)
	ok(t, st.Set(positionTable, ent(1), Row{"x": 1.0}))
	ok(t, st.Set(positionTable, ent(2), Row{"x": 2.0}))
	ok(t, st.Set(ownerTable, ent(1), Row{"value": ent(9)}))

	st.Clear(positionTable)
	isempty(t, st.Entities(positionTable))
	deepEqual(t, st.Entities(ownerTable), []Entity{ent(1)})
}

func TestStore_TypedValues(t *testing.T) {
	st := setup(t, basicSchema)
	ok(t, st.Set(configTable, SingletonEntity, Row{
		"turnLength": big.NewInt(60),
		"name":       "",
		"open":       true,
	}))
	row := must(st.Get(configTable, SingletonEntity))
	bigEqual(t, row["turnLength"], 60)
	deepEqual(t, row["name"], any(""))
	deepEqual(t, row["open"], any(true))

	ok(t, st.Set(ownerTable, ent(1), Row{"value": ent(2)}))
	deepEqual(t, must(st.Get(ownerTable, ent(1))), Row{"value": ent(2)})
}

func TestStore_RawPath(t *testing.T) {
	st := setup(t, basicSchema)
	a := ent(1)
	ok(t, st.Set(positionTable, a, Row{"x": 1.5}))

	raw, found := st.GetRaw(positionTable, a)
	deepEqual(t, found, true)
	deepEqual(t, raw, RawRow{"x": {Number, "1.5"}})

	raw["x"] = RawField{Number, "99"}
	deepEqual(t, must(st.Get(positionTable, a)), Row{"x": 1.5})

	ok(t, st.SetRaw(positionTable, a, RawRow{"y": {Number, "4"}}))
	deepEqual(t, must(st.Get(positionTable, a)), Row{"y": 4.0})
}

func TestStore_MissingTypeTag(t *testing.T) {
	st := setup(t, basicSchema)
	a := ent(1)
	ok(t, st.SetRaw(positionTable, a, RawRow{"x": {Data: "1"}}))

	_, err := st.Get(positionTable, a)
	isErr(t, err, ErrMissingTypeTag)

	var te *TableError
	if !errors.As(err, &te) || te.Entity != a || te.Field != "x" {
		t.Errorf("** got %#v, wanted a TableError for %s.x", err, a)
	}
}

func TestStore_Errors(t *testing.T) {
	st := setup(t, basicSchema)
	a := ent(1)

	isErr(t, st.Set(positionTable, a, Row{"z": 1.0}), ErrUnknownField)
	isErr(t, st.Update(positionTable, a, Row{"z": 1.0}), ErrUnknownField)
	isErr(t, st.SetRaw(positionTable, a, RawRow{"z": {Number, "1"}}), ErrUnknownField)
	isErr(t, st.Set(positionTable, a, Row{"x": "one"}), ErrValueType)
	isErr(t, st.Set(ownerTable, a, Row{"value": "0x01"}), ErrValueType)
	deepEqual(t, st.Has(positionTable, a), false)

	_, err := st.Get(strayTable, a)
	isErr(t, err, ErrUnknownTable)
	isErr(t, st.Set(strayTable, a, Row{"x": 1.0}), ErrUnknownTable)
	_, err = st.Get(nil, a)
	isErr(t, err, ErrUnknownTable)

	_, err = st.TableNamed("nope")
	isErr(t, err, ErrUnknownTable)
	tbl, err := st.TableNamed("position")
	ok(t, err)
	deepEqual(t, tbl, positionTable)
}

func TestStore_UnknownTablePanicsInAccessors(t *testing.T) {
	st := setup(t, basicSchema)
	defer func() {
		if p := recover(); p == nil {
			t.Fatalf("** Has on a foreign table did not panic")
		}
	}()
	st.Has(strayTable, ent(1))
}

func TestStore_ErrorsAreLocal(t *testing.T) {
	st := setup(t, basicSchema)
	ok(t, st.Set(positionTable, ent(1), Row{"x": 1.0}))
	ok(t, st.SetRaw(positionTable, ent(2), RawRow{"x": {Data: "1"}}))

	_, err := st.Get(positionTable, ent(2))
	isErr(t, err, ErrMissingTypeTag)
	deepEqual(t, must(st.Get(positionTable, ent(1))), Row{"x": 1.0})
}

func TestStore_Counters(t *testing.T) {
	st := setup(t, basicSchema)
	ok(t, st.Set(positionTable, ent(1), Row{"x": 1.0}))
	_ = must(st.Get(positionTable, ent(1)))
	deepEqual(t, st.WriteCount, uint64(1))
	deepEqual(t, st.ReadCount, uint64(1))
}
