package tables

import (
	"math/big"
	"strings"
	"testing"
)

const testAddr = "0x5fbdb2315678afecb367f032d93f642f64180aa3"

func TestEncodeKey_singleBytes32PassesThrough(t *testing.T) {
	ks := KeySchema{{"entity", KeyBytes32}}
	e := must(EncodeKey(ks, Keys{"entity": ent(7)}))
	deepEqual(t, e, ent(7))
	deepEqual(t, must(DecodeKey(ks, e)), Keys{"entity": ent(7)})
}

func TestEncodeKey_roundTrip(t *testing.T) {
	tests := []struct {
		ks   KeySchema
		keys Keys
	}{
		{
			KeySchema{{"slot", KeyUint8}},
			Keys{"slot": uint64(255)},
		},
		{
			KeySchema{{"owner", KeyAddress}, {"slot", KeyUint32}},
			Keys{"owner": testAddr, "slot": uint64(12)},
		},
		{
			KeySchema{{"x", KeyInt32}, {"y", KeyInt32}, {"open", KeyBool}},
			Keys{"x": int64(-3), "y": int64(4), "open": false},
		},
		{
			KeySchema{{"owner", KeyAddress}, {"id", KeyBytes32}, {"delta", KeyInt64}, {"active", KeyBool}},
			Keys{"owner": testAddr, "id": ent(9), "delta": int64(-7), "active": true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.ks.String(), func(t *testing.T) {
			e, err := EncodeKey(tt.ks, tt.keys)
			ok(t, err)
			deepEqual(t, e.Segments(), len(tt.ks))
			deepEqual(t, must(DecodeKey(tt.ks, e)), tt.keys)
		})
	}
}

func TestEncodeKey_layout(t *testing.T) {
	ks := KeySchema{{"owner", KeyAddress}, {"delta", KeyInt64}, {"active", KeyBool}}
	e := must(EncodeKey(ks, Keys{"owner": testAddr, "delta": -7, "active": true}))

	hexs := strings.TrimPrefix(string(e), "0x")
	seg := func(i int) string { return hexs[i*64 : (i+1)*64] }
	deepEqual(t, seg(0), strings.Repeat("0", 24)+strings.TrimPrefix(testAddr, "0x"))
	deepEqual(t, seg(1), strings.Repeat("ff", 31)+"f9")
	deepEqual(t, seg(2), strings.Repeat("0", 63)+"1")
}

func TestEncodeKey_wideIntegers(t *testing.T) {
	ks := KeySchema{{"max", KeyUint256}, {"min", KeyInt256}}
	umax := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	imin := new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 255))

	e := must(EncodeKey(ks, Keys{"max": umax, "min": imin}))
	deepEqual(t, string(e), "0x"+strings.Repeat("ff", 32)+"80"+strings.Repeat("00", 31))

	keys := must(DecodeKey(ks, e))
	if n, _ := keys["max"].(*big.Int); n == nil || n.Cmp(umax) != 0 {
		t.Errorf("** max: got %v, wanted %v", keys["max"], umax)
	}
	if n, _ := keys["min"].(*big.Int); n == nil || n.Cmp(imin) != 0 {
		t.Errorf("** min: got %v, wanted %v", keys["min"], imin)
	}
}

func TestEncodeKey_errors(t *testing.T) {
	ks := KeySchema{{"a", KeyUint8}, {"b", KeyBool}}

	_, err := EncodeKey(ks, Keys{"a": 1})
	isErr(t, err, ErrSchemaMismatch)
	_, err = EncodeKey(ks, Keys{"a": 1, "c": true})
	isErr(t, err, ErrSchemaMismatch)
	_, err = EncodeKey(nil, Keys{})
	isErr(t, err, ErrSchemaMismatch)
	_, err = EncodeKey(ks, Keys{"a": 256, "b": true})
	isErr(t, err, ErrValueType)
	_, err = EncodeKey(ks, Keys{"a": -1, "b": true})
	isErr(t, err, ErrValueType)
	_, err = EncodeKey(ks, Keys{"a": 1, "b": "yes"})
	isErr(t, err, ErrValueType)
	_, err = EncodeKey(KeySchema{{"owner", KeyAddress}}, Keys{"owner": "0x1234"})
	isErr(t, err, ErrValueType)
}

func TestDecodeKey_errors(t *testing.T) {
	ks := KeySchema{{"a", KeyUint8}, {"b", KeyBool}}

	_, err := DecodeKey(ks, ent(1))
	isErr(t, err, ErrSchemaMismatch)
	_, err = DecodeKey(ks, Entity("0x0102"))
	isErr(t, err, ErrMalformedEntity)
	_, err = DecodeKey(ks, Entity("0xzz"))
	isErr(t, err, ErrMalformedEntity)

	big8 := must(EncodeKey(KeySchema{{"a", KeyUint16}, {"b", KeyBool}}, Keys{"a": 300, "b": true}))
	_, err = DecodeKey(ks, big8)
	isErr(t, err, ErrMalformedEntity)

	badBool := must(EncodeKey(KeySchema{{"a", KeyUint8}, {"b", KeyUint8}}, Keys{"a": 1, "b": 2}))
	_, err = DecodeKey(ks, badBool)
	isErr(t, err, ErrMalformedEntity)
}

func TestParseKeyType(t *testing.T) {
	deepEqual(t, must(ParseKeyType("uint")), KeyUint256)
	deepEqual(t, must(ParseKeyType("INT16")), KeyInt16)
	deepEqual(t, must(ParseKeyType("address")), KeyAddress)
	deepEqual(t, KeyUint(24).String(), "uint24")
	for _, s := range []string{"uint7", "int264", "uint0", "string", ""} {
		if _, err := ParseKeyType(s); err == nil {
			t.Errorf("** ParseKeyType(%q) succeeded", s)
		}
	}
}

func TestTable_EntityOf(t *testing.T) {
	e := must(inventoryTable.EntityOf(Keys{"owner": testAddr, "slot": 3}))
	deepEqual(t, must(inventoryTable.KeysOf(e)), Keys{"owner": testAddr, "slot": uint64(3)})
	deepEqual(t, must(configTable.EntityOf(nil)), SingletonEntity)
	deepEqual(t, must(inventoryTable.EntityOf(Keys{})), SingletonEntity)

	_, err := inventoryTable.EntityOf(Keys{"owner": testAddr})
	isErr(t, err, ErrSchemaMismatch)
}
