package tables

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

type KeyKind uint8

const (
	KeyKindNone KeyKind = iota
	KeyKindUint
	KeyKindInt
	KeyKindBool
	KeyKindAddress
	KeyKindBytes32
)

// KeyType is a primitive key field type. Each key field occupies exactly one
// SegmentSize segment of the entity id. Bits is meaningful only for
// KeyKindUint and KeyKindInt and is a multiple of 8 in 8..256.
type KeyType struct {
	Kind KeyKind
	Bits int
}

var (
	KeyUint8   = KeyType{KeyKindUint, 8}
	KeyUint16  = KeyType{KeyKindUint, 16}
	KeyUint32  = KeyType{KeyKindUint, 32}
	KeyUint64  = KeyType{KeyKindUint, 64}
	KeyUint128 = KeyType{KeyKindUint, 128}
	KeyUint256 = KeyType{KeyKindUint, 256}
	KeyInt8    = KeyType{KeyKindInt, 8}
	KeyInt16   = KeyType{KeyKindInt, 16}
	KeyInt32   = KeyType{KeyKindInt, 32}
	KeyInt64   = KeyType{KeyKindInt, 64}
	KeyInt128  = KeyType{KeyKindInt, 128}
	KeyInt256  = KeyType{KeyKindInt, 256}
	KeyBool    = KeyType{Kind: KeyKindBool}
	KeyAddress = KeyType{Kind: KeyKindAddress}
	KeyBytes32 = KeyType{Kind: KeyKindBytes32}
)

// KeyUint returns the unsigned integer key type of the given width.
func KeyUint(bits int) KeyType {
	return mustIntKeyType(KeyKindUint, bits)
}

// KeyInt returns the signed integer key type of the given width.
func KeyInt(bits int) KeyType {
	return mustIntKeyType(KeyKindInt, bits)
}

func mustIntKeyType(kind KeyKind, bits int) KeyType {
	kt := KeyType{kind, bits}
	if !kt.Valid() {
		panic(fmt.Errorf("invalid integer key width %d", bits))
	}
	return kt
}

func (kt KeyType) Valid() bool {
	switch kt.Kind {
	case KeyKindUint, KeyKindInt:
		return kt.Bits >= 8 && kt.Bits <= 256 && kt.Bits%8 == 0
	case KeyKindBool, KeyKindAddress, KeyKindBytes32:
		return kt.Bits == 0
	default:
		return false
	}
}

func (kt KeyType) String() string {
	switch kt.Kind {
	case KeyKindUint:
		return "uint" + strconv.Itoa(kt.Bits)
	case KeyKindInt:
		return "int" + strconv.Itoa(kt.Bits)
	case KeyKindBool:
		return "bool"
	case KeyKindAddress:
		return "address"
	case KeyKindBytes32:
		return "bytes32"
	default:
		return fmt.Sprintf("invalid key type %d/%d", kt.Kind, kt.Bits)
	}
}

// ParseKeyType parses names like "uint32", "int256", "bool", "address" and "bytes32".
func ParseKeyType(s string) (KeyType, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "bool":
		return KeyBool, nil
	case "address":
		return KeyAddress, nil
	case "bytes32":
		return KeyBytes32, nil
	}
	var kt KeyType
	var rest string
	if after, ok := strings.CutPrefix(s, "uint"); ok {
		kt.Kind, rest = KeyKindUint, after
	} else if after, ok := strings.CutPrefix(s, "int"); ok {
		kt.Kind, rest = KeyKindInt, after
	} else {
		return KeyType{}, fmt.Errorf("unknown key type %q", s)
	}
	if rest == "" {
		rest = "256"
	}
	bits, err := strconv.Atoi(rest)
	if err != nil {
		return KeyType{}, fmt.Errorf("unknown key type %q", s)
	}
	kt.Bits = bits
	if !kt.Valid() {
		return KeyType{}, fmt.Errorf("invalid key type %q", s)
	}
	return kt, nil
}

func (kt KeyType) MarshalText() ([]byte, error) {
	if !kt.Valid() {
		return nil, fmt.Errorf("cannot marshal %v", kt)
	}
	return []byte(kt.String()), nil
}

func (kt *KeyType) UnmarshalText(b []byte) error {
	v, err := ParseKeyType(string(b))
	if err != nil {
		return err
	}
	*kt = v
	return nil
}

var (
	two256 = new(big.Int).Lsh(big.NewInt(1), 256)
)

// toBigInt converts the integer forms a caller may reasonably pass.
func toBigInt(v any) (*big.Int, bool) {
	switch v := v.(type) {
	case *big.Int:
		if v == nil {
			return nil, false
		}
		return new(big.Int).Set(v), true
	case big.Int:
		return new(big.Int).Set(&v), true
	case int:
		return big.NewInt(int64(v)), true
	case int8:
		return big.NewInt(int64(v)), true
	case int16:
		return big.NewInt(int64(v)), true
	case int32:
		return big.NewInt(int64(v)), true
	case int64:
		return big.NewInt(v), true
	case uint:
		return new(big.Int).SetUint64(uint64(v)), true
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), true
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), true
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), true
	case uint64:
		return new(big.Int).SetUint64(v), true
	default:
		return nil, false
	}
}

func (kt KeyType) bounds() (lo, hi *big.Int) {
	switch kt.Kind {
	case KeyKindUint:
		return new(big.Int), new(big.Int).Lsh(big.NewInt(1), uint(kt.Bits))
	case KeyKindInt:
		half := new(big.Int).Lsh(big.NewInt(1), uint(kt.Bits-1))
		return new(big.Int).Neg(half), half
	default:
		panic(fmt.Errorf("%v has no integer bounds", kt))
	}
}

// encodeSegment appends the 32-byte encoding of v to buf.
func (kt KeyType) encodeSegment(buf []byte, v any) ([]byte, error) {
	off, buf := grow(buf, SegmentSize)
	seg := buf[off:]
	clear(seg)

	switch kt.Kind {
	case KeyKindUint, KeyKindInt:
		n, ok := toBigInt(v)
		if !ok {
			return nil, fmt.Errorf("%w: %v wants an integer, got %T", ErrValueType, kt, v)
		}
		lo, hi := kt.bounds()
		if n.Cmp(lo) < 0 || n.Cmp(hi) >= 0 {
			return nil, fmt.Errorf("%w: %v out of range for %v", ErrValueType, n, kt)
		}
		if n.Sign() < 0 {
			n.Add(n, two256)
		}
		n.FillBytes(seg)
	case KeyKindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: bool key got %T", ErrValueType, v)
		}
		if b {
			seg[SegmentSize-1] = 1
		}
	case KeyKindAddress:
		raw, err := fixedBytes(v, 20)
		if err != nil {
			return nil, err
		}
		copy(seg[SegmentSize-20:], raw)
	case KeyKindBytes32:
		raw, err := fixedBytes(v, SegmentSize)
		if err != nil {
			return nil, err
		}
		copy(seg, raw)
	default:
		panic(fmt.Errorf("invalid key type %v", kt))
	}
	return buf, nil
}

func fixedBytes(v any, n int) ([]byte, error) {
	var s string
	switch v := v.(type) {
	case Entity:
		s = string(v)
	case string:
		s = v
	case []byte:
		if len(v) != n {
			return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrValueType, n, len(v))
		}
		return v, nil
	case [20]byte:
		if n != 20 {
			return nil, fmt.Errorf("%w: want %d bytes, got 20", ErrValueType, n)
		}
		return v[:], nil
	case [32]byte:
		if n != 32 {
			return nil, fmt.Errorf("%w: want %d bytes, got 32", ErrValueType, n)
		}
		return v[:], nil
	default:
		return nil, fmt.Errorf("%w: want %d-byte hex, got %T", ErrValueType, n, v)
	}
	raw, err := decodeHex(s)
	if err != nil || len(raw) != n {
		return nil, fmt.Errorf("%w: want %d-byte hex, got %q", ErrValueType, n, s)
	}
	return raw, nil
}

// decodeSegment is the inverse of encodeSegment. Integers up to 64 bits decode
// to uint64/int64, wider ones to *big.Int.
func (kt KeyType) decodeSegment(seg []byte) (any, error) {
	switch kt.Kind {
	case KeyKindUint:
		n := new(big.Int).SetBytes(seg)
		if n.BitLen() > kt.Bits {
			return nil, dataErrf(seg, 0, ErrMalformedEntity, "segment out of range for %v", kt)
		}
		if kt.Bits <= 64 {
			return n.Uint64(), nil
		}
		return n, nil
	case KeyKindInt:
		n := new(big.Int).SetBytes(seg)
		if seg[0]&0x80 != 0 {
			n.Sub(n, two256)
		}
		lo, hi := kt.bounds()
		if n.Cmp(lo) < 0 || n.Cmp(hi) >= 0 {
			return nil, dataErrf(seg, 0, ErrMalformedEntity, "segment out of range for %v", kt)
		}
		if kt.Bits <= 64 {
			return n.Int64(), nil
		}
		return n, nil
	case KeyKindBool:
		for _, b := range seg[:SegmentSize-1] {
			if b != 0 {
				return nil, dataErrf(seg, 0, ErrMalformedEntity, "invalid bool segment")
			}
		}
		switch seg[SegmentSize-1] {
		case 0:
			return false, nil
		case 1:
			return true, nil
		default:
			return nil, dataErrf(seg, SegmentSize-1, ErrMalformedEntity, "invalid bool segment")
		}
	case KeyKindAddress:
		for _, b := range seg[:SegmentSize-20] {
			if b != 0 {
				return nil, dataErrf(seg, 0, ErrMalformedEntity, "invalid address segment")
			}
		}
		return "0x" + hexstr(seg[SegmentSize-20:]), nil
	case KeyKindBytes32:
		return EntityFromBytes(seg), nil
	default:
		panic(fmt.Errorf("invalid key type %v", kt))
	}
}
