package tables

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// SegmentSize is the width in bytes of one entity segment. Entities derived
// from a key schema carry one segment per key field.
const SegmentSize = 32

// Entity is an opaque row identifier: "0x" followed by lowercase hex digits
// whose byte length is a multiple of SegmentSize.
type Entity string

// SingletonEntity is the reserved id used for tables with no key fields, and
// for keyed accessors called without keys.
const SingletonEntity Entity = "0x000000000000000000000000000000000000000000000000000000000000060d"

// EntityFromBytes renders raw bytes as an Entity. The length is not checked;
// use ParseEntity to validate.
func EntityFromBytes(b []byte) Entity {
	return Entity("0x" + hex.EncodeToString(b))
}

// ParseEntity validates and canonicalizes (lowercases, adds "0x") s.
func ParseEntity(s string) (Entity, error) {
	b, err := Entity(s).Bytes()
	if err != nil {
		return "", err
	}
	return EntityFromBytes(b), nil
}

// Bytes decodes the hex form. It fails with ErrMalformedEntity when the text is
// not hex or the byte length is not a positive multiple of SegmentSize.
func (e Entity) Bytes() ([]byte, error) {
	b, err := decodeHex(string(e))
	if err != nil {
		return nil, dataErrf([]byte(e), 0, ErrMalformedEntity, "invalid entity hex")
	}
	if len(b) == 0 || len(b)%SegmentSize != 0 {
		return nil, dataErrf(b, len(b), ErrMalformedEntity, "entity length %d is not a multiple of %d", len(b), SegmentSize)
	}
	return b, nil
}

// Segments returns the number of SegmentSize segments in e, or 0 if e is malformed.
func (e Entity) Segments() int {
	b, err := e.Bytes()
	if err != nil {
		return 0
	}
	return len(b) / SegmentSize
}

func (e Entity) String() string {
	return string(e)
}

// Short returns an abbreviated form for logs.
func (e Entity) Short() string {
	s := string(e)
	if len(s) <= 14 {
		return s
	}
	return s[:8] + ".." + s[len(s)-4:]
}

// HashEntity derives a one-way identity from the keccak-256 hash of the
// concatenated parts. The result is a single segment.
func HashEntity(parts ...[]byte) Entity {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}
	return EntityFromBytes(h.Sum(nil))
}

// HashEntities hashes the byte forms of ids, in order. Malformed ids
// contribute their raw text.
func HashEntities(ids ...Entity) Entity {
	parts := make([][]byte, len(ids))
	for i, id := range ids {
		b, err := id.Bytes()
		if err != nil {
			b = []byte(id)
		}
		parts[i] = b
	}
	return HashEntity(parts...)
}
