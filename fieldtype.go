package tables

import (
	"fmt"
	"strings"
)

// FieldType is the closed set of value field types. The zero value means "no
// type tag" and is never a valid declared type.
type FieldType uint8

const (
	FieldTypeNone FieldType = iota
	Number
	BigInt
	Boolean
	String
	EntityRef
	NumberArray
	BigIntArray
	BooleanArray
	StringArray
	EntityArray

	fieldTypeCount
)

var fieldTypeNames = [fieldTypeCount]string{
	FieldTypeNone: "",
	Number:        "number",
	BigInt:        "bigint",
	Boolean:       "boolean",
	String:        "string",
	EntityRef:     "entity",
	NumberArray:   "number[]",
	BigIntArray:   "bigint[]",
	BooleanArray:  "boolean[]",
	StringArray:   "string[]",
	EntityArray:   "entity[]",
}

func (ft FieldType) Valid() bool {
	return ft > FieldTypeNone && ft < fieldTypeCount
}

func (ft FieldType) String() string {
	if ft == FieldTypeNone {
		return "none"
	}
	if !ft.Valid() {
		return fmt.Sprintf("invalid field type %d", int(ft))
	}
	return fieldTypeNames[ft]
}

func (ft FieldType) IsArray() bool {
	switch ft {
	case NumberArray, BigIntArray, BooleanArray, StringArray, EntityArray:
		return true
	default:
		return false
	}
}

// Elem returns the element type of an array type, or ft itself.
func (ft FieldType) Elem() FieldType {
	switch ft {
	case NumberArray:
		return Number
	case BigIntArray:
		return BigInt
	case BooleanArray:
		return Boolean
	case StringArray:
		return String
	case EntityArray:
		return EntityRef
	default:
		return ft
	}
}

// ParseFieldType accepts the names produced by String, plus a few common aliases.
func ParseFieldType(s string) (FieldType, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	array := false
	if before, ok := strings.CutSuffix(s, "[]"); ok {
		s, array = before, true
	}
	var ft FieldType
	switch s {
	case "number", "float", "float64":
		ft = Number
	case "bigint", "wideint":
		ft = BigInt
	case "boolean", "bool":
		ft = Boolean
	case "string", "text":
		ft = String
	case "entity":
		ft = EntityRef
	default:
		return FieldTypeNone, fmt.Errorf("unknown field type %q", s)
	}
	if array {
		switch ft {
		case Number:
			ft = NumberArray
		case BigInt:
			ft = BigIntArray
		case Boolean:
			ft = BooleanArray
		case String:
			ft = StringArray
		case EntityRef:
			ft = EntityArray
		}
	}
	return ft, nil
}

func (ft FieldType) MarshalText() ([]byte, error) {
	if !ft.Valid() {
		return nil, fmt.Errorf("cannot marshal %v", ft)
	}
	return []byte(ft.String()), nil
}

func (ft *FieldType) UnmarshalText(b []byte) error {
	v, err := ParseFieldType(string(b))
	if err != nil {
		return err
	}
	*ft = v
	return nil
}
