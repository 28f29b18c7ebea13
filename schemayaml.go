package tables

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Schema files list tables in declaration order:
//
//	tables:
//	  - name: Position
//	    key:
//	      - {name: entity, type: bytes32}
//	    fields:
//	      x: number
//	      y: number
//	  - name: GameConfig
//	    fields:
//	      turnLength: bigint
type schemaFile struct {
	Tables []tableDecl `yaml:"tables"`
}

type tableDecl struct {
	Name            string               `yaml:"name"`
	Key             []keyFieldDecl       `yaml:"key,omitempty"`
	Fields          map[string]FieldType `yaml:"fields"`
	SuppressContent bool                 `yaml:"suppressContent,omitempty"`
}

type keyFieldDecl struct {
	Name string  `yaml:"name"`
	Type KeyType `yaml:"type"`
}

// ParseSchemaYAML declares the tables of a schema file on a new Schema.
func ParseSchemaYAML(data []byte) (*Schema, error) {
	var sf schemaFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sf); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}

	seen := make(map[string]bool)
	for i, td := range sf.Tables {
		if td.Name == "" {
			return nil, fmt.Errorf("schema: table %d has no name", i+1)
		}
		lower := strings.ToLower(td.Name)
		if seen[lower] {
			return nil, fmt.Errorf("schema: duplicate table %s", td.Name)
		}
		seen[lower] = true
		keyNames := make(map[string]bool)
		for _, kf := range td.Key {
			if kf.Name == "" || keyNames[kf.Name] {
				return nil, fmt.Errorf("schema: %s: empty or duplicate key field %q", td.Name, kf.Name)
			}
			keyNames[kf.Name] = true
		}
		for name := range td.Fields {
			if name == "" {
				return nil, fmt.Errorf("schema: %s: empty field name", td.Name)
			}
		}
	}

	scm := NewSchema()
	for _, td := range sf.Tables {
		DefineTable(scm, td.Name, func(b *TableBuilder) {
			for _, name := range sortedKeys(td.Fields) {
				b.Field(name, td.Fields[name])
			}
			for _, kf := range td.Key {
				b.Key(kf.Name, kf.Type)
			}
			if td.SuppressContent {
				b.SuppressContentWhenLogging()
			}
		})
	}
	return scm, nil
}

// MarshalSchemaYAML renders scm in the format ParseSchemaYAML reads.
func MarshalSchemaYAML(scm *Schema) ([]byte, error) {
	var sf schemaFile
	for _, tbl := range scm.tables {
		td := tableDecl{
			Name:            tbl.name,
			Fields:          make(map[string]FieldType, len(tbl.fieldTypes)),
			SuppressContent: tbl.suppressContent,
		}
		for name, ft := range tbl.fieldTypes {
			td.Fields[name] = ft
		}
		for _, kf := range tbl.keySchema {
			td.Key = append(td.Key, keyFieldDecl{kf.Name, kf.Type})
		}
		sf.Tables = append(sf.Tables, td)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&sf); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	return buf.Bytes(), nil
}
