package cli

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	tables "github.com/primodiumxyz/reactive-tables-sub000"
	"github.com/primodiumxyz/reactive-tables-sub000/internal/records"
)

func newKeyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Encode, decode and hash entity ids",
	}
	cmd.AddCommand(newKeyEncodeCmd(a))
	cmd.AddCommand(newKeyDecodeCmd(a))
	cmd.AddCommand(newKeyHashCmd())
	return cmd
}

func newKeyEncodeCmd(a *app) *cobra.Command {
	var spec string
	cmd := &cobra.Command{
		Use:   "encode (TABLE | --key SPEC) NAME=VALUE...",
		Short: "Print the entity id of a structured key",
		Example: "  tablectl -s schema.yaml key encode Inventory owner=0x5fbd...0aa3 slot=3\n" +
			"  tablectl key encode --key 'x int32, y int32' x=-1 y=2",
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, args, err := a.keySchema(spec, args)
			if err != nil {
				return err
			}
			keys := make(tables.Keys, len(args))
			for _, arg := range args {
				name, text, found := strings.Cut(arg, "=")
				if !found {
					return fmt.Errorf("invalid key value %q, wanted NAME=VALUE", arg)
				}
				kf, found := findKeyField(ks, name)
				if !found {
					return fmt.Errorf("%w: unknown key field %q of %v", tables.ErrSchemaMismatch, name, ks)
				}
				v, err := records.ParseKeyValue(kf.Type, text)
				if err != nil {
					return fmt.Errorf("key field %s: %w", name, err)
				}
				keys[name] = v
			}
			e, err := tables.EncodeKey(ks, keys)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), e)
			return nil
		},
	}
	cmd.Flags().StringVarP(&spec, "key", "k", "", "key schema like \"owner address, slot uint8\" instead of a table")
	return cmd
}

func newKeyDecodeCmd(a *app) *cobra.Command {
	var spec string
	cmd := &cobra.Command{
		Use:   "decode (TABLE | --key SPEC) ENTITY",
		Short: "Print the key values an entity id encodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, args, err := a.keySchema(spec, args)
			if err != nil {
				return err
			}
			if len(args) != 1 {
				return fmt.Errorf("want exactly one entity, got %d arguments", len(args))
			}
			keys, err := tables.DecodeKey(ks, tables.Entity(args[0]))
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, kf := range ks {
				fmt.Fprintf(w, "%s\t%v\t%v\n", kf.Name, kf.Type, keys[kf.Name])
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&spec, "key", "k", "", "key schema like \"owner address, slot uint8\" instead of a table")
	return cmd
}

func newKeyHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash PART...",
		Short: "Print the keccak-256 entity of the concatenated parts",
		Long:  "Hash concatenates its arguments and prints their keccak-256 hash as an entity.\nArguments starting with 0x are decoded as hex, others are taken as UTF-8 text.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parts := make([][]byte, len(args))
			for i, arg := range args {
				if rest, ok := strings.CutPrefix(arg, "0x"); ok {
					b, err := hex.DecodeString(rest)
					if err != nil {
						return fmt.Errorf("invalid hex part %q: %w", arg, err)
					}
					parts[i] = b
				} else {
					parts[i] = []byte(arg)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), tables.HashEntity(parts...))
			return nil
		},
	}
}

// keySchema resolves the key schema from --key or, failing that, from the
// table named by the first argument. It returns the remaining arguments.
func (a *app) keySchema(spec string, args []string) (tables.KeySchema, []string, error) {
	if spec != "" {
		ks, err := parseKeySpec(spec)
		return ks, args, err
	}
	if len(args) == 0 {
		return nil, nil, fmt.Errorf("name a table or pass --key")
	}
	scm, err := a.loadSchema()
	if err != nil {
		return nil, nil, err
	}
	tbl, err := a.tableNamed(scm, args[0])
	if err != nil {
		return nil, nil, err
	}
	if tbl.IsSingleton() {
		return nil, nil, fmt.Errorf("%s is a singleton table; its entity is always %s", tbl.Name(), tables.SingletonEntity)
	}
	return tbl.KeySchema(), args[1:], nil
}

// parseKeySpec parses "name type, name type" (or "name:type").
func parseKeySpec(spec string) (tables.KeySchema, error) {
	var ks tables.KeySchema
	for _, item := range strings.Split(spec, ",") {
		fields := strings.FieldsFunc(item, func(r rune) bool { return r == ' ' || r == ':' || r == '\t' })
		if len(fields) != 2 {
			return nil, fmt.Errorf("invalid key field %q, wanted \"name type\"", strings.TrimSpace(item))
		}
		kt, err := tables.ParseKeyType(fields[1])
		if err != nil {
			return nil, err
		}
		if _, dup := findKeyField(ks, fields[0]); dup {
			return nil, fmt.Errorf("duplicate key field %q", fields[0])
		}
		ks = append(ks, tables.KeyField{Name: fields[0], Type: kt})
	}
	return ks, nil
}

func findKeyField(ks tables.KeySchema, name string) (tables.KeyField, bool) {
	for _, kf := range ks {
		if kf.Name == name {
			return kf, true
		}
	}
	return tables.KeyField{}, false
}
