package cli

import (
	"github.com/spf13/cobra"

	"github.com/primodiumxyz/reactive-tables-sub000/internal/records"
)

func newRecordsSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "records-schema",
		Short: "Print the JSON Schema of a records file line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := records.JSONSchema()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if _, err := w.Write(data); err != nil {
				return err
			}
			_, err = w.Write([]byte("\n"))
			return err
		},
	}
}
