package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	tables "github.com/primodiumxyz/reactive-tables-sub000"
)

func newDescribeCmd(a *app) *cobra.Command {
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "describe [TABLE...]",
		Short: "Print the tables declared in the schema file",
		RunE: func(cmd *cobra.Command, args []string) error {
			scm, err := a.loadSchema()
			if err != nil {
				return err
			}
			if asYAML {
				data, err := tables.MarshalSchemaYAML(scm)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			tbls := scm.Tables()
			if len(args) > 0 {
				tbls = tbls[:0:0]
				for _, name := range args {
					tbl, err := a.tableNamed(scm, name)
					if err != nil {
						return err
					}
					tbls = append(tbls, tbl)
				}
			}
			w := cmd.OutOrStdout()
			for _, tbl := range tbls {
				kind := "keyed"
				if tbl.IsSingleton() {
					kind = "singleton"
				}
				fmt.Fprintf(w, "%s\t%s\n", tbl.Describe(), kind)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print the normalized schema file instead")
	return cmd
}
