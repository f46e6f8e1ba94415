package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUnitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unit",
		Short: "Manage unit labels",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <label>...",
			Short: "Declare one or more unit labels",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				for _, unit := range args {
					if err := current.service.AddUnit(cmd.Context(), domainFlag, unit); err != nil {
						return err
					}
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List unit labels in declaration order",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				units, err := current.service.ListUnits(cmd.Context(), domainFlag)
				if err != nil {
					return err
				}
				for _, unit := range units {
					fmt.Fprintln(cmd.OutOrStdout(), unit)
				}
				return nil
			},
		},
	)
	return cmd
}
