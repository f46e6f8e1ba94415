package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newAttributeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "attribute",
		Aliases: []string{"attr"},
		Short:   "Manage attribute types",
	}

	var atVersion int
	getCmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Show an attribute type and its data type history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := current.service
			if atVersion > 0 {
				dataType, err := svc.DataTypeOfAtVersion(cmd.Context(), domainFlag, args[0], atVersion)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s@%d\t%s\n", args[0], atVersion, dataType)
				return nil
			}

			attr, err := svc.GetAttributeType(cmd.Context(), domainFlag, args[0])
			if err != nil {
				return err
			}
			printAttributeType(cmd.OutOrStdout(), attr)
			for i, dataType := range attr.DataTypeHistory {
				fmt.Fprintf(cmd.OutOrStdout(), "  v%d\t%s\n", i+1, dataType)
			}
			return nil
		},
	}
	getCmd.Flags().IntVar(&atVersion, "version", 0, "Show the data type at this version instead")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "upsert <name> <data-type>",
			Short: "Create an attribute type or change its data type",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				attr, err := current.service.UpsertAttributeType(cmd.Context(), domainFlag, args[0], args[1])
				if err != nil {
					return err
				}
				printAttributeType(cmd.OutOrStdout(), attr)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List attribute types in registration order",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				types, err := current.service.ListAttributeTypes(cmd.Context(), domainFlag)
				if err != nil {
					return err
				}
				for _, attr := range types {
					printAttributeType(cmd.OutOrStdout(), attr)
				}
				return nil
			},
		},
		getCmd,
		&cobra.Command{
			Use:   "exists <name>",
			Short: "Report whether an attribute type is registered",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				exists, err := current.service.AttributeTypeExists(cmd.Context(), domainFlag, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatBool(exists))
				return nil
			},
		},
	)
	return cmd
}
