package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/HCTatse/MF-Chaincode/internal/entities"
	"github.com/spf13/cobra"
)

func newAssetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "asset",
		Short: "Manage asset schemas",
	}

	var attributes string
	registerCmd := &cobra.Command{
		Use:   "register <name>",
		Short: "Register an asset schema from existing attribute types",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := current.service.RegisterAssetSchema(cmd.Context(), domainFlag, args[0], splitList(attributes))
			if err != nil {
				return err
			}
			if !created {
				fmt.Fprintf(cmd.OutOrStdout(), "asset %s already exists\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "asset %s registered\n", args[0])
			return nil
		},
	}
	registerCmd.Flags().StringVarP(&attributes, "attributes", "a", "", "Comma-separated attribute names")

	var atVersion int
	attributesCmd := &cobra.Command{
		Use:   "attributes <name>",
		Short: "Show the attributes of an asset schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var attrs []entities.AttributeRef
			var err error
			if cmd.Flags().Changed("version") {
				attrs, err = current.service.AttributesOfAssetAtVersion(cmd.Context(), domainFlag, args[0], atVersion)
			} else {
				attrs, err = current.service.AttributesOfAsset(cmd.Context(), domainFlag, args[0])
			}
			if err != nil {
				return err
			}
			for _, a := range attrs {
				fmt.Fprintln(cmd.OutOrStdout(), a.String())
			}
			return nil
		},
	}
	attributesCmd.Flags().IntVar(&atVersion, "version", 0, "Reconstruct the attributes at this version (1 to the current version)")

	var removeVersion int
	removeCmd := &cobra.Command{
		Use:   "remove <asset> <attribute>",
		Short: "Remove one version of an attribute from an asset schema",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := current.service.RemoveAttributeFromAsset(cmd.Context(), domainFlag, args[0], args[1], removeVersion); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "attribute %s removed from %s\n", args[1], args[0])
			return nil
		},
	}
	removeCmd.Flags().IntVar(&removeVersion, "version", 0, "Attribute version to remove (default: current)")

	cmd.AddCommand(
		registerCmd,
		&cobra.Command{
			Use:   "list",
			Short: "List asset schemas in registration order",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				schemas, err := current.service.ListAssetSchemas(cmd.Context(), domainFlag)
				if err != nil {
					return err
				}
				for _, s := range schemas {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\tv%d\t%d attributes\n", s.Name, s.Version, len(s.Attributes))
				}
				return nil
			},
		},
		attributesCmd,
		&cobra.Command{
			Use:   "has <asset> <attribute>",
			Short: "Report whether an asset currently has any version of an attribute",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				has, err := current.service.AssetHasAttribute(cmd.Context(), domainFlag, args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatBool(has))
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <asset> <attribute>",
			Short: "Add the current version of an attribute to an asset schema",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := current.service.AddAttributeToAsset(cmd.Context(), domainFlag, args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "attribute %s added to %s\n", args[1], args[0])
				return nil
			},
		},
		removeCmd,
		&cobra.Command{
			Use:   "delete <name>",
			Short: "Delete an asset schema and its history",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				deleted, err := current.service.DeleteAssetSchema(cmd.Context(), domainFlag, args[0])
				if err != nil {
					return err
				}
				if !deleted {
					fmt.Fprintf(cmd.OutOrStdout(), "asset %s not found\n", args[0])
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "asset %s deleted\n", args[0])
				return nil
			},
		},
	)
	return cmd
}

// splitList splits a comma-separated flag value, dropping blanks
func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
