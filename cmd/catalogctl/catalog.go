package main

import (
	"fmt"
	"io"
	"os"

	"github.com/HCTatse/MF-Chaincode/internal/entities"
	"github.com/HCTatse/MF-Chaincode/internal/services/parser"
	"github.com/spf13/cobra"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Export, import and delete whole catalogs",
	}

	var output, format string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write the catalog of the domain as a document or as definition source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var doc []byte
			switch format {
			case "json":
				var err error
				if doc, err = current.service.ExportCatalog(cmd.Context(), domainFlag); err != nil {
					return err
				}
				doc = append(doc, '\n')
			case "dsl":
				source, err := current.service.ExportDefinition(cmd.Context(), domainFlag)
				if err != nil {
					return err
				}
				doc = []byte(source)
			default:
				return fmt.Errorf("unknown format %q (expected json or dsl)", format)
			}

			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(doc)
				return err
			}
			return os.WriteFile(output, doc, 0o644)
		},
	}
	exportCmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	exportCmd.Flags().StringVarP(&format, "format", "f", "json", "Output format (json, dsl)")

	var dryRun bool
	applyCmd := &cobra.Command{
		Use:   "apply <file>",
		Short: "Bring the catalog of the domain in line with a definition file (- reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readDocument(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			if dryRun {
				def, err := parser.Parse(string(source))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "definition is valid: %d units, %d attributes, %d assets\n",
					len(def.Units), len(def.Attributes), len(def.Assets))
				return nil
			}

			result, err := current.service.ApplyDefinition(cmd.Context(), domainFlag, string(source))
			if err != nil {
				return err
			}
			if !result.Changed() {
				fmt.Fprintf(cmd.OutOrStdout(), "catalog %s is up to date\n", domainFlag)
				return nil
			}
			for _, change := range result.Changes {
				fmt.Fprintln(cmd.OutOrStdout(), change)
			}
			return nil
		},
	}
	applyCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only parse and validate the definition")

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the catalog of the domain with a document (- reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			revision, err := current.service.ImportCatalog(cmd.Context(), domainFlag, doc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "catalog %s imported (revision %s)\n", domainFlag, revision)
			return nil
		},
	}

	cmd.AddCommand(
		exportCmd,
		importCmd,
		applyCmd,
		&cobra.Command{
			Use:   "delete",
			Short: "Delete the catalog of the domain",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := current.service.DeleteCatalog(cmd.Context(), domainFlag); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "catalog %s deleted\n", domainFlag)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List the domains that have a stored catalog",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				domains, err := current.service.ListDomains(cmd.Context())
				if err != nil {
					return err
				}
				for _, domain := range domains {
					fmt.Fprintln(cmd.OutOrStdout(), domain)
				}
				return nil
			},
		},
	)
	return cmd
}

func readDocument(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func printAttributeType(w io.Writer, attr *entities.AttributeType) {
	fmt.Fprintf(w, "%s\t%s\tv%d\n", attr.Name, attr.DataType, attr.Version)
}
