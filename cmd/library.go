package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/inkstudio/inkstudio/internal/library"
	"github.com/inkstudio/inkstudio/internal/models"
	"github.com/spf13/cobra"
)

func newLibraryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Manage saved designs",
		Long: `List, delete, export and import the designs saved in a profile's library.

The CLI uses the "cli" profile unless --profile names another one, such as
the id from a browser's inkstudio_profile cookie.`,
	}

	cmd.AddCommand(newLibraryListCmd(opts))
	cmd.AddCommand(newLibraryDeleteCmd(opts))
	cmd.AddCommand(newLibraryExportCmd(opts))
	cmd.AddCommand(newLibraryImportCmd(opts))

	return cmd
}

func newLibraryListCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved designs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			designs := a.library().List(cmd.Context())
			switch output {
			case "yaml":
				return library.WriteYAML(os.Stdout, designs)
			case "table":
				return writeTable(designs)
			default:
				return fmt.Errorf("unsupported output: %s", output)
			}
		},
	}

	cmd.Flags().StringVar(&output, "output", "table", "Output format (table or yaml)")

	return cmd
}

func writeTable(designs []models.SavedDesign) error {
	if len(designs) == 0 {
		fmt.Println("No saved designs")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tTYPE\tSIZE\tPROMPT")
	for _, d := range designs {
		prompt := d.Prompt
		if len(prompt) > 60 {
			prompt = prompt[:57] + "..."
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", d.ID, d.CreatedAt.Format("2006-01-02 15:04"), d.MimeType, len(d.ImageData), prompt)
	}
	return tw.Flush()
}

func newLibraryDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved design",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			store := a.library()
			if _, ok := store.Get(cmd.Context(), args[0]); !ok {
				return fmt.Errorf("%w: design %s", models.ErrNotFound, args[0])
			}
			store.Delete(cmd.Context(), args[0])
			fmt.Printf("Deleted %s\n", args[0])
			return nil
		},
	}
}

func newLibraryExportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "export <file.parquet>",
		Short:   "Export the library to a parquet file",
		Args:    cobra.ExactArgs(1),
		Example: `  inkstudio library export designs.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.library().ExportParquet(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Exported %d designs to %s\n", n, args[0])
			return nil
		},
	}
}

func newLibraryImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.parquet>",
		Short: "Import designs from a parquet file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.library().ImportParquet(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Imported %d designs from %s\n", n, args[0])
			return nil
		},
	}
}
