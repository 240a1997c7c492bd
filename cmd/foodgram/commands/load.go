package commands

import (
	"github.com/spf13/cobra"

	"github.com/mmynk/foodgram/internal/seed"
)

var loadIngredientsCmd = &cobra.Command{
	Use:   "load-ingredients [file]",
	Short: "Import ingredients from a JSON fixture",
	Long: `Import ingredients from a JSON array of {"name", "measurement_unit"}
records. Ingredients that already exist are skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoad(cmd, args, seed.DefaultIngredientsFile, seed.LoadIngredients)
	},
}

var loadTagsCmd = &cobra.Command{
	Use:   "load-tags [file]",
	Short: "Import tags from a JSON fixture",
	Long: `Import tags from a JSON array of {"name", "slug"} records.
Tags whose name or slug already exist are skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoad(cmd, args, seed.DefaultTagsFile, seed.LoadTags)
	},
}

func init() {
	rootCmd.AddCommand(loadIngredientsCmd)
	rootCmd.AddCommand(loadTagsCmd)
}

func runLoad(cmd *cobra.Command, args []string, defaultPath string, load seed.LoadFunc) error {
	path := defaultPath
	if len(args) == 1 {
		path = args[0]
	}

	_, store, _, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := seed.LoadFile(cmd.Context(), store, path, load)
	if err != nil {
		return err
	}
	cmd.Printf("%s: read %d records, inserted %d\n", path, res.Read, res.Inserted)
	return nil
}
