package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/fakhrymubarak/weather-history-api/internal/store"
	"github.com/spf13/cobra"
)

func historyCommand(app *appContext) *cobra.Command {
	var ascending bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the stored lookup history as JSON",
		Long:  "Print every stored weather lookup as a JSON array, newest first unless --asc is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := store.Open(cmd.Context(), app.cfg.Store, app.logger)
			if err != nil {
				return fmt.Errorf("opening history store: %w", err)
			}
			defer history.Close()

			order := store.OrderIDDesc
			if ascending {
				order = store.OrderIDAsc
			}
			records, err := history.ListAll(cmd.Context(), order)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		},
	}
	cmd.Flags().BoolVar(&ascending, "asc", false, "Oldest record first")
	return cmd
}
