package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"attendbot/internal/store"
)

func newMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the attendance tables if they do not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := store.Open(cmd.Context(), cfg.DatabaseDriver, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.Migrate(cmd.Context()); err != nil {
				return err
			}
			data := map[string]string{"driver": cfg.DatabaseDriver, "database": cfg.DatabaseURL}
			return emit(cmd.OutOrStdout(), opts.Format, data, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "schema applied (%s)\n", cfg.DatabaseDriver)
				return err
			})
		},
	}
}
