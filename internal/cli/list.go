package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"attendbot/internal/attendance"
	"attendbot/internal/store"
)

func newListCommand(opts *RootOptions) *cobra.Command {
	var owner string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print an owner's most recent records",
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

			var req attendance.ListRequest
			if cmd.Flags().Changed("limit") {
				req.Limit = &limit
			}
			svc := attendance.NewService(attendance.NewRepository(db.Client))
			out := svc.ListRecent(cmd.Context(), attendance.Caller{ID: owner}, req)
			switch out.Kind {
			case attendance.OutcomeSuccess, attendance.OutcomeEmpty:
			case attendance.OutcomeInvalid:
				return fmt.Errorf("%s", out.Message)
			default:
				return out.Err
			}

			records := out.Records
			if records == nil {
				records = []attendance.Record{}
			}
			return emit(cmd.OutOrStdout(), opts.Format, records, func(w io.Writer) error {
				return writeRecords(w, records)
			})
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "platform user id")
	cmd.Flags().IntVar(&limit, "limit", attendance.DefaultListLimit, "number of records (clamped to 1-20)")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func writeRecords(w io.Writer, records []attendance.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "no records")
		return err
	}
	for _, rec := range records {
		line := fmt.Sprintf("#%d\t%s\t%s\t%s", rec.ID, rec.CreatedAt.UTC().Format("2006-01-02 15:04"), rec.Status.Label(), rec.Subject)
		if rec.Reason != nil && *rec.Reason != "" {
			line += "\treason=" + *rec.Reason
		}
		if rec.Proof != nil {
			line += "\tproof=" + rec.Proof.URL
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
