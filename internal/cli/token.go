package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"attendbot/internal/auth"
)

func newTokenCommand(opts *RootOptions) *cobra.Command {
	var owner, name string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a personal API token for an owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateAPI(); err != nil {
				return err
			}
			if ttl == 0 {
				ttl = cfg.AccessTTL
			}
			tok, err := auth.Issue(owner, name, cfg.JWTIssuer, cfg.JWTSigningKey, ttl)
			if err != nil {
				return err
			}
			data := map[string]any{"owner": owner, "token": tok.Value, "expires_at": tok.ExpiresAt.UTC()}
			return emit(cmd.OutOrStdout(), opts.Format, data, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s\n", tok.Value)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "platform user id the token acts as")
	cmd.Flags().StringVar(&name, "name", "", "display name embedded in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default ACCESS_TTL)")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}
