package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"attendbot/internal/bot"
)

func newRegisterCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Replace the application's slash commands",
		Long: `Bulk-overwrite attend_add, attend_updatefile and attend_list.

Commands are registered in DISCORD_GUILD_ID when it is set, globally otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateBot(); err != nil {
				return err
			}
			registrar, err := opts.NewRegistrar(cfg.DiscordToken)
			if err != nil {
				return fmt.Errorf("open session: %w", err)
			}
			created, err := bot.Register(registrar, cfg.DiscordAppID, cfg.DiscordGuildID)
			if err != nil {
				return err
			}

			names := make([]string, 0, len(created))
			for _, c := range created {
				names = append(names, c.Name)
			}
			scope := "global"
			if cfg.DiscordGuildID != "" {
				scope = cfg.DiscordGuildID
			}
			data := map[string]any{"scope": scope, "commands": names}
			return emit(cmd.OutOrStdout(), opts.Format, data, func(w io.Writer) error {
				for _, n := range names {
					if _, err := fmt.Fprintf(w, "registered /%s (%s)\n", n, scope); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}
