// Package cli implements attendctl, the admin command line for the attendance bot.
package cli

import (
	"fmt"
	"os"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"

	"attendbot/internal/bot"
	"attendbot/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
	Format     string // "json" | "text"

	// NewRegistrar opens the platform client used by register. Tests replace it.
	NewRegistrar func(token string) (bot.CommandRegistrar, error)
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the attendctl root command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{NewRegistrar: sessionRegistrar})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attendctl",
		Short: "Administer the attendance bot",
		Long:  "Apply the schema, register slash commands, mint personal API tokens and inspect records.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.ConfigFile != "" {
				return os.Setenv("ATTEND_CONFIG_FILE", opts.ConfigFile)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "YAML config file (overrides ATTEND_CONFIG_FILE)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newRegisterCommand(opts))
	cmd.AddCommand(newTokenCommand(opts))
	cmd.AddCommand(newListCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func sessionRegistrar(token string) (bot.CommandRegistrar, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func loadConfig() (config.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.App{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
