package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Slash command names.
const (
	CommandAdd        = "attend_add"
	CommandUpdateFile = "attend_updatefile"
	CommandList       = "attend_list"
)

// maxReasonOptionLen bounds what users may type; listings still show at most maxReasonLen.
const maxReasonOptionLen = 500

const (
	optClass  = "class"
	optStatus = "status"
	optReason = "reason"
	optProof  = "proof"
	optID     = "id"
	optLimit  = "limit"
)

// Definitions returns the slash command schema registered with the platform.
// The limit option deliberately has no min/max so out-of-range values reach the clamp.
func Definitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        CommandAdd,
			Description: "Record your attendance for a class",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        optClass,
					Description: "Class or subject",
					Required:    true,
					MaxLength:   maxSubjectLen,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        optStatus,
					Description: "Were you there?",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Present", Value: "present"},
						{Name: "Absent", Value: "absent"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        optReason,
					Description: "Reason, mostly for absences",
					MaxLength:   maxReasonOptionLen,
				},
				{
					Type:        discordgo.ApplicationCommandOptionAttachment,
					Name:        optProof,
					Description: "Proof file (note, screenshot, letter)",
				},
			},
		},
		{
			Name:        CommandUpdateFile,
			Description: "Replace the proof file of one of your records",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        optID,
					Description: "Record ID",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionAttachment,
					Name:        optProof,
					Description: "New proof file",
					Required:    true,
				},
			},
		},
		{
			Name:        CommandList,
			Description: "Show your most recent attendance records",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        optLimit,
					Description: "How many records (1-20, default 5)",
				},
			},
		},
	}
}

// CommandRegistrar is satisfied by *discordgo.Session.
type CommandRegistrar interface {
	ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// Register replaces the application's commands in guildID, or globally when guildID is empty.
func Register(r CommandRegistrar, appID, guildID string) ([]*discordgo.ApplicationCommand, error) {
	created, err := r.ApplicationCommandBulkOverwrite(appID, guildID, Definitions())
	if err != nil {
		return nil, fmt.Errorf("register commands: %w", err)
	}
	return created, nil
}
