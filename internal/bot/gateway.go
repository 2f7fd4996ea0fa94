package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// SessionResponder replies through the platform REST API of a bot session.
type SessionResponder struct {
	Session *discordgo.Session
}

// Respond sends the initial interaction response.
func (r SessionResponder) Respond(ctx context.Context, i *discordgo.Interaction, reply *discordgo.InteractionResponseData) error {
	return r.Session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: reply,
	}, discordgo.WithContext(ctx))
}

// FollowUp posts the reply as an ephemeral follow-up message.
func (r SessionResponder) FollowUp(ctx context.Context, i *discordgo.Interaction, reply *discordgo.InteractionResponseData) error {
	_, err := r.Session.FollowupMessageCreate(i, true, &discordgo.WebhookParams{
		Content: reply.Content,
		Embeds:  reply.Embeds,
		Flags:   discordgo.MessageFlagsEphemeral,
	}, discordgo.WithContext(ctx))
	return err
}

// Attach routes the session's interaction events through d. Each event runs on its own
// goroutine inside discordgo. The returned func removes the handler.
func Attach(ctx context.Context, s *discordgo.Session, d *Dispatcher) func() {
	responder := SessionResponder{Session: s}
	return s.AddHandler(func(_ *discordgo.Session, ic *discordgo.InteractionCreate) {
		d.Serve(ctx, ic.Interaction, responder)
	})
}
