package bot

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"attendbot/internal/attendance"
)

const (
	timeLayout   = "2006-01-02 15:04 UTC"
	maxReasonLen = 120

	// platform embed limits, counted in characters
	maxFieldLen       = 1024
	maxDescriptionLen = 4096

	maxSubjectLen   = 100
	maxProofNameLen = 80

	colorSuccess = 0x2ecc71
	colorInfo    = 0x3498db
)

const (
	msgFailure   = "Something went wrong while processing your command. Please try again later."
	msgThrottled = "You're sending commands too quickly. Please wait a moment and try again."
	msgEmpty     = "You have no attendance records yet."
	msgUnknown   = "Unknown command."
)

// ephemeral builds a reply only the invoking user can see.
func ephemeral(content string, embeds ...*discordgo.MessageEmbed) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		Content: content,
		Embeds:  embeds,
		Flags:   discordgo.MessageFlagsEphemeral,
	}
}

func failureReply() *discordgo.InteractionResponseData { return ephemeral(msgFailure) }

func renderAdded(rec *attendance.Record) *discordgo.InteractionResponseData {
	fields := []*discordgo.MessageEmbedField{
		{Name: "ID", Value: strconv.FormatInt(rec.ID, 10), Inline: true},
		{Name: "Class", Value: truncate(rec.Subject, maxFieldLen), Inline: true},
		{Name: "Status", Value: rec.Status.Label(), Inline: true},
	}
	if rec.Reason != nil && *rec.Reason != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Reason", Value: truncate(*rec.Reason, maxFieldLen)})
	}
	if rec.Proof != nil {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Proof", Value: proofField(*rec.Proof)})
	}
	return ephemeral("", &discordgo.MessageEmbed{
		Title:  "Attendance recorded",
		Color:  colorSuccess,
		Fields: fields,
	})
}

func renderProofUpdated(rec *attendance.Record) *discordgo.InteractionResponseData {
	return ephemeral("", &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Proof updated for record #%d", rec.ID),
		Color: colorSuccess,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Class", Value: truncate(rec.Subject, maxFieldLen), Inline: true},
			{Name: "Status", Value: rec.Status.Label(), Inline: true},
			{Name: "Proof", Value: truncate(rec.Proof.Name, maxFieldLen)},
		},
	})
}

func renderNotFound(id int64) *discordgo.InteractionResponseData {
	return ephemeral(fmt.Sprintf("No attendance record #%d was found among your records.", id))
}

func renderList(records []attendance.Record) *discordgo.InteractionResponseData {
	return ephemeral("", &discordgo.MessageEmbed{
		Title:       "Your recent attendance",
		Color:       colorInfo,
		Description: listLines(records),
	})
}

// listLines renders one numbered line per record, newest first as given. The result stays
// within maxDescriptionLen: proof links degrade to bare names, then remaining records are
// summarised in a tail line.
func listLines(records []attendance.Record) string {
	var b strings.Builder
	used := 0
	for n, rec := range records {
		reserve := 0
		if rest := len(records) - n - 1; rest > 0 {
			reserve = utf8.RuneCountInString(moreLine(rest))
		}
		line := listLine(n+1, rec, true)
		if used+utf8.RuneCountInString(line)+reserve > maxDescriptionLen {
			line = listLine(n+1, rec, false)
		}
		if used+utf8.RuneCountInString(line)+reserve > maxDescriptionLen {
			b.WriteString(moreLine(len(records) - n))
			break
		}
		b.WriteString(line)
		used += utf8.RuneCountInString(line)
	}
	return b.String()
}

func listLine(n int, rec attendance.Record, withLinks bool) string {
	line := fmt.Sprintf("%d. **#%d** %s | %s | %s", n, rec.ID, truncate(rec.Subject, maxSubjectLen), rec.Status.Label(), rec.CreatedAt.UTC().Format(timeLayout))
	if rec.Reason != nil && *rec.Reason != "" {
		line += " | Reason: " + truncate(*rec.Reason, maxReasonLen)
	}
	if rec.Proof != nil {
		if withLinks {
			line += " | Proof: " + proofLink(*rec.Proof)
		} else {
			line += " | Proof: " + truncate(rec.Proof.Name, maxProofNameLen)
		}
	}
	return line + "\n"
}

func moreLine(n int) string {
	return fmt.Sprintf("…and %d more\n", n)
}

func proofLink(p attendance.Proof) string {
	return fmt.Sprintf("[%s](%s)", truncate(p.Name, maxProofNameLen), p.URL)
}

// proofField links the proof unless the link alone would overflow a field.
func proofField(p attendance.Proof) string {
	if link := proofLink(p); utf8.RuneCountInString(link) <= maxFieldLen {
		return link
	}
	return truncate(p.Name, maxFieldLen)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
