package bot

import (
	"errors"
	"fmt"
	"math"

	"github.com/bwmarrin/discordgo"

	"attendbot/internal/attendance"
)

// argError is a malformed invocation, rejected before any handler runs.
type argError struct {
	msg string
}

func (e *argError) Error() string { return e.msg }

func argErrorf(format string, args ...any) error {
	return &argError{msg: fmt.Sprintf(format, args...)}
}

// callerOf picks the invoking user from a guild member or, in DMs, the user field.
func callerOf(i *discordgo.Interaction) (attendance.Caller, error) {
	var u *discordgo.User
	nick := ""
	switch {
	case i.Member != nil && i.Member.User != nil:
		u = i.Member.User
		nick = i.Member.Nick
	case i.User != nil:
		u = i.User
	}
	if u == nil || u.ID == "" {
		return attendance.Caller{}, argErrorf("Could not identify who sent this command.")
	}
	name := nick
	if name == "" {
		name = u.DisplayName()
	}
	return attendance.Caller{ID: u.ID, DisplayName: name}, nil
}

type options struct {
	byName   map[string]*discordgo.ApplicationCommandInteractionDataOption
	resolved *discordgo.ApplicationCommandInteractionDataResolved
}

func optionsOf(data discordgo.ApplicationCommandInteractionData) options {
	o := options{
		byName:   make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(data.Options)),
		resolved: data.Resolved,
	}
	for _, opt := range data.Options {
		o.byName[opt.Name] = opt
	}
	return o
}

func (o options) str(name string) (string, bool, error) {
	opt, ok := o.byName[name]
	if !ok {
		return "", false, nil
	}
	s, ok := opt.Value.(string)
	if opt.Type != discordgo.ApplicationCommandOptionString || !ok {
		return "", false, argErrorf("Option %q must be text.", name)
	}
	return s, true, nil
}

func (o options) integer(name string) (int64, bool, error) {
	opt, ok := o.byName[name]
	if !ok {
		return 0, false, nil
	}
	if opt.Type != discordgo.ApplicationCommandOptionInteger {
		return 0, false, argErrorf("Option %q must be a whole number.", name)
	}
	switch v := opt.Value.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, false, argErrorf("Option %q must be a whole number.", name)
		}
		return int64(v), true, nil
	case int64:
		return v, true, nil
	case int:
		return int64(v), true, nil
	}
	return 0, false, argErrorf("Option %q must be a whole number.", name)
}

// attachment resolves an attachment option into a proof reference.
func (o options) attachment(name string) (*attendance.Proof, error) {
	opt, ok := o.byName[name]
	if !ok {
		return nil, nil
	}
	id, isStr := opt.Value.(string)
	if opt.Type != discordgo.ApplicationCommandOptionAttachment || !isStr {
		return nil, argErrorf("Option %q must be a file.", name)
	}
	if o.resolved == nil || o.resolved.Attachments[id] == nil {
		return nil, argErrorf("The attached file could not be read.")
	}
	att := o.resolved.Attachments[id]
	if att.URL == "" || att.Filename == "" {
		return nil, argErrorf("The attached file could not be read.")
	}
	return &attendance.Proof{URL: att.URL, Name: att.Filename}, nil
}

func parseAdd(o options) (attendance.AddRequest, error) {
	var req attendance.AddRequest

	class, ok, err := o.str(optClass)
	if err != nil {
		return req, err
	}
	if !ok {
		return req, argErrorf("Option %q is required.", optClass)
	}
	req.Subject = class

	status, ok, err := o.str(optStatus)
	if err != nil {
		return req, err
	}
	if !ok {
		return req, argErrorf("Option %q is required.", optStatus)
	}
	req.Status, err = attendance.ParseStatus(status)
	if err != nil {
		return req, argErrorf("Status must be present or absent.")
	}

	reason, ok, err := o.str(optReason)
	if err != nil {
		return req, err
	}
	if ok {
		req.Reason = &reason
	}

	req.Proof, err = o.attachment(optProof)
	return req, err
}

func parseUpdateFile(o options) (attendance.UpdateProofRequest, error) {
	var req attendance.UpdateProofRequest

	id, ok, err := o.integer(optID)
	if err != nil {
		return req, err
	}
	if !ok {
		return req, argErrorf("Option %q is required.", optID)
	}
	req.ID = id

	proof, err := o.attachment(optProof)
	if err != nil {
		return req, err
	}
	if proof == nil {
		return req, argErrorf("Option %q is required.", optProof)
	}
	req.Proof = *proof
	return req, nil
}

func parseList(o options) (attendance.ListRequest, error) {
	var req attendance.ListRequest
	limit, ok, err := o.integer(optLimit)
	if err != nil || !ok {
		return req, err
	}
	// keep huge values huge after narrowing so they clamp to the maximum
	n := int(max(min(limit, math.MaxInt32), math.MinInt32))
	req.Limit = &n
	return req, nil
}

func isArgError(err error) (*argError, bool) {
	var ae *argError
	ok := errors.As(err, &ae)
	return ae, ok
}
