package bot

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"attendbot/internal/attendance"
	"attendbot/internal/metrics"
)

// Handlers are the three attendance commands. *attendance.Service implements it.
type Handlers interface {
	Add(ctx context.Context, caller attendance.Caller, req attendance.AddRequest) attendance.Outcome
	UpdateProof(ctx context.Context, caller attendance.Caller, req attendance.UpdateProofRequest) attendance.Outcome
	ListRecent(ctx context.Context, caller attendance.Caller, req attendance.ListRequest) attendance.Outcome
}

// Limiter throttles callers by owner id.
type Limiter interface {
	Allow(key string) bool
}

// Responder delivers a reply for an interaction. FollowUp is the secondary path used
// when Respond fails.
type Responder interface {
	Respond(ctx context.Context, i *discordgo.Interaction, reply *discordgo.InteractionResponseData) error
	FollowUp(ctx context.Context, i *discordgo.Interaction, reply *discordgo.InteractionResponseData) error
}

// Dispatcher routes slash commands to handlers and turns every outcome into exactly one reply.
type Dispatcher struct {
	handlers Handlers
	limiter  Limiter
	log      *zap.Logger
}

// NewDispatcher creates a dispatcher. limiter may be nil to disable throttling.
func NewDispatcher(handlers Handlers, limiter Limiter, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{handlers: handlers, limiter: limiter, log: log}
}

// Serve handles i and delivers the reply through r, falling back to a follow-up message.
func (d *Dispatcher) Serve(ctx context.Context, i *discordgo.Interaction, r Responder) {
	reply := d.Handle(ctx, i)
	err := r.Respond(ctx, i, reply)
	if err == nil {
		return
	}
	metrics.ReplyFailures.WithLabelValues("primary").Inc()
	d.log.Warn("interaction reply failed, trying follow-up",
		zap.String("interaction_id", i.ID),
		zap.Error(err))

	if err := r.FollowUp(ctx, i, reply); err != nil {
		metrics.ReplyFailures.WithLabelValues("followup").Inc()
		d.log.Error("interaction follow-up failed",
			zap.String("interaction_id", i.ID),
			zap.Error(err))
	}
}

// Handle produces the reply for a single interaction. It never returns nil and never panics.
func (d *Dispatcher) Handle(ctx context.Context, i *discordgo.Interaction) (reply *discordgo.InteractionResponseData) {
	start := time.Now()
	command := "unknown"
	result := attendance.OutcomeFailure.String()

	defer func() {
		if r := recover(); r != nil {
			d.log.Error("command panicked",
				zap.String("command", command),
				zap.String("interaction_id", i.ID),
				zap.Any("panic", r),
				zap.Stack("stack"))
			reply = failureReply()
			result = attendance.OutcomeFailure.String()
		}
		metrics.Commands.WithLabelValues(command, result).Inc()
		metrics.CommandDuration.WithLabelValues(command).Observe(time.Since(start).Seconds())
	}()

	if i.Type != discordgo.InteractionApplicationCommand {
		result = attendance.OutcomeInvalid.String()
		return ephemeral(msgUnknown)
	}
	data := i.ApplicationCommandData()
	switch data.Name {
	case CommandAdd, CommandUpdateFile, CommandList:
		command = data.Name
	default:
		result = attendance.OutcomeInvalid.String()
		return ephemeral(msgUnknown)
	}

	caller, err := callerOf(i)
	if err != nil {
		result = attendance.OutcomeInvalid.String()
		return ephemeral(err.Error())
	}
	if d.limiter != nil && !d.limiter.Allow(caller.ID) {
		result = "throttled"
		return ephemeral(msgThrottled)
	}

	out, id, err := d.run(ctx, command, caller, optionsOf(data))
	if err != nil {
		if ae, ok := isArgError(err); ok {
			result = attendance.OutcomeInvalid.String()
			return ephemeral(ae.msg)
		}
		out = attendance.Outcome{Kind: attendance.OutcomeFailure, Err: err}
	}
	result = out.Kind.String()

	switch out.Kind {
	case attendance.OutcomeSuccess:
		switch command {
		case CommandAdd:
			return renderAdded(out.Record)
		case CommandUpdateFile:
			return renderProofUpdated(out.Record)
		default:
			return renderList(out.Records)
		}
	case attendance.OutcomeNotFound:
		return renderNotFound(id)
	case attendance.OutcomeEmpty:
		return ephemeral(msgEmpty)
	case attendance.OutcomeInvalid:
		return ephemeral(out.Message)
	}

	d.log.Error("command failed",
		zap.String("command", command),
		zap.String("owner_id", caller.ID),
		zap.String("interaction_id", i.ID),
		zap.Error(out.Err))
	return failureReply()
}

// run parses arguments and calls the matching handler. The returned id is the record id
// an update targeted, for the not-found message.
func (d *Dispatcher) run(ctx context.Context, command string, caller attendance.Caller, opts options) (attendance.Outcome, int64, error) {
	switch command {
	case CommandAdd:
		req, err := parseAdd(opts)
		if err != nil {
			return attendance.Outcome{}, 0, err
		}
		return d.handlers.Add(ctx, caller, req), 0, nil
	case CommandUpdateFile:
		req, err := parseUpdateFile(opts)
		if err != nil {
			return attendance.Outcome{}, 0, err
		}
		return d.handlers.UpdateProof(ctx, caller, req), req.ID, nil
	default:
		req, err := parseList(opts)
		if err != nil {
			return attendance.Outcome{}, 0, err
		}
		return d.handlers.ListRecent(ctx, caller, req), 0, nil
	}
}
