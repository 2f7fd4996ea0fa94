// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Commands counts handled slash commands by outcome.
	Commands = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendbot",
		Name:      "commands_total",
		Help:      "Slash commands handled, by command and outcome.",
	}, []string{"command", "outcome"})

	// CommandDuration observes time from dispatch to reply.
	CommandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "attendbot",
		Name:      "command_duration_seconds",
		Help:      "Time spent handling a slash command.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"command"})

	// ReplyFailures counts replies that could not be delivered, by delivery path.
	ReplyFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendbot",
		Name:      "reply_failures_total",
		Help:      "Interaction replies that failed, by path (primary, followup).",
	}, []string{"path"})

	// ProofArchives counts archiver results.
	ProofArchives = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendbot",
		Name:      "proof_archives_total",
		Help:      "Proof archive attempts, by result.",
	}, []string{"result"})
)
