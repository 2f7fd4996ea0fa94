package attendance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"attendbot/internal/queue"
)

// AbsentReasonPlaceholder is stored when an absence is recorded without a reason.
const AbsentReasonPlaceholder = "Not provided"

// List limits. An omitted limit defaults, an explicit one is clamped.
const (
	DefaultListLimit = 5
	MinListLimit     = 1
	MaxListLimit     = 20
)

// RecordStore is the persistence contract the handlers rely on.
type RecordStore interface {
	Create(ctx context.Context, rec Record) (Record, error)
	FindOwned(ctx context.Context, id int64, ownerID string) (*Record, error)
	UpdateProof(ctx context.Context, id int64, ownerID string, proof Proof) (bool, error)
	ListRecentByOwner(ctx context.Context, ownerID string, limit int) ([]Record, error)
}

// AddRequest carries attend_add arguments. A nil Reason means the option was omitted.
type AddRequest struct {
	Subject string
	Status  Status
	Reason  *string
	Proof   *Proof
}

// UpdateProofRequest carries attend_updatefile arguments.
type UpdateProofRequest struct {
	ID    int64
	Proof Proof
}

// ListRequest carries attend_list arguments. A nil Limit means the option was omitted.
type ListRequest struct {
	Limit *int
}

// EffectiveLimit applies the default when omitted and clamps into [MinListLimit, MaxListLimit] otherwise.
func (r ListRequest) EffectiveLimit() int {
	if r.Limit == nil {
		return DefaultListLimit
	}
	return min(max(*r.Limit, MinListLimit), MaxListLimit)
}

// Service implements the three attendance commands over a RecordStore.
type Service struct {
	store  RecordStore
	events queue.Publisher
	log    *zap.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher announces record changes on p so proofs can be archived.
func WithPublisher(p queue.Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a service backed by store.
func NewService(store RecordStore, opts ...Option) *Service {
	s := &Service{
		store: store,
		log:   zap.NewNop(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add records a new attendance entry for caller.
func (s *Service) Add(ctx context.Context, caller Caller, req AddRequest) Outcome {
	if caller.ID == "" {
		return invalid("Unknown caller.")
	}
	// Blank subjects are rejected, anything else is stored exactly as typed.
	if strings.TrimSpace(req.Subject) == "" {
		return invalid("Class is required.")
	}
	if !req.Status.Valid() {
		return invalid("Status must be present or absent.")
	}
	if req.Proof != nil && !req.Proof.Complete() {
		return invalid("The attached file could not be read.")
	}

	rec := Record{
		OwnerID:          caller.ID,
		OwnerDisplayName: caller.DisplayName,
		Subject:          req.Subject,
		Status:           req.Status,
		Reason:           req.Reason,
		CreatedAt:        s.now().UTC(),
	}
	if rec.Reason == nil && rec.Status == StatusAbsent {
		placeholder := AbsentReasonPlaceholder
		rec.Reason = &placeholder
	}
	if req.Proof != nil {
		p := *req.Proof
		rec.Proof = &p
	}

	created, err := s.store.Create(ctx, rec)
	if err != nil {
		return failure(fmt.Errorf("create record: %w", err))
	}
	if created.Proof != nil {
		s.announce(ctx, queue.TypeRecordCreated, created.ID)
	}
	return success(created)
}

// UpdateProof replaces the proof on one of caller's records.
func (s *Service) UpdateProof(ctx context.Context, caller Caller, req UpdateProofRequest) Outcome {
	if caller.ID == "" {
		return invalid("Unknown caller.")
	}
	if !req.Proof.Complete() {
		return invalid("The attached file could not be read.")
	}

	rec, err := s.store.FindOwned(ctx, req.ID, caller.ID)
	if err != nil {
		return failure(fmt.Errorf("find record %d: %w", req.ID, err))
	}
	if rec == nil {
		return Outcome{Kind: OutcomeNotFound}
	}

	updated, err := s.store.UpdateProof(ctx, rec.ID, caller.ID, req.Proof)
	if err != nil {
		return failure(fmt.Errorf("update proof of record %d: %w", rec.ID, err))
	}
	if !updated {
		return Outcome{Kind: OutcomeNotFound}
	}

	p := req.Proof
	rec.Proof = &p
	s.announce(ctx, queue.TypeProofUpdated, rec.ID)
	return success(*rec)
}

// ListRecent returns caller's most recent records.
func (s *Service) ListRecent(ctx context.Context, caller Caller, req ListRequest) Outcome {
	if caller.ID == "" {
		return invalid("Unknown caller.")
	}
	records, err := s.store.ListRecentByOwner(ctx, caller.ID, req.EffectiveLimit())
	if err != nil {
		return failure(fmt.Errorf("list records: %w", err))
	}
	if len(records) == 0 {
		return Outcome{Kind: OutcomeEmpty}
	}
	return Outcome{Kind: OutcomeSuccess, Records: records}
}

// announce is best-effort: the command already succeeded.
func (s *Service) announce(ctx context.Context, typ string, recordID int64) {
	if s.events == nil {
		return
	}
	msg := queue.NewMessage(typ, recordID)
	if err := s.events.Publish(ctx, msg); err != nil {
		s.log.Warn("publish record event failed",
			zap.String("type", typ),
			zap.Int64("record_id", recordID),
			zap.Error(err))
	}
}
