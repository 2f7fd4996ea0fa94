// Package archive copies record proofs to Cloudinary so they outlive the chat platform's
// expiring attachment links. The attendance record itself is never modified.
package archive

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"attendbot/internal/attendance"
	"attendbot/internal/cloudinary"
	"attendbot/internal/metrics"
	"attendbot/internal/queue"
)

// Records is the slice of the attendance repository the archiver needs.
type Records interface {
	Get(ctx context.Context, id int64) (*attendance.Record, error)
	SaveProofArchive(ctx context.Context, a attendance.ProofArchive) (attendance.ProofArchive, error)
}

// Uploader stores a remote file and reports where it landed.
type Uploader interface {
	UploadRemote(ctx context.Context, sourceURL, publicID string) (*cloudinary.UploadResult, error)
}

// Archiver consumes record events and archives the referenced proofs.
type Archiver struct {
	records  Records
	uploader Uploader
	log      *zap.Logger
}

// New creates an archiver.
func New(records Records, uploader Uploader, log *zap.Logger) *Archiver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Archiver{records: records, uploader: uploader, log: log}
}

// Run processes messages until the channel closes. Failures are logged and skipped.
func (a *Archiver) Run(ctx context.Context, msgs <-chan queue.Message) {
	for msg := range msgs {
		if err := a.Handle(ctx, msg); err != nil {
			metrics.ProofArchives.WithLabelValues("error").Inc()
			a.log.Error("archive proof failed",
				zap.String("message_id", msg.ID),
				zap.Int64("record_id", msg.RecordID),
				zap.Error(err))
		}
	}
}

// Handle archives the current proof of the message's record.
func (a *Archiver) Handle(ctx context.Context, msg queue.Message) error {
	switch msg.Type {
	case queue.TypeRecordCreated, queue.TypeProofUpdated:
	default:
		a.log.Debug("ignoring message", zap.String("type", msg.Type))
		return nil
	}

	rec, err := a.records.Get(ctx, msg.RecordID)
	if err != nil {
		return fmt.Errorf("load record %d: %w", msg.RecordID, err)
	}
	if rec == nil || rec.Proof == nil {
		metrics.ProofArchives.WithLabelValues("skipped").Inc()
		return nil
	}

	res, err := a.uploader.UploadRemote(ctx, rec.Proof.URL, publicID(rec.ID, msg.ID))
	if err != nil {
		return fmt.Errorf("upload proof of record %d: %w", rec.ID, err)
	}

	saved, err := a.records.SaveProofArchive(ctx, attendance.ProofArchive{
		RecordID:   rec.ID,
		SourceURL:  rec.Proof.URL,
		ArchiveURL: res.SecureURL,
		PublicID:   res.PublicID,
	})
	if err != nil {
		return fmt.Errorf("save archive of record %d: %w", rec.ID, err)
	}

	metrics.ProofArchives.WithLabelValues("archived").Inc()
	a.log.Info("proof archived",
		zap.Int64("record_id", rec.ID),
		zap.Int64("archive_id", saved.ID),
		zap.String("archive_url", saved.ArchiveURL))
	return nil
}

func publicID(recordID int64, messageID string) string {
	if len(messageID) > 8 {
		messageID = messageID[:8]
	}
	return fmt.Sprintf("record-%d-%s", recordID, messageID)
}
