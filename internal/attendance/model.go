package attendance

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidStatus is returned by ParseStatus for anything but present or absent.
var ErrInvalidStatus = errors.New("status must be present or absent")

// Status is the attendance state of a record.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

// ParseStatus accepts present/absent in any letter case.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPresent:
		return StatusPresent, nil
	case StatusAbsent:
		return StatusAbsent, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Valid reports whether s is one of the persisted statuses.
func (s Status) Valid() bool {
	return s == StatusPresent || s == StatusAbsent
}

// Label is the upper-case form shown to users.
func (s Status) Label() string {
	return strings.ToUpper(string(s))
}

// Proof references an uploaded file evidencing a record.
type Proof struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// Complete reports whether both halves of the reference are set.
func (p Proof) Complete() bool {
	return p.URL != "" && p.Name != ""
}

// Caller identifies the user invoking a command, as supplied by the platform.
type Caller struct {
	ID          string
	DisplayName string
}

// Record is a single attendance entry. Reason and Proof are nil when not stored.
type Record struct {
	ID               int64     `json:"id"`
	OwnerID          string    `json:"owner_id"`
	OwnerDisplayName string    `json:"owner_display_name"`
	Subject          string    `json:"subject"`
	Status           Status    `json:"status"`
	Reason           *string   `json:"reason,omitempty"`
	Proof            *Proof    `json:"proof,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// ProofArchive is a durable copy of a record's proof made by the archiver.
type ProofArchive struct {
	ID         int64
	RecordID   int64
	SourceURL  string
	ArchiveURL string
	PublicID   string
	ArchivedAt time.Time
}
