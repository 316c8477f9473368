package domain

import (
	"fmt"
	"time"
)

// ProcessingStatus represents the ingestion state of a source document
type ProcessingStatus string

const (
	ProcessingStatusPending    ProcessingStatus = "pending"
	ProcessingStatusProcessing ProcessingStatus = "processing"
	ProcessingStatusCompleted  ProcessingStatus = "completed"
	ProcessingStatusFailed     ProcessingStatus = "failed"
)

// SourceDocument represents one uploaded reference text (a PDF) that can be
// linked to skills as ground truth for feedback generation.
type SourceDocument struct {
	ID              string
	InstitutionID   string
	Title           string
	Authors         string
	PublicationYear int
	StorageKey      string
	Status          ProcessingStatus
	// Generation increments on every status transition so a stale ingestion
	// run cannot overwrite the result of a newer one.
	Generation int64
	ChunkCount int
	Error      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewSourceDocument creates a new SourceDocument in the pending state
func NewSourceDocument(id, institutionID, title, authors string, publicationYear int, storageKey string, createdAt time.Time) *SourceDocument {
	return &SourceDocument{
		ID:              id,
		InstitutionID:   institutionID,
		Title:           title,
		Authors:         authors,
		PublicationYear: publicationYear,
		StorageKey:      storageKey,
		Status:          ProcessingStatusPending,
		Generation:      0,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}
}

// ValidateSourceDocument validates a SourceDocument instance
func ValidateSourceDocument(d *SourceDocument) error {
	if d == nil {
		return fmt.Errorf("source document cannot be nil")
	}

	if d.ID == "" {
		return fmt.Errorf("source document ID is required")
	}

	if d.InstitutionID == "" {
		return fmt.Errorf("source document InstitutionID is required")
	}

	if d.Title == "" {
		return fmt.Errorf("source document Title is required")
	}

	if d.StorageKey == "" {
		return fmt.Errorf("source document StorageKey is required")
	}

	if !isValidProcessingStatus(d.Status) {
		return fmt.Errorf("source document Status is invalid: %s", d.Status)
	}

	return nil
}

// CanTransition reports whether a status transition is allowed.
// pending -> processing -> completed|failed; completed and failed documents
// may be re-submitted, which restarts from pending.
func CanTransition(from, to ProcessingStatus) bool {
	switch from {
	case ProcessingStatusPending:
		return to == ProcessingStatusProcessing
	case ProcessingStatusProcessing:
		return to == ProcessingStatusCompleted || to == ProcessingStatusFailed
	case ProcessingStatusCompleted, ProcessingStatusFailed:
		return to == ProcessingStatusPending
	}
	return false
}

// isValidProcessingStatus checks if a ProcessingStatus is valid
func isValidProcessingStatus(s ProcessingStatus) bool {
	switch s {
	case ProcessingStatusPending, ProcessingStatusProcessing,
		ProcessingStatusCompleted, ProcessingStatusFailed:
		return true
	}
	return false
}
