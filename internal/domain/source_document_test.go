package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSourceDocument() *SourceDocument {
	return NewSourceDocument("doc-1", "inst-1", "Intro to Statistics", "Haddad, R.", 2021,
		"inst-1/doc-1/stats.pdf", time.Now().UTC())
}

func TestNewSourceDocument_StartsPending(t *testing.T) {
	doc := validSourceDocument()

	assert.Equal(t, ProcessingStatusPending, doc.Status)
	assert.Equal(t, int64(0), doc.Generation)
	assert.Equal(t, doc.CreatedAt, doc.UpdatedAt)
}

func TestValidateSourceDocument(t *testing.T) {
	require.NoError(t, ValidateSourceDocument(validSourceDocument()))
}

func TestValidateSourceDocument_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SourceDocument)
	}{
		{"nil", nil},
		{"missing ID", func(d *SourceDocument) { d.ID = "" }},
		{"missing InstitutionID", func(d *SourceDocument) { d.InstitutionID = "" }},
		{"missing Title", func(d *SourceDocument) { d.Title = "" }},
		{"missing StorageKey", func(d *SourceDocument) { d.StorageKey = "" }},
		{"invalid Status", func(d *SourceDocument) { d.Status = "queued" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.mutate == nil {
				assert.Error(t, ValidateSourceDocument(nil))
				return
			}
			doc := validSourceDocument()
			tt.mutate(doc)
			assert.Error(t, ValidateSourceDocument(doc))
		})
	}
}

func TestValidateSourceDocument_OptionalFields(t *testing.T) {
	doc := validSourceDocument()
	doc.Authors = ""
	doc.PublicationYear = 0

	assert.NoError(t, ValidateSourceDocument(doc))
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from    ProcessingStatus
		to      ProcessingStatus
		allowed bool
	}{
		{ProcessingStatusPending, ProcessingStatusProcessing, true},
		{ProcessingStatusPending, ProcessingStatusCompleted, false},
		{ProcessingStatusPending, ProcessingStatusFailed, false},
		{ProcessingStatusPending, ProcessingStatusPending, false},
		{ProcessingStatusProcessing, ProcessingStatusCompleted, true},
		{ProcessingStatusProcessing, ProcessingStatusFailed, true},
		{ProcessingStatusProcessing, ProcessingStatusPending, false},
		{ProcessingStatusCompleted, ProcessingStatusPending, true},
		{ProcessingStatusCompleted, ProcessingStatusProcessing, false},
		{ProcessingStatusFailed, ProcessingStatusPending, true},
		{ProcessingStatusFailed, ProcessingStatusProcessing, false},
		{"queued", ProcessingStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}
