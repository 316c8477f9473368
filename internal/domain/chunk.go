package domain

import "fmt"

// MaxChunkContentChars bounds the length of a single chunk's content.
const MaxChunkContentChars = 1500

// Chunk represents one retrievable passage of a source document. Chunks are
// immutable after creation; a document's chunk set is replaced wholesale on
// re-ingestion.
type Chunk struct {
	DocumentID string
	ChunkIndex int
	Content    string
	Embedding  []float32
	PageNumber int
}

// ValidateChunk validates a Chunk instance
func ValidateChunk(c *Chunk) error {
	if c == nil {
		return fmt.Errorf("chunk cannot be nil")
	}

	if c.DocumentID == "" {
		return fmt.Errorf("chunk DocumentID is required")
	}

	if c.Content == "" {
		return fmt.Errorf("chunk Content is required")
	}

	if len([]rune(c.Content)) > MaxChunkContentChars {
		return fmt.Errorf("chunk Content exceeds %d characters", MaxChunkContentChars)
	}

	if c.PageNumber < 1 {
		return fmt.Errorf("chunk PageNumber must be 1-based")
	}

	if len(c.Embedding) == 0 {
		return fmt.Errorf("chunk Embedding is required")
	}

	return nil
}
