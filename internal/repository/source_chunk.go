package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/sagelearn/sagefeed/internal/domain"
)

// SourceChunkRepository handles persistence of chunked document embeddings.
type SourceChunkRepository struct {
	db dbtx
}

func NewSourceChunkRepository(pool *pgxpool.Pool) *SourceChunkRepository {
	return &SourceChunkRepository{db: pool}
}

func NewSourceChunkRepositoryWithTx(tx dbtx) *SourceChunkRepository {
	return &SourceChunkRepository{db: tx}
}

// ReplaceChunks deletes existing chunks for a document and inserts new ones.
func (r *SourceChunkRepository) ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	_, err := r.db.Exec(ctx, `DELETE FROM source_chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return err
	}

	for _, c := range chunks {
		_, err := r.db.Exec(ctx,
			`INSERT INTO source_chunks (document_id, chunk_index, content, embedding, page_number)
			 VALUES ($1, $2, $3, $4, $5)`,
			c.DocumentID, c.ChunkIndex, c.Content, pgvector.NewVector(c.Embedding), c.PageNumber,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// GetChunksByDocument returns a document's chunks in chunk order with their
// stored embeddings.
func (r *SourceChunkRepository) GetChunksByDocument(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := r.db.Query(ctx,
		`SELECT document_id, chunk_index, content, embedding, page_number
		 FROM source_chunks
		 WHERE document_id = $1
		 ORDER BY chunk_index ASC`,
		documentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		var embedding pgvector.Vector
		if err := rows.Scan(&c.DocumentID, &c.ChunkIndex, &c.Content, &embedding, &c.PageNumber); err != nil {
			return nil, err
		}
		c.Embedding = embedding.Slice()
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}
