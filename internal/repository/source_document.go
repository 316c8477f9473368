package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagelearn/sagefeed/internal/domain"
)

const sourceDocumentColumns = `id, institution_id, title, authors, publication_year, storage_key,
	 processing_status, generation, chunk_count, error, created_at, updated_at`

// SourceDocumentRepository handles persistence of source documents and their
// processing-status state machine.
type SourceDocumentRepository struct {
	pool *pgxpool.Pool
}

func NewSourceDocumentRepository(pool *pgxpool.Pool) *SourceDocumentRepository {
	return &SourceDocumentRepository{pool: pool}
}

func (r *SourceDocumentRepository) Create(ctx context.Context, d *domain.SourceDocument) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO source_documents (id, institution_id, title, authors, publication_year, storage_key,
			processing_status, generation, chunk_count, error, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		d.ID, d.InstitutionID, d.Title, nullableString(d.Authors), d.PublicationYear, d.StorageKey,
		d.Status, d.Generation, d.ChunkCount, nullableString(d.Error), d.CreatedAt, d.UpdatedAt,
	)
	return err
}

func (r *SourceDocumentRepository) GetByID(ctx context.Context, id string) (*domain.SourceDocument, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+sourceDocumentColumns+` FROM source_documents WHERE id = $1`,
		id,
	)
	doc, err := scanSourceDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (r *SourceDocumentRepository) ListByInstitution(ctx context.Context, institutionID string) ([]*domain.SourceDocument, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sourceDocumentColumns+`
		 FROM source_documents
		 WHERE institution_id = $1
		 ORDER BY created_at DESC`,
		institutionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*domain.SourceDocument
	for rows.Next() {
		doc, err := scanSourceDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// TransitionStatus performs a guarded status update: the row is only touched
// if it is still in the expected state, and every transition bumps the
// generation counter. Returns ErrStaleTransition when the guard fails.
func (r *SourceDocumentRepository) TransitionStatus(ctx context.Context, id string, from, to domain.ProcessingStatus, errMsg string) (*domain.SourceDocument, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE source_documents
		 SET processing_status = $1,
		     generation = generation + 1,
		     error = $2,
		     updated_at = $3
		 WHERE id = $4 AND processing_status = $5
		 RETURNING `+sourceDocumentColumns,
		to, nullableString(errMsg), time.Now().UTC(), id, from,
	)
	doc, err := scanSourceDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Distinguish a lost race from a missing document.
			if _, gerr := r.GetByID(ctx, id); gerr != nil {
				return nil, gerr
			}
			return nil, domain.ErrStaleTransition
		}
		return nil, err
	}
	return doc, nil
}

// CompleteWithChunks atomically replaces the document's chunk set and moves
// processing -> completed. The generation guard rejects writes from a run
// that was superseded by a re-submission.
func (r *SourceDocumentRepository) CompleteWithChunks(ctx context.Context, id string, generation int64, chunks []domain.Chunk) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmdTag, err := tx.Exec(ctx,
		`UPDATE source_documents
		 SET processing_status = $1,
		     generation = generation + 1,
		     chunk_count = $2,
		     error = NULL,
		     updated_at = $3
		 WHERE id = $4 AND processing_status = $5 AND generation = $6`,
		domain.ProcessingStatusCompleted, len(chunks), time.Now().UTC(),
		id, domain.ProcessingStatusProcessing, generation,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrStaleTransition
	}

	chunkRepo := NewSourceChunkRepositoryWithTx(tx)
	if err := chunkRepo.ReplaceChunks(ctx, id, chunks); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func scanSourceDocument(row pgx.Row) (*domain.SourceDocument, error) {
	var d domain.SourceDocument
	var authors, errMsg pgtype.Text
	err := row.Scan(&d.ID, &d.InstitutionID, &d.Title, &authors, &d.PublicationYear, &d.StorageKey,
		&d.Status, &d.Generation, &d.ChunkCount, &errMsg, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if authors.Valid {
		d.Authors = authors.String
	}
	if errMsg.Valid {
		d.Error = errMsg.String
	}
	return &d, nil
}
