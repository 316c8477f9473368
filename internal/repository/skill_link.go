package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagelearn/sagefeed/internal/domain"
)

// SkillLinkRepository manages skill to source-document associations.
type SkillLinkRepository struct {
	pool *pgxpool.Pool
}

func NewSkillLinkRepository(pool *pgxpool.Pool) *SkillLinkRepository {
	return &SkillLinkRepository{pool: pool}
}

func (r *SkillLinkRepository) CreateLink(ctx context.Context, link *domain.SkillSourceLink) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO skill_source_links (skill_id, document_id, created_at)
		 VALUES ($1, $2, $3)`,
		link.SkillID, link.DocumentID, link.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrSkillLinkAlreadyExists
		}
		return err
	}
	return nil
}

func (r *SkillLinkRepository) DeleteLink(ctx context.Context, skillID, documentID string) error {
	cmdTag, err := r.pool.Exec(ctx,
		`DELETE FROM skill_source_links WHERE skill_id = $1 AND document_id = $2`,
		skillID, documentID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrSkillLinkNotFound
	}
	return nil
}

func (r *SkillLinkRepository) ListBySkill(ctx context.Context, skillID string) ([]*domain.SkillSourceLink, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT skill_id, document_id, created_at
		 FROM skill_source_links
		 WHERE skill_id = $1
		 ORDER BY created_at ASC`,
		skillID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []*domain.SkillSourceLink
	for rows.Next() {
		var l domain.SkillSourceLink
		if err := rows.Scan(&l.SkillID, &l.DocumentID, &l.CreatedAt); err != nil {
			return nil, err
		}
		links = append(links, &l)
	}
	return links, rows.Err()
}

// ListCompletedBySkill returns the completed documents linked to a skill, in
// link creation order. This is the retrieval pool for feedback queries.
func (r *SkillLinkRepository) ListCompletedBySkill(ctx context.Context, skillID string) ([]*domain.SourceDocument, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT d.id, d.institution_id, d.title, d.authors, d.publication_year, d.storage_key,
		        d.processing_status, d.generation, d.chunk_count, d.error, d.created_at, d.updated_at
		 FROM source_documents d
		 INNER JOIN skill_source_links l ON d.id = l.document_id
		 WHERE l.skill_id = $1 AND d.processing_status = $2
		 ORDER BY l.created_at ASC`,
		skillID, domain.ProcessingStatusCompleted,
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
