package service

import (
	"context"
	"errors"
	"time"

	"github.com/sagelearn/sagefeed/internal/domain"
)

// SkillLinkRepositoryInterface defines the repository interface for skill-source links
type SkillLinkRepositoryInterface interface {
	CreateLink(ctx context.Context, link *domain.SkillSourceLink) error
	DeleteLink(ctx context.Context, skillID, documentID string) error
	ListBySkill(ctx context.Context, skillID string) ([]*domain.SkillSourceLink, error)
}

// SkillService manages which source documents back each skill. Links decide
// the retrieval pool for feedback queries; a link to a document that is not
// completed yet is allowed and simply contributes nothing until ingestion
// finishes.
type SkillService struct {
	linkRepo SkillLinkRepositoryInterface
	docRepo  DocumentRepositoryInterface
}

// NewSkillService creates a new SkillService instance
func NewSkillService(linkRepo SkillLinkRepositoryInterface, docRepo DocumentRepositoryInterface) *SkillService {
	return &SkillService{
		linkRepo: linkRepo,
		docRepo:  docRepo,
	}
}

// LinkSource associates a source document with a skill. Linking the same pair
// twice returns ErrSkillLinkAlreadyExists.
func (s *SkillService) LinkSource(ctx context.Context, skillID, documentID string) (*domain.SkillSourceLink, error) {
	if skillID == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "skill ID is required")
	}

	// The document must exist; its processing status does not matter here.
	if _, err := s.docRepo.GetByID(ctx, documentID); err != nil {
		return nil, err
	}

	link := &domain.SkillSourceLink{
		SkillID:    skillID,
		DocumentID: documentID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := domain.ValidateSkillSourceLink(link); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid skill source link", err)
	}

	if err := s.linkRepo.CreateLink(ctx, link); err != nil {
		return nil, err
	}

	return link, nil
}

// UnlinkSource removes the association between a skill and a source document.
// Idempotent: unlinking a pair that is not linked succeeds.
func (s *SkillService) UnlinkSource(ctx context.Context, skillID, documentID string) error {
	if skillID == "" || documentID == "" {
		return domain.NewDomainError(domain.ErrCodeValidation, "skill ID and document ID are required")
	}

	err := s.linkRepo.DeleteLink(ctx, skillID, documentID)
	if errors.Is(err, domain.ErrSkillLinkNotFound) {
		return nil
	}
	return err
}

// ListSources returns the documents linked to a skill, regardless of
// processing status, so callers can show which links are live yet.
func (s *SkillService) ListSources(ctx context.Context, skillID string) ([]*domain.SourceDocument, error) {
	links, err := s.linkRepo.ListBySkill(ctx, skillID)
	if err != nil {
		return nil, err
	}

	docs := make([]*domain.SourceDocument, 0, len(links))
	for _, link := range links {
		doc, err := s.docRepo.GetByID(ctx, link.DocumentID)
		if err != nil {
			if errors.Is(err, domain.ErrDocumentNotFound) {
				continue
			}
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, nil
}
