package domain

import (
	"fmt"
	"time"
)

// SkillSourceLink associates a skill with a source document an instructor has
// designated as ground truth for that skill.
type SkillSourceLink struct {
	SkillID    string
	DocumentID string
	CreatedAt  time.Time
}

// ValidateSkillSourceLink validates a SkillSourceLink instance
func ValidateSkillSourceLink(l *SkillSourceLink) error {
	if l == nil {
		return fmt.Errorf("skill source link cannot be nil")
	}

	if l.SkillID == "" {
		return fmt.Errorf("skill source link SkillID is required")
	}

	if l.DocumentID == "" {
		return fmt.Errorf("skill source link DocumentID is required")
	}

	return nil
}
