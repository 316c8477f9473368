package domain

import "fmt"

// FeedbackQuery is one evaluation request. It is ephemeral: neither the query
// nor its result is persisted by the engine.
type FeedbackQuery struct {
	StudentResponse string
	SkillID         string
	Question        string
	Context         string
}

// SourceCitation points the generated feedback back at one retrieved passage.
type SourceCitation struct {
	Title     string
	Author    string
	Excerpt   string
	Page      int
	Relevance int // 0-100
}

// FeedbackResult is the outcome of a feedback query.
type FeedbackResult struct {
	Feedback   string
	Sources    []SourceCitation
	Confidence int // 0-100
}

// ValidateFeedbackQuery validates a FeedbackQuery instance
func ValidateFeedbackQuery(q *FeedbackQuery) error {
	if q == nil {
		return fmt.Errorf("feedback query cannot be nil")
	}

	if q.StudentResponse == "" {
		return fmt.Errorf("feedback query StudentResponse is required")
	}

	if q.SkillID == "" {
		return fmt.Errorf("feedback query SkillID is required")
	}

	if q.Question == "" {
		return fmt.Errorf("feedback query Question is required")
	}

	return nil
}
