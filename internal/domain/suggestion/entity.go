package suggestion

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status of a suggestion's review lifecycle
type Status string

const (
	StatusPending     Status = "pending"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusImplemented Status = "implemented"
)

// Well-known target types. TargetType is free-form; these are the ones the
// built-in agents and action executors understand.
const (
	TargetHeroSection      = "hero_section"
	TargetFeaturedSection  = "featured_section"
	TargetArticle          = "article"
	TargetSEOImprovement   = "seo_improvement"
	TargetStrategicInsight = "strategic_insight"
)

// Suggestion is a scored, reasoned recommendation produced by an agent.
// Read-only after creation except for status transitions applied externally.
type Suggestion struct {
	ID              uuid.UUID       `db:"id"`
	AgentType       string          `db:"agent_type"`
	TargetType      string          `db:"target_type"`
	TargetID        *int64          `db:"target_id"`
	Data            json.RawMessage `db:"suggestion_data"`
	Reasoning       string          `db:"reasoning"`
	ConfidenceScore float64         `db:"confidence_score"`
	Priority        int             `db:"priority"` // 1=critical ... 5=low
	Status          Status          `db:"status"`
	StatusNote      string          `db:"status_note"`
	CreatedAt       time.Time       `db:"created_at"`
	ExpiresAt       *time.Time      `db:"expires_at"`
}

// SetData encodes the opaque payload interpreted by action executors.
func (s *Suggestion) SetData(payload map[string]interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	s.Data = data
	return nil
}

// GetData decodes the payload.
func (s *Suggestion) GetData() (map[string]interface{}, error) {
	out := map[string]interface{}{}
	if len(s.Data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(s.Data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// IsExpired reports whether the suggestion has passed its expiry.
func (s *Suggestion) IsExpired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}

// IsTerminal reports whether the suggestion reached a final review state.
func (s *Suggestion) IsTerminal() bool {
	return s.Status == StatusRejected || s.Status == StatusImplemented
}

// Complexity and impact classifications used by enhanced suggestions
const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

// ReasoningStep documents one step of an enhanced suggestion's reasoning chain.
type ReasoningStep struct {
	Step       string   `json:"step"`
	Evidence   []string `json:"evidence"`
	Confidence float64  `json:"confidence"`
	Weight     float64  `json:"weight"`
}

// Enhanced decorates a Suggestion with structured reasoning and risk analysis.
type Enhanced struct {
	Suggestion

	ReasoningSteps           []ReasoningStep `json:"reasoning_steps"`
	AlternativeApproaches    []string        `json:"alternative_approaches"`
	PotentialRisks           []string        `json:"potential_risks"`
	ImplementationComplexity string          `json:"implementation_complexity"`
	ExpectedImpact           string          `json:"expected_impact"`
	RelatedSuggestions       []string        `json:"related_suggestions"`
}

// AddStep appends a reasoning step.
func (e *Enhanced) AddStep(step ReasoningStep) {
	e.ReasoningSteps = append(e.ReasoningSteps, step)
}

// ApplyToData folds the enhancement into the suggestion payload under the
// "enhancement" key so the reasoning chain survives persistence and reaches
// reviewers. Existing payload keys are preserved.
func (e *Enhanced) ApplyToData() error {
	payload, err := e.GetData()
	if err != nil {
		return err
	}
	payload["enhancement"] = map[string]interface{}{
		"reasoning_steps":           e.ReasoningSteps,
		"alternative_approaches":    e.AlternativeApproaches,
		"potential_risks":           e.PotentialRisks,
		"implementation_complexity": e.ImplementationComplexity,
		"expected_impact":           e.ExpectedImpact,
		"related_suggestions":       e.RelatedSuggestions,
	}
	return e.SetData(payload)
}
