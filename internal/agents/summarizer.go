package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/domain/content"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/domain/suggestion"
)

const (
	// Excerpt lengths considered acceptable for search snippets
	seoExcerptMin = 120
	seoExcerptMax = 160

	// Need score above which an excerpt rewrite is proposed
	summaryRequiredThreshold = 0.2

	// How many items get a generated summary per pass
	summaryBatchSize = 5
)

// Ensure SummarizerAgent implements Analyzer
var _ Analyzer = (*SummarizerAgent)(nil)

// SummarizerAgent scores each published item's need for a better excerpt
// and generates an extractive summary for the worst offenders.
type SummarizerAgent struct {
	BaseAgent
}

// NewSummarizerAgent creates a summarization need agent.
func NewSummarizerAgent(cfg Config) *SummarizerAgent {
	return &SummarizerAgent{BaseAgent: NewBaseAgent(TypeSummarization, cfg)}
}

// NeedScore rates how much an item needs a new excerpt. The excerpt
// components are mutually exclusive; length and recency boosts stack.
func (a *SummarizerAgent) NeedScore(item *content.Item, ageDays float64) float64 {
	var score float64

	switch excerptLen := len(strings.TrimSpace(item.Excerpt)); {
	case excerptLen == 0:
		score += 0.4
	case excerptLen < 50:
		score += 0.3
	case excerptLen < seoExcerptMin || excerptLen > seoExcerptMax:
		score += 0.2
	}

	switch length := len(item.Content); {
	case length > 2000:
		score += 0.1
	case length > 1000:
		score += 0.05
	}

	if ageDays < 7 {
		score += 0.1
	}

	return clamp01(score)
}

// Analyze finds items whose excerpts need work and proposes generated ones.
func (a *SummarizerAgent) Analyze(ctx context.Context, ac Context) ([]*suggestion.Suggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := ac.Clock()
	cfg := a.Config()

	type candidate struct {
		item *content.Item
		need float64
	}

	var candidates []candidate
	for _, item := range ac.Items {
		if !item.IsPublished() {
			continue
		}
		need := a.NeedScore(item, item.AgeDays(now))
		if need > summaryRequiredThreshold {
			candidates = append(candidates, candidate{item: item, need: need})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].need > candidates[j].need
	})
	if len(candidates) > summaryBatchSize {
		candidates = candidates[:summaryBatchSize]
	}

	var raw []*suggestion.Suggestion
	for _, c := range candidates {
		summary := ExtractSummary(c.item.Title, c.item.Content, seoExcerptMax)
		if summary == "" {
			continue
		}

		conf := Confidence(c.need, content.QualityScore(c.item))

		s := &suggestion.Suggestion{
			ID:         uuid.New(),
			AgentType:  TypeSummarization,
			TargetType: suggestion.TargetSEOImprovement,
			TargetID:   &c.item.ID,
			Reasoning: fmt.Sprintf(
				"%q needs a better excerpt (need score %.2f, current excerpt %d chars); proposed a %d-char extractive summary",
				c.item.Title, c.need, len(c.item.Excerpt), len(summary),
			),
			ConfidenceScore: conf,
			Priority:        CalculatePriority(c.need, 0.5, conf),
			Status:          suggestion.StatusPending,
			CreatedAt:       now,
			ExpiresAt:       expiry(now, cfg),
		}
		_ = s.SetData(map[string]interface{}{
			"article_id":        c.item.ID,
			"suggested_excerpt": summary,
			"need_score":        c.need,
		})
		raw = append(raw, s)
	}

	return PostProcess(raw, cfg), nil
}

// ExtractSummary builds an extractive summary: sentences are scored by
// position (first three favored), length (10-25 words favored) and keyword
// overlap with the title, then the top three are joined in original order
// and truncated to maxLen characters.
func ExtractSummary(title, text string, maxLen int) string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return ""
	}

	titleWords := keywordSet(title)

	type scored struct {
		index int
		text  string
		score float64
	}

	ranked := make([]scored, 0, len(sentences))
	for i, sent := range sentences {
		var score float64
		if i < 3 {
			score += 0.3
		}

		words := strings.Fields(sent)
		if len(words) >= 10 && len(words) <= 25 {
			score += 0.2
		}

		if len(titleWords) > 0 {
			var overlap int
			for _, w := range words {
				if titleWords[normalizeWord(w)] {
					overlap++
				}
			}
			score += 0.3 * float64(overlap) / float64(len(titleWords))
		}

		ranked = append(ranked, scored{index: i, text: sent, score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	top := ranked
	if len(top) > 3 {
		top = top[:3]
	}
	sort.Slice(top, func(i, j int) bool {
		return top[i].index < top[j].index
	})

	parts := make([]string, 0, len(top))
	for _, s := range top {
		parts = append(parts, s.text)
	}
	summary := strings.Join(parts, " ")

	return truncateAtWord(summary, maxLen)
}

func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder

	flush := func() {
		s := strings.TrimSpace(b.String())
		if len(s) > 10 {
			sentences = append(sentences, s)
		}
		b.Reset()
	}

	for _, r := range text {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			flush()
		}
	}
	flush()

	return sentences
}

func keywordSet(title string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(title) {
		w = normalizeWord(w)
		if len(w) > 3 {
			set[w] = true
		}
	}
	return set
}

func normalizeWord(w string) string {
	return strings.Trim(strings.ToLower(w), ".,!?:;\"'()")
}

func truncateAtWord(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := s[:maxLen-3]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}
