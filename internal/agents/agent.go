package agents

import (
	"context"
	"time"

	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/domain/content"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/domain/suggestion"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/pkg/logger"
)

// Built-in agent type names
const (
	TypeTrending      = "trending_analysis"
	TypeContentGap    = "content_gap"
	TypeSummarization = "summarization"
	TypeAIInsights    = "ai_insights"
)

// Context carries the inputs of one analysis pass. Agents must not mutate
// the items.
type Context struct {
	// Items is the batch under analysis
	Items []*content.Item

	// Peers is the full peer set used for relative metrics; defaults to
	// Items when empty
	Peers []*content.Item

	// Now is the reference time; defaults to time.Now()
	Now time.Time
}

// PeerSet returns the peer collection, falling back to the batch itself.
func (c Context) PeerSet() []*content.Item {
	if len(c.Peers) > 0 {
		return c.Peers
	}
	return c.Items
}

// Clock returns the reference time.
func (c Context) Clock() time.Time {
	if c.Now.IsZero() {
		return time.Now()
	}
	return c.Now
}

// Analyzer is the agent capability: analyze a content batch and emit scored
// suggestions. Implementations contain collaborator failures internally and
// return whatever suggestions they could produce; a non-nil error is
// reserved for context cancellation.
type Analyzer interface {
	// Type returns the agent type name
	Type() string

	// Analyze produces suggestions for the given context
	Analyze(ctx context.Context, ac Context) ([]*suggestion.Suggestion, error)

	// Config returns the current agent configuration
	Config() Config

	// UpdateConfig merges a patch over the current configuration
	UpdateConfig(p ConfigPatch)
}

// BaseAgent provides shared bookkeeping for concrete strategies.
type BaseAgent struct {
	typ string
	cfg Config
	log *logger.Logger
}

// NewBaseAgent constructs the embedded base for a strategy.
func NewBaseAgent(typ string, cfg Config) BaseAgent {
	return BaseAgent{
		typ: typ,
		cfg: cfg.withDefaults(),
		log: logger.Get().With("agent", typ),
	}
}

// Type returns the agent type name.
func (b *BaseAgent) Type() string {
	return b.typ
}

// Config returns the current configuration.
func (b *BaseAgent) Config() Config {
	return b.cfg
}

// UpdateConfig merges a patch over the current configuration,
// last-write-wins per key.
func (b *BaseAgent) UpdateConfig(p ConfigPatch) {
	b.cfg = b.cfg.Merge(p)
}

// Log returns the agent logger.
func (b *BaseAgent) Log() *logger.Logger {
	return b.log
}
