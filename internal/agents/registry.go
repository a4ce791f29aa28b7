package agents

import (
	"sort"
	"sync"

	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/adapters/ai"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/pkg/logger"
)

// Factory constructs an agent of one type from a configuration.
type Factory func(cfg Config) (Analyzer, error)

// Registry maps agent type names to factories and instance names to live
// agents. It is constructed once at the composition root and passed down
// explicitly; creation and removal are serialized, and re-creating an
// existing name replaces the previous instance (last-writer-wins).
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	agents    map[string]Analyzer
	log       *logger.Logger
}

// NewRegistry constructs an empty agent registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		agents:    make(map[string]Analyzer),
		log:       logger.Get().With("component", "agent_registry"),
	}
}

// NewDefaultRegistry registers the built-in agent types. The AI analyzer
// may be nil, in which case the ai_insights type is unavailable.
func NewDefaultRegistry(analyzer ai.Analyzer) *Registry {
	r := NewRegistry()

	r.RegisterType(TypeTrending, func(cfg Config) (Analyzer, error) {
		return NewTrendingAgent(cfg), nil
	})
	r.RegisterType(TypeContentGap, func(cfg Config) (Analyzer, error) {
		return NewContentGapAgent(cfg), nil
	})
	r.RegisterType(TypeSummarization, func(cfg Config) (Analyzer, error) {
		return NewSummarizerAgent(cfg), nil
	})
	if analyzer != nil {
		r.RegisterType(TypeAIInsights, func(cfg Config) (Analyzer, error) {
			return NewAIInsightsAgent(cfg, analyzer)
		})
	}

	return r
}

// RegisterType adds or replaces a factory for an agent type.
func (r *Registry) RegisterType(typ string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[typ] = factory
}

// Create instantiates a named agent of the given type. Unknown types and
// construction failures return nil after logging; they never panic or
// propagate.
func (r *Registry) Create(name, typ string, cfg Config) Analyzer {
	r.mu.Lock()
	defer r.mu.Unlock()

	factory, ok := r.factories[typ]
	if !ok {
		r.log.Errorf("Unknown agent type %q requested for %q", typ, name)
		return nil
	}

	agent, err := factory(cfg)
	if err != nil {
		r.log.Errorf("Failed to construct agent %q of type %q: %v", name, typ, err)
		return nil
	}

	r.agents[name] = agent
	r.log.Info("Agent created", "name", name, "type", typ)
	return agent
}

// Get retrieves a live agent by instance name.
func (r *Registry) Get(name string) (Analyzer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agent, ok := r.agents[name]
	return agent, ok
}

// Remove deletes a live agent, reporting whether it existed.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.agents[name]; !ok {
		return false
	}
	delete(r.agents, name)
	return true
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Agents returns the live agent instances.
func (r *Registry) Agents() []Analyzer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Analyzer, 0, len(r.agents))
	for _, a := range r.agents {
		out = append(out, a)
	}
	return out
}

// GroupMember describes one agent of a collaborative group.
type GroupMember struct {
	Name   string
	Type   string
	Config Config
}

// CreateCollaborativeGroup creates a batch of agents with collaboration
// forced on. Members whose type is unknown are skipped (logged by Create).
func (r *Registry) CreateCollaborativeGroup(members []GroupMember) []Analyzer {
	created := make([]Analyzer, 0, len(members))
	for _, m := range members {
		m.Config.CollaborationEnabled = true
		if agent := r.Create(m.Name, m.Type, m.Config); agent != nil {
			created = append(created, agent)
		}
	}
	return created
}
