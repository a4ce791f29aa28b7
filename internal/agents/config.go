package agents

// PriorityWeight adjusts how boldly an agent scores its suggestions.
type PriorityWeight string

const (
	WeightConservative PriorityWeight = "conservative"
	WeightBalanced     PriorityWeight = "balanced"
	WeightAggressive   PriorityWeight = "aggressive"
)

// Config holds the named tunables of an agent instance. Known fields cover
// the shared framework knobs; Extra carries strategy-specific extensions.
type Config struct {
	ConfidenceThreshold    float64
	PriorityWeight         PriorityWeight
	MaxSuggestions         int
	MinViews               int64
	FreshnessThresholdDays float64
	QualityThreshold       float64
	SuggestionTTLHours     int
	CollaborationEnabled   bool
	ContentFilters         []string

	Extra map[string]interface{}
}

// DefaultConfig returns the framework defaults.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold:    0.7,
		PriorityWeight:         WeightBalanced,
		MaxSuggestions:         5,
		MinViews:               10,
		FreshnessThresholdDays: 30,
		QualityThreshold:       0.7,
		SuggestionTTLHours:     168,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ConfidenceThreshold == 0 {
		c.ConfidenceThreshold = d.ConfidenceThreshold
	}
	if c.PriorityWeight == "" {
		c.PriorityWeight = d.PriorityWeight
	}
	if c.MaxSuggestions == 0 {
		c.MaxSuggestions = d.MaxSuggestions
	}
	if c.MinViews == 0 {
		c.MinViews = d.MinViews
	}
	if c.FreshnessThresholdDays == 0 {
		c.FreshnessThresholdDays = d.FreshnessThresholdDays
	}
	if c.QualityThreshold == 0 {
		c.QualityThreshold = d.QualityThreshold
	}
	if c.SuggestionTTLHours == 0 {
		c.SuggestionTTLHours = d.SuggestionTTLHours
	}
	return c
}

// ConfigPatch is a partial configuration update. Nil fields leave the
// current value untouched; set fields win (shallow merge, last-write-wins).
type ConfigPatch struct {
	ConfidenceThreshold    *float64
	PriorityWeight         *PriorityWeight
	MaxSuggestions         *int
	MinViews               *int64
	FreshnessThresholdDays *float64
	QualityThreshold       *float64
	SuggestionTTLHours     *int
	CollaborationEnabled   *bool
	ContentFilters         []string

	Extra map[string]interface{}
}

// Merge applies a patch over the config and returns the result.
func (c Config) Merge(p ConfigPatch) Config {
	if p.ConfidenceThreshold != nil {
		c.ConfidenceThreshold = *p.ConfidenceThreshold
	}
	if p.PriorityWeight != nil {
		c.PriorityWeight = *p.PriorityWeight
	}
	if p.MaxSuggestions != nil {
		c.MaxSuggestions = *p.MaxSuggestions
	}
	if p.MinViews != nil {
		c.MinViews = *p.MinViews
	}
	if p.FreshnessThresholdDays != nil {
		c.FreshnessThresholdDays = *p.FreshnessThresholdDays
	}
	if p.QualityThreshold != nil {
		c.QualityThreshold = *p.QualityThreshold
	}
	if p.SuggestionTTLHours != nil {
		c.SuggestionTTLHours = *p.SuggestionTTLHours
	}
	if p.CollaborationEnabled != nil {
		c.CollaborationEnabled = *p.CollaborationEnabled
	}
	if p.ContentFilters != nil {
		c.ContentFilters = p.ContentFilters
	}
	if len(p.Extra) > 0 {
		if c.Extra == nil {
			c.Extra = make(map[string]interface{}, len(p.Extra))
		}
		for k, v := range p.Extra {
			c.Extra[k] = v
		}
	}
	return c
}
