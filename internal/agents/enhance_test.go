package agents

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/domain/suggestion"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/pkg/errors"
)

// mockSuggestionRepo mocks suggestion.Repository
type mockSuggestionRepo struct {
	mock.Mock
}

func (m *mockSuggestionRepo) Create(ctx context.Context, s *suggestion.Suggestion) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSuggestionRepo) GetByID(ctx context.Context, id uuid.UUID) (*suggestion.Suggestion, error) {
	args := m.Called(ctx, id)
	if s := args.Get(0); s != nil {
		return s.(*suggestion.Suggestion), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSuggestionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status suggestion.Status, note string) error {
	return m.Called(ctx, id, status, note).Error(0)
}

func (m *mockSuggestionRepo) ListPending(ctx context.Context, limit int) ([]*suggestion.Suggestion, error) {
	args := m.Called(ctx, limit)
	if s := args.Get(0); s != nil {
		return s.([]*suggestion.Suggestion), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSuggestionRepo) ListByTarget(ctx context.Context, targetType string, targetID *int64, excludeAgent string) ([]*suggestion.Suggestion, error) {
	args := m.Called(ctx, targetType, targetID, excludeAgent)
	if s := args.Get(0); s != nil {
		return s.([]*suggestion.Suggestion), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSuggestionRepo) GetApprovalStats(ctx context.Context, targetType, agentType string) (suggestion.ApprovalStats, error) {
	args := m.Called(ctx, targetType, agentType)
	return args.Get(0).(suggestion.ApprovalStats), args.Error(1)
}

func (m *mockSuggestionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

var _ suggestion.Repository = (*mockSuggestionRepo)(nil)

func heroSuggestion(conf float64) *suggestion.Suggestion {
	id := int64(42)
	return &suggestion.Suggestion{
		ID:              uuid.New(),
		AgentType:       TypeTrending,
		TargetType:      suggestion.TargetHeroSection,
		TargetID:        &id,
		Reasoning:       "strong trending signal",
		ConfidenceScore: conf,
		Priority:        2,
		Status:          suggestion.StatusPending,
		CreatedAt:       time.Now(),
	}
}

func TestEnhancer_Decoration(t *testing.T) {
	repo := new(mockSuggestionRepo)
	repo.On("ListByTarget", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]*suggestion.Suggestion{}, nil)
	repo.On("GetApprovalStats", mock.Anything, mock.Anything, mock.Anything).
		Return(suggestion.ApprovalStats{}, nil)

	out := NewEnhancer(repo, nil).Enhance(context.Background(), []*suggestion.Suggestion{heroSuggestion(0.8)})
	require.Len(t, out, 1)

	enh := out[0]
	assert.NotEmpty(t, enh.PotentialRisks)
	assert.NotEmpty(t, enh.AlternativeApproaches)
	assert.Equal(t, suggestion.LevelLow, enh.ImplementationComplexity)
	assert.Equal(t, suggestion.LevelHigh, enh.ExpectedImpact)
	require.NotEmpty(t, enh.ReasoningSteps)
	assert.Equal(t, "initial analysis", enh.ReasoningSteps[0].Step)
	// No peers, no history: confidence untouched
	assert.InDelta(t, 0.8, enh.ConfidenceScore, 1e-9)
}

func TestEnhancer_CollaborationBoost(t *testing.T) {
	tests := []struct {
		name      string
		peerCount int
		wantBoost float64
	}{
		{"one agreeing agent", 1, 0.1},
		{"two agreeing agents cap", 2, 0.2},
		{"five agreeing agents still capped", 5, 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			peers := make([]*suggestion.Suggestion, tt.peerCount)
			for i := range peers {
				peers[i] = heroSuggestion(0.5)
				peers[i].AgentType = TypeContentGap
			}

			repo := new(mockSuggestionRepo)
			repo.On("ListByTarget", mock.Anything, suggestion.TargetHeroSection, mock.Anything, TypeTrending).
				Return(peers, nil)
			repo.On("GetApprovalStats", mock.Anything, mock.Anything, mock.Anything).
				Return(suggestion.ApprovalStats{}, nil)

			out := NewEnhancer(repo, nil).Enhance(context.Background(), []*suggestion.Suggestion{heroSuggestion(0.5)})
			require.Len(t, out, 1)

			assert.InDelta(t, 0.5+tt.wantBoost, out[0].ConfidenceScore, 1e-9)
			assert.Len(t, out[0].RelatedSuggestions, tt.peerCount)
		})
	}
}

func TestEnhancer_LearningAdjustment(t *testing.T) {
	tests := []struct {
		name  string
		stats suggestion.ApprovalStats
		want  float64
	}{
		{"high approval nudges up", suggestion.ApprovalStats{Approved: 9, Rejected: 1}, 0.6},
		{"low approval nudges down", suggestion.ApprovalStats{Approved: 2, Rejected: 8}, 0.4},
		{"middling approval is neutral", suggestion.ApprovalStats{Approved: 6, Rejected: 4}, 0.5},
		{"too few observations is neutral", suggestion.ApprovalStats{Approved: 4, Rejected: 1}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockSuggestionRepo)
			repo.On("ListByTarget", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
				Return([]*suggestion.Suggestion{}, nil)
			repo.On("GetApprovalStats", mock.Anything, suggestion.TargetHeroSection, TypeTrending).
				Return(tt.stats, nil)

			out := NewEnhancer(repo, nil).Enhance(context.Background(), []*suggestion.Suggestion{heroSuggestion(0.5)})
			require.Len(t, out, 1)
			assert.InDelta(t, tt.want, out[0].ConfidenceScore, 1e-9)
		})
	}
}

// memStatsCache mimics the redis JSON cache.
type memStatsCache struct {
	data map[string][]byte
}

func newMemStatsCache() *memStatsCache {
	return &memStatsCache{data: map[string][]byte{}}
}

func (c *memStatsCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.data[key]
	if !ok {
		return errors.ErrNotFound
	}
	return json.Unmarshal(raw, dest)
}

func (c *memStatsCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func TestEnhancer_ApprovalStatsAreCached(t *testing.T) {
	repo := new(mockSuggestionRepo)
	repo.On("ListByTarget", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]*suggestion.Suggestion{}, nil)
	repo.On("GetApprovalStats", mock.Anything, suggestion.TargetHeroSection, TypeTrending).
		Return(suggestion.ApprovalStats{Approved: 9, Rejected: 1}, nil).Once()

	enhancer := NewEnhancer(repo, newMemStatsCache())

	// The second pass must be served from the cache, with the same nudge
	for i := 0; i < 2; i++ {
		out := enhancer.Enhance(context.Background(), []*suggestion.Suggestion{heroSuggestion(0.5)})
		require.Len(t, out, 1)
		assert.InDelta(t, 0.6, out[0].ConfidenceScore, 1e-9)
	}

	repo.AssertNumberOfCalls(t, "GetApprovalStats", 1)
}

func TestEnhancer_LookupFailuresDowngradeGracefully(t *testing.T) {
	repo := new(mockSuggestionRepo)
	repo.On("ListByTarget", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, assert.AnError)
	repo.On("GetApprovalStats", mock.Anything, mock.Anything, mock.Anything).
		Return(suggestion.ApprovalStats{}, assert.AnError)

	out := NewEnhancer(repo, nil).Enhance(context.Background(), []*suggestion.Suggestion{heroSuggestion(0.8)})
	require.Len(t, out, 1)
	assert.InDelta(t, 0.8, out[0].ConfidenceScore, 1e-9)
	assert.NotEmpty(t, out[0].ReasoningSteps)
}
