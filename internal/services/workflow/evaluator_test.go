package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/adapters/kafka"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/domain/suggestion"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/domain/workflow"
)

// Mocks

type mockRuleRepo struct{ mock.Mock }

func (m *mockRuleRepo) Create(ctx context.Context, r *workflow.Rule) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockRuleRepo) GetByID(ctx context.Context, id uuid.UUID) (*workflow.Rule, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*workflow.Rule), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRuleRepo) ListEnabled(ctx context.Context) ([]*workflow.Rule, error) {
	args := m.Called(ctx)
	if r := args.Get(0); r != nil {
		return r.([]*workflow.Rule), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRuleRepo) List(ctx context.Context) ([]*workflow.Rule, error) {
	args := m.Called(ctx)
	if r := args.Get(0); r != nil {
		return r.([]*workflow.Rule), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRuleRepo) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	return m.Called(ctx, id, enabled).Error(0)
}

func (m *mockRuleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRuleRepo) RecordExecution(ctx context.Context, id uuid.UUID, success bool) error {
	return m.Called(ctx, id, success).Error(0)
}

type mockExecRepo struct{ mock.Mock }

func (m *mockExecRepo) Create(ctx context.Context, e *workflow.Execution) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockExecRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status workflow.ExecutionStatus, result, errMsg string) error {
	return m.Called(ctx, id, status, result, errMsg).Error(0)
}

func (m *mockExecRepo) ListBySuggestion(ctx context.Context, suggestionID uuid.UUID) ([]*workflow.Execution, error) {
	args := m.Called(ctx, suggestionID)
	if e := args.Get(0); e != nil {
		return e.([]*workflow.Execution), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSuggRepo struct{ mock.Mock }

func (m *mockSuggRepo) Create(ctx context.Context, s *suggestion.Suggestion) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSuggRepo) GetByID(ctx context.Context, id uuid.UUID) (*suggestion.Suggestion, error) {
	args := m.Called(ctx, id)
	if s := args.Get(0); s != nil {
		return s.(*suggestion.Suggestion), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSuggRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status suggestion.Status, note string) error {
	return m.Called(ctx, id, status, note).Error(0)
}

func (m *mockSuggRepo) ListPending(ctx context.Context, limit int) ([]*suggestion.Suggestion, error) {
	args := m.Called(ctx, limit)
	if s := args.Get(0); s != nil {
		return s.([]*suggestion.Suggestion), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSuggRepo) ListByTarget(ctx context.Context, targetType string, targetID *int64, excludeAgent string) ([]*suggestion.Suggestion, error) {
	args := m.Called(ctx, targetType, targetID, excludeAgent)
	if s := args.Get(0); s != nil {
		return s.([]*suggestion.Suggestion), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSuggRepo) GetApprovalStats(ctx context.Context, targetType, agentType string) (suggestion.ApprovalStats, error) {
	args := m.Called(ctx, targetType, agentType)
	return args.Get(0).(suggestion.ApprovalStats), args.Error(1)
}

func (m *mockSuggRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type mockAdminRepo struct{ mock.Mock }

func (m *mockAdminRepo) InsertNotification(ctx context.Context, n *workflow.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *mockAdminRepo) InsertReview(ctx context.Context, r *workflow.ReviewSchedule) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockAdminRepo) InsertTask(ctx context.Context, t *workflow.AdminTask) error {
	return m.Called(ctx, t).Error(0)
}

type mockImplementer struct{ mock.Mock }

func (m *mockImplementer) Implement(ctx context.Context, s *suggestion.Suggestion) error {
	return m.Called(ctx, s).Error(0)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, topic, key string, event interface{}) error {
	return m.Called(ctx, topic, key, event).Error(0)
}

// Helpers

type evalFixture struct {
	rules       *mockRuleRepo
	execs       *mockExecRepo
	suggestions *mockSuggRepo
	admin       *mockAdminRepo
	implementer *mockImplementer
	evaluator   *Evaluator
}

func newFixture(t *testing.T) *evalFixture {
	t.Helper()

	f := &evalFixture{
		rules:       new(mockRuleRepo),
		execs:       new(mockExecRepo),
		suggestions: new(mockSuggRepo),
		admin:       new(mockAdminRepo),
		implementer: new(mockImplementer),
	}
	f.evaluator = NewEvaluator(Deps{
		Rules:       f.rules,
		Executions:  f.execs,
		Suggestions: f.suggestions,
		Admin:       f.admin,
		Implementer: f.implementer,
	})
	return f
}

func autoApproveRule(t *testing.T, threshold float64) *workflow.Rule {
	t.Helper()

	rule := &workflow.Rule{
		ID:      uuid.New(),
		Name:    "auto-approve high confidence",
		Enabled: true,
	}
	require.NoError(t, rule.SetConditions([]workflow.Condition{
		{Type: workflow.ConditionConfidenceThreshold, Operator: workflow.OpGreaterThan, Value: threshold},
	}))
	require.NoError(t, rule.SetActions([]workflow.Action{
		{Type: workflow.ActionAutoApprove},
	}))
	return rule
}

func pendingSuggestion(conf float64) *suggestion.Suggestion {
	return &suggestion.Suggestion{
		ID:              uuid.New(),
		AgentType:       "trending_analysis",
		TargetType:      suggestion.TargetHeroSection,
		ConfidenceScore: conf,
		Priority:        2,
		Status:          suggestion.StatusPending,
		CreatedAt:       time.Now(),
	}
}

// Tests

func TestEvaluator_AutoApproveHighConfidence(t *testing.T) {
	f := newFixture(t)
	rule := autoApproveRule(t, 0.9)
	s := pendingSuggestion(0.95)

	f.rules.On("ListEnabled", mock.Anything).Return([]*workflow.Rule{rule}, nil)
	f.execs.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.execs.On("UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.suggestions.On("UpdateStatus", mock.Anything, s.ID, suggestion.StatusApproved, mock.Anything).Return(nil)
	f.rules.On("RecordExecution", mock.Anything, rule.ID, true).Return(nil)

	execs, err := f.evaluator.Evaluate(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, execs, 1)

	assert.Equal(t, workflow.ExecutionCompleted, execs[0].Status)
	assert.Empty(t, execs[0].ErrorMessage)
	assert.NotNil(t, execs[0].CompletedAt)
	assert.Equal(t, suggestion.StatusApproved, s.Status)

	f.suggestions.AssertCalled(t, "UpdateStatus", mock.Anything, s.ID, suggestion.StatusApproved, mock.Anything)
	f.rules.AssertCalled(t, "RecordExecution", mock.Anything, rule.ID, true)
}

func TestEvaluator_LowConfidenceProducesNoExecutions(t *testing.T) {
	f := newFixture(t)
	rule := autoApproveRule(t, 0.9)
	s := pendingSuggestion(0.5)

	f.rules.On("ListEnabled", mock.Anything).Return([]*workflow.Rule{rule}, nil)

	execs, err := f.evaluator.Evaluate(context.Background(), s)
	require.NoError(t, err)
	assert.Empty(t, execs)

	f.execs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.suggestions.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEvaluator_ConditionsAreANDed(t *testing.T) {
	f := newFixture(t)
	s := pendingSuggestion(0.95) // passes the confidence condition

	rule := &workflow.Rule{ID: uuid.New(), Name: "two conditions", Enabled: true}
	require.NoError(t, rule.SetConditions([]workflow.Condition{
		{Type: workflow.ConditionConfidenceThreshold, Operator: workflow.OpGreaterThan, Value: 0.9},
		{Type: workflow.ConditionAgentType, Operator: workflow.OpEquals, Value: "content_gap"}, // false
	}))
	require.NoError(t, rule.SetActions([]workflow.Action{{Type: workflow.ActionAutoApprove}}))

	f.rules.On("ListEnabled", mock.Anything).Return([]*workflow.Rule{rule}, nil)

	execs, err := f.evaluator.Evaluate(context.Background(), s)
	require.NoError(t, err)
	assert.Empty(t, execs, "a single false condition must exclude the rule")
}

func TestEvaluator_RulesRunPriorityDescending(t *testing.T) {
	f := newFixture(t)
	s := pendingSuggestion(0.95)

	low := autoApproveRule(t, 0.9)
	low.Name = "low"
	low.Priority = 1
	high := autoApproveRule(t, 0.9)
	high.Name = "high"
	high.Priority = 10

	f.rules.On("ListEnabled", mock.Anything).Return([]*workflow.Rule{low, high}, nil)
	f.execs.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.execs.On("UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.suggestions.On("UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.rules.On("RecordExecution", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	execs, err := f.evaluator.Evaluate(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, execs, 2)

	assert.Equal(t, high.ID, execs[0].RuleID)
	assert.Equal(t, low.ID, execs[1].RuleID)
}

func TestEvaluator_UnknownActionFailsExecution(t *testing.T) {
	f := newFixture(t)
	s := pendingSuggestion(0.95)

	rule := &workflow.Rule{ID: uuid.New(), Name: "bad action", Enabled: true}
	require.NoError(t, rule.SetConditions([]workflow.Condition{
		{Type: workflow.ConditionConfidenceThreshold, Operator: workflow.OpGreaterThan, Value: 0.5},
	}))
	require.NoError(t, rule.SetActions([]workflow.Action{{Type: "summon_dragons"}}))

	f.rules.On("ListEnabled", mock.Anything).Return([]*workflow.Rule{rule}, nil)
	f.execs.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.execs.On("UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.rules.On("RecordExecution", mock.Anything, rule.ID, false).Return(nil)

	execs, err := f.evaluator.Evaluate(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, execs, 1)

	assert.Equal(t, workflow.ExecutionFailed, execs[0].Status)
	assert.Contains(t, execs[0].ErrorMessage, "summon_dragons")

	f.rules.AssertCalled(t, "RecordExecution", mock.Anything, rule.ID, false)
}

func TestEvaluator_AutoImplement(t *testing.T) {
	f := newFixture(t)
	s := pendingSuggestion(0.95)

	rule := &workflow.Rule{ID: uuid.New(), Name: "auto implement", Enabled: true}
	require.NoError(t, rule.SetConditions([]workflow.Condition{
		{Type: workflow.ConditionConfidenceThreshold, Operator: workflow.OpGreaterThan, Value: 0.5},
	}))
	require.NoError(t, rule.SetActions([]workflow.Action{{Type: workflow.ActionAutoImplement}}))

	f.rules.On("ListEnabled", mock.Anything).Return([]*workflow.Rule{rule}, nil)
	f.execs.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.execs.On("UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.implementer.On("Implement", mock.Anything, s).Return(nil)
	f.suggestions.On("UpdateStatus", mock.Anything, s.ID, suggestion.StatusImplemented, mock.Anything).Return(nil)
	f.rules.On("RecordExecution", mock.Anything, rule.ID, true).Return(nil)

	execs, err := f.evaluator.Evaluate(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, execs, 1)

	assert.Equal(t, workflow.ExecutionCompleted, execs[0].Status)
	assert.Equal(t, suggestion.StatusImplemented, s.Status)
	f.implementer.AssertExpectations(t)
}

func TestEvaluator_ScheduleReviewAndTaskActions(t *testing.T) {
	f := newFixture(t)
	s := pendingSuggestion(0.95)

	rule := &workflow.Rule{ID: uuid.New(), Name: "review and task", Enabled: true}
	require.NoError(t, rule.SetConditions(nil))
	require.NoError(t, rule.SetActions([]workflow.Action{
		{Type: workflow.ActionScheduleReview, DelayMinutes: 120},
		{Type: workflow.ActionCreateTask, Parameters: map[string]interface{}{"title": "check the hero"}},
		{Type: workflow.ActionNotifyAdmin},
	}))

	f.rules.On("ListEnabled", mock.Anything).Return([]*workflow.Rule{rule}, nil)
	f.execs.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.execs.On("UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.rules.On("RecordExecution", mock.Anything, rule.ID, true).Return(nil)

	f.admin.On("InsertReview", mock.Anything, mock.MatchedBy(func(r *workflow.ReviewSchedule) bool {
		return r.SuggestionID == s.ID && r.ScheduledFor.After(time.Now().Add(115*time.Minute))
	})).Return(nil)
	f.admin.On("InsertTask", mock.Anything, mock.MatchedBy(func(task *workflow.AdminTask) bool {
		return task.Title == "check the hero" && task.Status == workflow.TaskOpen
	})).Return(nil)
	f.admin.On("InsertNotification", mock.Anything, mock.Anything).Return(nil)

	execs, err := f.evaluator.Evaluate(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, workflow.ExecutionCompleted, execs[0].Status)

	f.admin.AssertExpectations(t)
}

func TestEvaluator_NotifyAdminPublishesEvent(t *testing.T) {
	f := newFixture(t)
	pub := new(mockPublisher)
	f.evaluator = NewEvaluator(Deps{
		Rules:       f.rules,
		Executions:  f.execs,
		Suggestions: f.suggestions,
		Admin:       f.admin,
		Implementer: f.implementer,
		Publisher:   pub,
	})

	s := pendingSuggestion(0.95)
	rule := &workflow.Rule{ID: uuid.New(), Name: "notify", Enabled: true}
	require.NoError(t, rule.SetConditions(nil))
	require.NoError(t, rule.SetActions([]workflow.Action{{Type: workflow.ActionNotifyAdmin}}))

	f.rules.On("ListEnabled", mock.Anything).Return([]*workflow.Rule{rule}, nil)
	f.execs.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.execs.On("UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.rules.On("RecordExecution", mock.Anything, rule.ID, true).Return(nil)
	f.admin.On("InsertNotification", mock.Anything, mock.Anything).Return(nil)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	execs, err := f.evaluator.Evaluate(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, workflow.ExecutionCompleted, execs[0].Status)

	pub.AssertCalled(t, "Publish", mock.Anything, kafka.TopicNotifications, s.ID.String(), mock.Anything)
	pub.AssertCalled(t, "Publish", mock.Anything, kafka.TopicWorkflowExecution, mock.Anything, mock.Anything)
}

func TestEvaluator_ConditionTypes(t *testing.T) {
	f := newFixture(t)
	s := pendingSuggestion(0.8)
	s.CreatedAt = time.Now().Add(-10 * time.Hour)

	tests := []struct {
		name string
		cond workflow.Condition
		want bool
	}{
		{"suggestion type contains", workflow.Condition{
			Type: workflow.ConditionSuggestionType, Operator: workflow.OpContains, Value: "hero"}, true},
		{"suggestion type mismatch", workflow.Condition{
			Type: workflow.ConditionSuggestionType, Operator: workflow.OpEquals, Value: "article"}, false},
		{"agent type regexp", workflow.Condition{
			Type: workflow.ConditionAgentType, Operator: workflow.OpMatches, Value: "^trending_"}, true},
		{"time based greater than hours", workflow.Condition{
			Type: workflow.ConditionTimeBased, Operator: workflow.OpGreaterThan, Value: 5}, true},
		{"time based less than hours", workflow.Condition{
			Type: workflow.ConditionTimeBased, Operator: workflow.OpLessThan, Value: 5}, false},
		{"unknown type never matches", workflow.Condition{
			Type: "phase_of_moon", Operator: workflow.OpEquals, Value: "full"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := &workflow.Rule{ID: uuid.New(), Enabled: true}
			require.NoError(t, rule.SetConditions([]workflow.Condition{tt.cond}))

			got, err := f.evaluator.Matches(context.Background(), rule, s)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluator_ApprovalHistoryCondition(t *testing.T) {
	cond := workflow.Condition{
		Type:     workflow.ConditionApprovalHistory,
		Operator: workflow.OpGreaterThan,
		Value:    70, // percent
	}

	tests := []struct {
		name  string
		stats suggestion.ApprovalStats
		err   error
		want  bool
	}{
		{"strong history passes", suggestion.ApprovalStats{Approved: 8, Rejected: 2}, nil, true},
		{"weak history fails", suggestion.ApprovalStats{Approved: 3, Rejected: 7}, nil, false},
		{"too little history passes through", suggestion.ApprovalStats{Approved: 3, Rejected: 1}, nil, true},
		{"lookup failure passes through", suggestion.ApprovalStats{}, assert.AnError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			s := pendingSuggestion(0.8)

			f.suggestions.On("GetApprovalStats", mock.Anything, s.TargetType, s.AgentType).
				Return(tt.stats, tt.err)

			rule := &workflow.Rule{ID: uuid.New(), Enabled: true}
			require.NoError(t, rule.SetConditions([]workflow.Condition{cond}))

			got, err := f.evaluator.Matches(context.Background(), rule, s)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluator_NilSuggestion(t *testing.T) {
	f := newFixture(t)

	_, err := f.evaluator.Evaluate(context.Background(), nil)
	assert.Error(t, err)
}
