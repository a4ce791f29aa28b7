package kafka

// Topic definitions for Kafka event streaming
const (
	// Suggestion lifecycle events
	TopicSuggestionCreated     = "suggestions.created"
	TopicSuggestionApproved    = "suggestions.approved"
	TopicSuggestionImplemented = "suggestions.implemented"

	// Workflow events
	TopicWorkflowExecution = "workflow.executions"
	TopicWorkflowFailure   = "workflow.failures"

	// Notifications
	TopicNotifications = "notifications.admin"
)
