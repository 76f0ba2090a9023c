package model

import "github.com/google/uuid"

// TaskQueueSystem names the backend that runs a Task.
type TaskQueueSystem string

// TaskState is the lifecycle state of a queued/running Task, as reported
// by the Task queue external interface.
type TaskState string

const (
	TaskStateQueued  TaskState = "queued"
	TaskStateRunning TaskState = "running"
	TaskStateSuccess TaskState = "success"
	TaskStateFailed  TaskState = "failed"
)

// Task records one external pipeline run triggered for an integration slug
// that is not natively streamed by this module's Source/Stream
// implementations.
type Task struct {
	ID             uuid.UUID
	QueueSystem    TaskQueueSystem
	SourceType     string
	SourceID       uuid.UUID
	ExecutionType  string
	RequestPayload map[string]any
	ExternalID     string
}
