package domain

import "time"

// EventType discriminates TimelineEvent variants.
type EventType string

const (
	EventClientCreated      EventType = "client-created"
	EventStageMoved         EventType = "stage-moved"
	EventPipelineAssigned   EventType = "pipeline-assigned"
	EventStatusChanged      EventType = "status-changed"
	EventNoteAdded          EventType = "note-added"
	EventDocumentUploaded   EventType = "document-uploaded"
	EventBudgetSubmitted    EventType = "budget-submitted"
	EventMeetingScheduled   EventType = "meeting-scheduled"
	EventMilestoneCompleted EventType = "milestone-completed"
)

// SystemAuthor is recorded when no acting identity is available.
const SystemAuthor = "System"

// TimelineEvent is an immutable entry of a client's history.
//
// Only the detail pointer matching Type is set: StageMoved for stage-moved,
// PipelineAssigned for pipeline-assigned, StatusChanged for status-changed.
type TimelineEvent struct {
	ID          string    `json:"id" mapstructure:"id"`
	ClientID    string    `json:"clientId" mapstructure:"clientId"`
	Type        EventType `json:"type" mapstructure:"type"`
	Title       string    `json:"title" mapstructure:"title"`
	Description string    `json:"description" mapstructure:"description"`
	Date        time.Time `json:"date" mapstructure:"date"`
	Author      string    `json:"author" mapstructure:"author"`

	StageMoved       *StageMovedDetail       `json:"stageMoved,omitempty" mapstructure:"stageMoved"`
	PipelineAssigned *PipelineAssignedDetail `json:"pipelineAssigned,omitempty" mapstructure:"pipelineAssigned"`
	StatusChanged    *StatusChangedDetail    `json:"statusChanged,omitempty" mapstructure:"statusChanged"`
}

type StageMovedDetail struct {
	From       Stage  `json:"from" mapstructure:"from"`
	To         Stage  `json:"to" mapstructure:"to"`
	PipelineID string `json:"pipelineId,omitempty" mapstructure:"pipelineId"`
}

type PipelineAssignedDetail struct {
	PipelineID string `json:"pipelineId" mapstructure:"pipelineId"`
	Stage      Stage  `json:"stage" mapstructure:"stage"`
}

type StatusChangedDetail struct {
	From ClientStatus `json:"from" mapstructure:"from"`
	To   ClientStatus `json:"to" mapstructure:"to"`
}
