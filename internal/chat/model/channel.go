// Package model defines the chat domain's persisted entities: channels,
// messages, and feedback.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Channel owns an ordered list of messages exchanged with one agent.
type Channel struct {
	ID      uuid.UUID
	AgentID *uuid.UUID
	OwnerID uuid.UUID
	Messages []*Message
}

// LastMessage returns the channel's most recently appended message, or nil
// if the channel has none yet.
func (c *Channel) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// MessageStatus is the lifecycle state of a Message.
type MessageStatus string

const (
	MessageStatusSuccess   MessageStatus = "success"
	MessageStatusStreaming MessageStatus = "streaming"
	MessageStatusFailure   MessageStatus = "failure"
)

// MessageSource is a citation surfaced on an AI message, by display
// number.
type MessageSource struct {
	Number  int
	Label   string
	Content string
	Type    string
	URL     string
	Page    int
}

// Message is one turn in a Channel: either a user message or an AI
// message. An AI message always has a non-nil ParentID referencing the
// user message it answers; Status is MessageStatusStreaming only while
// that AI message is actively being generated.
type Message struct {
	ID          uuid.UUID
	ChannelID   uuid.UUID
	ParentID    *uuid.UUID
	Content     string
	IsAIMessage bool
	Sources     []MessageSource
	Status      MessageStatus
	TraceID     string
	Metadata    Metadata
	CreatedAt   time.Time
}

// Metadata is the free-form per-message metadata bag: streaming steps and
// trace durations.
type Metadata struct {
	Steps            []string
	TraceURL         string
	TotalDuration    time.Duration
	TimeToFirstToken time.Duration
}

// HasSource reports whether sources already contains an entry numbered n.
func (m *Message) HasSource(number int) bool {
	for _, s := range m.Sources {
		if s.Number == number {
			return true
		}
	}
	return false
}

// Feedback is a user's score on one AI message, upserted keyed by
// (MessageID, TraceID).
type Feedback struct {
	MessageID uuid.UUID
	TraceID   string
	Score     int // -1, 0, or 1
	Comment   string
}
