package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionState is the negotiation agent's state for one conversation.
type SessionState string

const (
	SessionStateIdle                  SessionState = "idle"
	SessionStateListening             SessionState = "listening"
	SessionStateExtracting            SessionState = "extracting"
	SessionStateAwaitingClarification SessionState = "awaiting_clarification"
	SessionStateComplete              SessionState = "complete"
	SessionStateFailed                SessionState = "failed"
)

// Terminal reports whether the session admits no further turns.
func (s SessionState) Terminal() bool {
	return s == SessionStateComplete || s == SessionStateFailed
}

// Message roles within a conversation.
const (
	RoleVendor    = "vendor"
	RoleAssistant = "assistant"
)

// ConversationMessage is one utterance in a negotiation, kept in both the
// vendor's language and the pivot language used for extraction.
type ConversationMessage struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	PivotText string    `json:"pivot_text,omitempty"`
	Language  string    `json:"language,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationContext carries everything the agent knows about one
// negotiation in progress.
type ConversationContext struct {
	SessionID          string                `json:"session_id"`
	State              SessionState          `json:"state"`
	Messages           []ConversationMessage `json:"messages,omitempty"`
	CurrentLanguage    string                `json:"current_language,omitempty"`
	ExtractionAttempts int                   `json:"extraction_attempts"`
	PartialData        TradeData             `json:"partial_data"`
	CreatedAt          time.Time             `json:"created_at"`
}

// NewSession opens a fresh negotiation session in the given language.
func NewSession(language string) *ConversationContext {
	return &ConversationContext{
		SessionID:       uuid.New().String(),
		State:           SessionStateIdle,
		CurrentLanguage: language,
		CreatedAt:       time.Now().UTC(),
	}
}

// Append records an utterance on the session transcript.
func (c *ConversationContext) Append(role, text, pivotText, language string) {
	c.Messages = append(c.Messages, ConversationMessage{
		Role:      role,
		Text:      text,
		PivotText: pivotText,
		Language:  language,
		Timestamp: time.Now().UTC(),
	})
}
