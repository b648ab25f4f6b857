// Package domain contains core concepts of the messaging system.
// This file defines Message records and derived conversation summaries.
// No storage, network, or UI logic should be added here.
package domain

// Message represents an immutable chat record. ID and Timestamp are
// assigned by the store at append time and never change afterwards.
type Message struct {
	ID           int64  // store-unique, monotonically increasing
	Conversation string
	Sender       string // normalized participant address
	Text         string
	Timestamp    int64 // unix milliseconds, non-decreasing store-wide
}

// ConversationSummary is a derived view of a conversation relative to one
// participant. It is computed on demand and never persisted.
type ConversationSummary struct {
	Conversation     string
	OtherParticipant string
	LastMessage      string
	LastTimestamp    int64
}
