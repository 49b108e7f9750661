// Package channels adapts chat platforms to the orchestrator. Each
// adapter normalizes inbound platform events into Messages and exposes
// outbound send primitives.
package channels

import (
	"context"
	"time"
)

// Image is an inbound picture, already fetched from the platform.
type Image struct {
	MediaType string // e.g. "image/jpeg"
	Data      []byte
}

// Message is one normalized inbound message from any platform.
type Message struct {
	ID             string
	Platform       string
	Sender         string // platform user ID, stable per user
	SenderName     string
	Content        string
	ConversationID string // where replies go (chat ID on telegram)
	Images         []Image
	Timestamp      time.Time
}

// Adapter is implemented by every chat platform connector.
type Adapter interface {
	// Platform returns the adapter's stable name, e.g. "telegram".
	Platform() string

	// Start connects to the platform and begins delivering messages on
	// Messages(). It returns after the connection is established; delivery
	// stops when ctx is cancelled.
	Start(ctx context.Context) error

	// Messages is the inbound stream. Delivery stops when the Start
	// context is cancelled; consumers select on that context rather than
	// waiting for a close.
	Messages() <-chan Message

	// SendMessage delivers text to a conversation, chunking as the
	// platform requires.
	SendMessage(ctx context.Context, conversationID, text string) error

	// SendPhoto delivers a local image file to a conversation.
	SendPhoto(ctx context.Context, conversationID, path, caption string) error

	// SendTyping shows a transient typing indicator. Best effort.
	SendTyping(ctx context.Context, conversationID string)
}

const maxMessageChars = 4000

// SplitMessage chunks text for platforms with a message length limit,
// preferring to break on line boundaries.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = maxMessageChars
	}
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(text) > limit {
		cut := limit
		if idx := lastNewlineBefore(text, limit); idx > 0 {
			cut = idx
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
		for len(text) > 0 && text[0] == '\n' {
			text = text[1:]
		}
	}
	if len(text) > 0 {
		chunks = append(chunks, text)
	}
	return chunks
}

func lastNewlineBefore(s string, limit int) int {
	for i := limit; i > 0; i-- {
		if s[i-1] == '\n' {
			return i - 1
		}
	}
	return -1
}
