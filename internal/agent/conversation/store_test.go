package conversation

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestAppendTrimsOldestPairs(t *testing.T) {
	s := NewStore(3) // cap = 6 turns

	for i := 0; i < 10; i++ {
		s.Append("c1", TextTurn(RoleUser, fmt.Sprintf("u%d", i)))
		s.Append("c1", TextTurn(RoleAssistant, fmt.Sprintf("a%d", i)))
	}

	turns := s.Get("c1")
	if len(turns) != 6 {
		t.Fatalf("expected 6 turns after trim, got %d", len(turns))
	}
	// Most recent pairs in original order: u7 a7 u8 a8 u9 a9
	if turns[0].Text() != "u7" || turns[5].Text() != "a9" {
		t.Fatalf("unexpected window: first=%q last=%q", turns[0].Text(), turns[5].Text())
	}
	for i := 0; i < len(turns); i += 2 {
		if turns[i].Role != RoleUser || turns[i+1].Role != RoleAssistant {
			t.Fatalf("trim broke pair alignment at index %d", i)
		}
	}
}

func TestGetReturnsSnapshot(t *testing.T) {
	s := NewStore(10)
	s.Append("c1", TextTurn(RoleUser, "hello"))

	snap := s.Get("c1")
	s.Append("c1", TextTurn(RoleAssistant, "hi"))

	if len(snap) != 1 {
		t.Fatalf("snapshot grew after later append: %d", len(snap))
	}
}

func TestClearDropsHistory(t *testing.T) {
	s := NewStore(10)
	s.Append("c1", TextTurn(RoleUser, "hello"))
	s.Clear("c1")
	if got := s.Len("c1"); got != 0 {
		t.Fatalf("expected empty history after clear, got %d turns", got)
	}
}

func TestAcquireSerializesPerConversation(t *testing.T) {
	s := NewStore(10)

	if !s.Acquire(context.Background(), "c1") {
		t.Fatal("first acquire should succeed")
	}

	// A second acquire on the same id must block until release.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if s.Acquire(ctx, "c1") {
		t.Fatal("second acquire succeeded while lock held")
	}

	// A different conversation is unaffected.
	if !s.Acquire(context.Background(), "c2") {
		t.Fatal("acquire on independent conversation blocked")
	}

	s.Release("c1")
	if !s.Acquire(context.Background(), "c1") {
		t.Fatal("acquire after release should succeed")
	}
}
