package chatsession

import (
	"context"
	"testing"

	"github.com/kxddry/ragqa/internal/domain"
)

type stubSearcher struct {
	hits []domain.SearchHit
	err  error
}

func (s stubSearcher) Search(_ context.Context, _ string, _ int) ([]domain.SearchHit, error) {
	return s.hits, s.err
}

func TestOrchestrator_Turn_GroundsReplyInTopHit(t *testing.T) {
	store := NewMemoryStore()
	sess, err := store.Create(context.Background())
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	searcher := stubSearcher{hits: []domain.SearchHit{
		{Question: "What is Go?", Answer: "Go is a compiled language.", Rank: 1},
		{Question: "Who made Go?", Answer: "Google.", Rank: 2},
	}}
	orch := NewOrchestrator(searcher, store)

	reply, err := orch.Turn(context.Background(), sess.ID, "Tell me about Go")
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if reply.Role != RoleAssistant {
		t.Fatalf("expected assistant role, got %s", reply.Role)
	}
	if reply.Text == "" {
		t.Fatalf("expected non-empty reply text")
	}
	if len(reply.GroundedHits) != 2 {
		t.Fatalf("expected 2 grounded hits, got %d", len(reply.GroundedHits))
	}

	got, err := store.Get(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if len(got.Turns) != 2 {
		t.Fatalf("expected 2 turns recorded (user + assistant), got %d", len(got.Turns))
	}
	if got.Turns[0].Role != RoleUser {
		t.Fatalf("expected first recorded turn to be the user's, got %s", got.Turns[0].Role)
	}
}

func TestOrchestrator_Turn_NoHitsYieldsFallbackText(t *testing.T) {
	store := NewMemoryStore()
	sess, _ := store.Create(context.Background())
	orch := NewOrchestrator(stubSearcher{}, store)

	reply, err := orch.Turn(context.Background(), sess.ID, "anything")
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if reply.Text == "" {
		t.Fatalf("expected a non-empty fallback reply when no hits are retrieved")
	}
	if len(reply.GroundedHits) != 0 {
		t.Fatalf("expected no grounded hits, got %v", reply.GroundedHits)
	}
}

func TestOrchestrator_StartSession_ReturnsUsableID(t *testing.T) {
	store := NewMemoryStore()
	orch := NewOrchestrator(stubSearcher{}, store)

	id, err := orch.StartSession(context.Background())
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if id == "" {
		t.Fatalf("expected a non-empty session id")
	}
	if _, err := store.Get(context.Background(), id); err != nil {
		t.Fatalf("expected session %q to exist in the store: %v", id, err)
	}
}

func TestMemoryStore_AppendToUnknownSessionFails(t *testing.T) {
	store := NewMemoryStore()
	err := store.Append(context.Background(), "does-not-exist", ChatTurn{Role: RoleUser, Text: "hi"})
	if err == nil {
		t.Fatalf("expected an error appending to an unknown session")
	}
}
