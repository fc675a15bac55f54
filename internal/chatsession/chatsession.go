// Package chatsession drives a conversational turn grounded in the
// Search API: it embeds no model of its own and calls no generative
// provider — that collaborator is external per §1's scoping, exactly
// like the Embedding Provider. The Orchestrator's job ends at an
// extractive answer built from the top hit's answer field; it
// assembles no prompt for a generative model. A command-line client
// thus has a working, ungrounded-by-hallucination default without
// wiring an LLM.
//
// Shaped after the teacher's internal/tui.Model request/response loop
// (submit query, render result) pulled out of the UI layer so both the
// TUI and any future HTTP layer can reuse it.
package chatsession

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kxddry/ragqa/internal/domain"
)

// Role distinguishes the two sides of a chat turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatTurn is a single message in a Session, stamped with its own id
// so transcript identity never depends on the Corpus Store's
// positional identity (§9).
type ChatTurn struct {
	ID           string             `json:"id"`
	Role         Role               `json:"role"`
	Text         string             `json:"text"`
	GroundedHits []domain.SearchHit `json:"grounded_hits,omitempty"`
	Timestamp    time.Time          `json:"timestamp"`
}

// Session is an ordered sequence of ChatTurns under one session id.
type Session struct {
	ID    string     `json:"id"`
	Turns []ChatTurn `json:"turns"`
}

// Store persists Sessions. Chat-session persistence is out of scope
// for the core per §1; it is consumed here as an injected interface.
// The core ships only MemoryStore.
type Store interface {
	Create(ctx context.Context) (Session, error)
	Append(ctx context.Context, sessionID string, turn ChatTurn) error
	Get(ctx context.Context, sessionID string) (Session, error)
}

// Searcher is the subset of the Search API the orchestrator consumes.
// internal/ragindex.Index satisfies it.
type Searcher interface {
	Search(ctx context.Context, queryText string, k int) ([]domain.SearchHit, error)
}

// MemoryStore is an in-memory Store, sufficient for tests and
// standalone runs. It is not durable across process restarts.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

func (s *MemoryStore) Create(_ context.Context) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := Session{ID: uuid.NewString()}
	s.sessions[sess.ID] = sess
	return sess, nil
}

func (s *MemoryStore) Append(_ context.Context, sessionID string, turn ChatTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("chatsession: unknown session %q", sessionID)
	}
	sess.Turns = append(sess.Turns, turn)
	s.sessions[sessionID] = sess
	return nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return Session{}, fmt.Errorf("chatsession: unknown session %q", sessionID)
	}
	return sess, nil
}

// defaultGroundingK is the number of Search API hits folded into a
// chat turn's grounding and extractive answer.
const defaultGroundingK = 3

// Orchestrator grounds a chat turn in the Search API's retrieval over
// the QA corpus, appending both the user's utterance and the
// assistant's grounded reply to the given session via Store.
type Orchestrator struct {
	search Searcher
	store  Store
}

// NewOrchestrator wires an Orchestrator against a Search API and a
// transcript Store.
func NewOrchestrator(search Searcher, store Store) *Orchestrator {
	return &Orchestrator{search: search, store: store}
}

// StartSession creates a new Session via the wired Store and returns
// its id. Callers (e.g. the TUI) that don't otherwise need direct
// Store access can get a fresh session id through the Orchestrator
// alone.
func (o *Orchestrator) StartSession(ctx context.Context) (string, error) {
	sess, err := o.store.Create(ctx)
	if err != nil {
		return "", fmt.Errorf("chatsession: creating session: %w", err)
	}
	return sess.ID, nil
}

// Turn submits utterance as a user turn, retrieves grounding hits from
// the Search API, assembles an extractive answer, appends both turns
// to the session, and returns the assistant's ChatTurn.
func (o *Orchestrator) Turn(ctx context.Context, sessionID, utterance string) (ChatTurn, error) {
	userTurn := ChatTurn{ID: uuid.NewString(), Role: RoleUser, Text: utterance, Timestamp: now()}
	if err := o.store.Append(ctx, sessionID, userTurn); err != nil {
		return ChatTurn{}, fmt.Errorf("chatsession: recording user turn: %w", err)
	}

	hits, err := o.search.Search(ctx, utterance, defaultGroundingK)
	if err != nil {
		return ChatTurn{}, fmt.Errorf("chatsession: grounding search: %w", err)
	}

	reply := ChatTurn{
		ID:           uuid.NewString(),
		Role:         RoleAssistant,
		Text:         extractiveAnswer(hits),
		GroundedHits: hits,
		Timestamp:    now(),
	}
	if err := o.store.Append(ctx, sessionID, reply); err != nil {
		return ChatTurn{}, fmt.Errorf("chatsession: recording assistant turn: %w", err)
	}
	return reply, nil
}

// extractiveAnswer builds a reply directly from the retrieved QA
// pairs: the top hit's answer, with the remaining hits listed as
// related questions. It never invents text not already present in a
// retrieved record.
func extractiveAnswer(hits []domain.SearchHit) string {
	if len(hits) == 0 {
		return "I couldn't find anything in the corpus grounded in that question."
	}
	var b strings.Builder
	b.WriteString(hits[0].Answer)
	if len(hits) > 1 {
		b.WriteString("\n\nRelated:")
		for _, h := range hits[1:] {
			fmt.Fprintf(&b, "\n- %s", h.Question)
		}
	}
	return b.String()
}

// now is a seam so tests can stamp deterministic turns if needed.
var now = time.Now
