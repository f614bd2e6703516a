// Package memory stores per-address conversation transcripts used as prompt
// context for the conversational model.
package memory

import (
	"context"
	"errors"
	"strings"

	"megan-waseller/internal/domain"
)

// Backend is a transcript driver. LoadOrCreate and Append must seed a
// missing transcript with exactly one seed utterance, so a conversation that
// was evicted between a read and a write still starts with it.
type Backend interface {
	LoadOrCreate(ctx context.Context, address string, seed domain.Utterance) (domain.Transcript, error)
	Append(ctx context.Context, address string, seed domain.Utterance, utterances ...domain.Utterance) error
}

// Store hands out transcripts that always start with the persona seed.
type Store struct {
	backend Backend
	seed    domain.Utterance
}

// New returns a Store that seeds new conversations with a system utterance
// holding persona.
func New(backend Backend, persona string) (*Store, error) {
	if backend == nil {
		return nil, errors.New("memory: backend must not be nil")
	}
	if strings.TrimSpace(persona) == "" {
		return nil, errors.New("memory: persona must not be empty")
	}
	return &Store{
		backend: backend,
		seed:    domain.Utterance{Role: domain.RoleSystem, Content: persona},
	}, nil
}

// Get returns the transcript for address, creating it if absent.
func (s *Store) Get(ctx context.Context, address string) (domain.Transcript, error) {
	if strings.TrimSpace(address) == "" {
		return nil, errors.New("memory: address is required")
	}
	return s.backend.LoadOrCreate(ctx, address, s.seed)
}

// Append adds utterances to the end of the transcript for address.
func (s *Store) Append(ctx context.Context, address string, utterances ...domain.Utterance) error {
	if strings.TrimSpace(address) == "" {
		return errors.New("memory: address is required")
	}
	if len(utterances) == 0 {
		return nil
	}
	return s.backend.Append(ctx, address, s.seed, utterances...)
}

// Window trims t to at most limit utterances for prompting. A leading system
// utterance is always kept and the most recent turns fill the rest.
func Window(t domain.Transcript, limit int) domain.Transcript {
	if limit <= 0 || len(t) <= limit {
		return t
	}
	if t[0].Role != domain.RoleSystem {
		return t[len(t)-limit:]
	}
	if limit == 1 {
		return t[:1]
	}
	out := make(domain.Transcript, 0, limit)
	out = append(out, t[0])
	return append(out, t[len(t)-(limit-1):]...)
}
