package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"megan-waseller/internal/domain"
)

type failingBackend struct{ err error }

func (f failingBackend) LoadOrCreate(context.Context, string, domain.Utterance) (domain.Transcript, error) {
	return nil, f.err
}

func (f failingBackend) Append(context.Context, string, domain.Utterance, ...domain.Utterance) error {
	return f.err
}

func u(role, content string) domain.Utterance {
	return domain.Utterance{Role: role, Content: content}
}

func TestNew_ValidatesArguments(t *testing.T) {
	_, err := New(nil, "persona")
	require.Error(t, err)

	_, err = New(NewLRU(1, 0), "  ")
	require.Error(t, err)
}

func TestStore_GetSeedsNewConversation(t *testing.T) {
	s, err := New(NewLRU(10, 0), "Você é Megan")
	require.NoError(t, err)

	tr, err := s.Get(context.Background(), "5548999990000")
	require.NoError(t, err)
	require.Equal(t, domain.Transcript{u(domain.RoleSystem, "Você é Megan")}, tr)

	// second read does not seed twice
	tr, err = s.Get(context.Background(), "5548999990000")
	require.NoError(t, err)
	require.Len(t, tr, 1)
}

func TestStore_AppendKeepsArrivalOrder(t *testing.T) {
	s, err := New(NewLRU(10, 0), "seed")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Get(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, "a", u(domain.RoleUser, "oi")))
	require.NoError(t, s.Append(ctx, "a", u(domain.RoleAssistant, "olá")))
	require.NoError(t, s.Append(ctx, "a"))

	tr, err := s.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, domain.Transcript{
		u(domain.RoleSystem, "seed"),
		u(domain.RoleUser, "oi"),
		u(domain.RoleAssistant, "olá"),
	}, tr)
}

func TestStore_EvictedConversationKeepsPersonaFirst(t *testing.T) {
	s, err := New(NewLRU(1, 0), "persona")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Get(ctx, "a")
	require.NoError(t, err)
	_, err = s.Get(ctx, "b")
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, "a", u(domain.RoleUser, "oi"), u(domain.RoleAssistant, "ola")))

	tr, err := s.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, domain.Transcript{
		u(domain.RoleSystem, "persona"),
		u(domain.RoleUser, "oi"),
		u(domain.RoleAssistant, "ola"),
	}, tr)
}

func TestStore_RequiresAddress(t *testing.T) {
	s, err := New(NewLRU(10, 0), "seed")
	require.NoError(t, err)
	_, err = s.Get(context.Background(), " ")
	require.Error(t, err)
	require.Error(t, s.Append(context.Background(), "", u(domain.RoleUser, "x")))
}

func TestStore_PropagatesBackendErrors(t *testing.T) {
	s, err := New(failingBackend{err: errors.New("down")}, "seed")
	require.NoError(t, err)
	_, err = s.Get(context.Background(), "a")
	require.ErrorContains(t, err, "down")
	require.ErrorContains(t, s.Append(context.Background(), "a", u(domain.RoleUser, "x")), "down")
}

func TestWindow(t *testing.T) {
	tr := domain.Transcript{
		u(domain.RoleSystem, "seed"),
		u(domain.RoleUser, "1"),
		u(domain.RoleAssistant, "2"),
		u(domain.RoleUser, "3"),
		u(domain.RoleAssistant, "4"),
	}
	require.Equal(t, tr, Window(tr, 0))
	require.Equal(t, tr, Window(tr, 5))
	require.Equal(t, domain.Transcript{tr[0], tr[3], tr[4]}, Window(tr, 3))
	require.Equal(t, domain.Transcript{tr[0]}, Window(tr, 1))
	require.Equal(t, domain.Transcript{tr[3], tr[4]}, Window(tr[1:], 2))
}
