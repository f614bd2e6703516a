package paramstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"megan-waseller/internal/domain"
)

// tokenPayload is the expected JSON shape stored for every API token.
type tokenPayload struct {
	Token string `json:"token"`
}

// Secret lazily fetches a token parameter and caches it after the first
// successful read. Failed reads are retried on the next call.
type Secret struct {
	getter Getter
	name   string

	mu    sync.Mutex
	token string
}

func NewSecret(getter Getter, name string) *Secret {
	return &Secret{getter: getter, name: strings.TrimSpace(name)}
}

// Name returns the parameter name backing the secret.
func (s *Secret) Name() string {
	return s.name
}

// Token returns the cached token, fetching it on first use. A missing or empty
// token yields an error wrapping domain.ErrNotConfigured.
func (s *Secret) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" {
		return s.token, nil
	}
	tok, err := fetchToken(ctx, s.getter, s.name)
	if err != nil {
		return "", err
	}
	s.token = tok
	return tok, nil
}

func fetchToken(ctx context.Context, getter Getter, name string) (string, error) {
	if getter == nil {
		return "", errors.New("paramstore: getter is nil")
	}
	if name == "" {
		return "", errors.New("paramstore: token parameter name is empty")
	}

	raw, err := getter.GetParameter(ctx, name)
	if err != nil {
		return "", fmt.Errorf("paramstore: fetch token %q: %w", name, err)
	}
	var tp tokenPayload
	if err := json.Unmarshal([]byte(raw), &tp); err != nil {
		return "", fmt.Errorf("paramstore: unmarshal token %q as JSON: %w", name, err)
	}
	if strings.TrimSpace(tp.Token) == "" {
		return "", fmt.Errorf("paramstore: token %q is empty: %w", name, domain.ErrNotConfigured)
	}
	return tp.Token, nil
}

// envNames maps secret names to the environment variables that hold them
// when no parameter store is configured.
var envNames = map[string]string{
	SecretWhatsApp:    "WHATS_TOKEN",
	SecretOpenAI:      "OPENAI_API_KEY",
	SecretMercadoPago: "MP_ACCESS_TOKEN",
	SecretBling:       "BLING_API_KEY",
}

// EnvTokens is a Getter that reads raw tokens from environment variables and
// returns them in the stored JSON shape. Known secret names map to their
// conventional variables; any other name is used as the variable name.
type EnvTokens struct {
	lookup func(string) (string, bool)
}

func NewEnvTokens() *EnvTokens {
	return &EnvTokens{lookup: os.LookupEnv}
}

// Var returns the environment variable consulted for name.
func (e *EnvTokens) Var(name string) string {
	name = strings.TrimSpace(name)
	if v, ok := envNames[name]; ok {
		return v
	}
	return name
}

func (e *EnvTokens) GetParameter(_ context.Context, name string) (string, error) {
	key := e.Var(name)
	v, ok := e.lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("paramstore: env %q: %w", key, domain.ErrNotConfigured)
	}
	b, err := json.Marshal(tokenPayload{Token: strings.TrimSpace(v)})
	if err != nil {
		return "", fmt.Errorf("paramstore: encode env token: %w", err)
	}
	return string(b), nil
}
