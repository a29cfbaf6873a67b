// Package prompter turns a short Korean query into a detailed English prompt
// plus its Korean back-translation by delegating to a completion provider.
package prompter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/minjaelab/prompter/internal/provider"
)

// Refinement is the parsed and validated outcome of one refinement call.
type Refinement struct {
	EnhancedEngPrompt  string        `json:"enhanced_eng_prompt"`
	BackTranslationKor string        `json:"back_translation_kor"`
	Provider           string        `json:"provider"`
	Model              string        `json:"model,omitempty"`
	Latency            time.Duration `json:"-"`
}

// refinementPayload is the JSON shape the system prompt instructs the model
// to return.
type refinementPayload struct {
	EnhancedEngPrompt  string `json:"enhanced_eng_prompt"`
	BackTranslationKor string `json:"back_translation_kor"`
}

type Prompter struct {
	svc provider.Provider
	cfg provider.Config
}

func New(svc provider.Provider, cfg provider.Config) *Prompter {
	return &Prompter{svc: svc, cfg: cfg}
}

// Refine sends the query to the provider and parses the JSON content it
// returns. Failures are classified: a failed call yields
// ErrUpstreamUnreachable, unparseable content ErrUpstreamMalformed, and
// parseable content with a missing field ErrUpstreamIncomplete. Both output
// fields are validated before a result is returned; there is no partial
// success.
func (p *Prompter) Refine(ctx context.Context, userQuery string) (*Refinement, error) {
	result, err := p.svc.Complete(ctx, p.cfg, provider.CompletionRequest{
		SystemPrompt: SystemPrompt,
		UserQuery:    userQuery,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnreachable, err)
	}

	refinement, err := parseRefinement(result.Content)
	if err != nil {
		return nil, err
	}

	refinement.Provider = result.ProviderName
	refinement.Latency = result.Latency
	if result.Metadata != nil {
		refinement.Model = result.Metadata["model"]
	}
	return refinement, nil
}

// ProviderName reports which completion backend this Prompter talks to.
func (p *Prompter) ProviderName() string {
	return p.svc.Name()
}

// IsAvailable reports whether the underlying provider is configured.
func (p *Prompter) IsAvailable(ctx context.Context) error {
	return p.svc.IsAvailable(ctx)
}

func parseRefinement(content string) (*Refinement, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: empty content", ErrUpstreamMalformed)
	}

	var payload refinementPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamMalformed, err)
	}

	var missing []string
	if payload.EnhancedEngPrompt == "" {
		missing = append(missing, "enhanced_eng_prompt")
	}
	if payload.BackTranslationKor == "" {
		missing = append(missing, "back_translation_kor")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamIncomplete, missing)
	}

	return &Refinement{
		EnhancedEngPrompt:  payload.EnhancedEngPrompt,
		BackTranslationKor: payload.BackTranslationKor,
	}, nil
}
