// Package advisory turns an image assessment into a prompt and asks the remote
// chat model for a road-safety report.
package advisory

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/roadscan/internal/domain"
)

// Completer is the remote chat-completion call.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Advisor implements domain.Advisor on top of a Completer.
type Advisor struct {
	client Completer
	frame  Frame
	log    zerolog.Logger
}

// NewAdvisor creates an advisor that frames every prompt with f.
func NewAdvisor(client Completer, f Frame, log zerolog.Logger) *Advisor {
	return &Advisor{
		client: client,
		frame:  f.orDefault(),
		log:    log.With().Str("component", "advisor").Logger(),
	}
}

// Advise builds the prompt for a and returns the model's answer verbatim.
func (a *Advisor) Advise(ctx context.Context, as domain.Assessment) (string, error) {
	prompt := BuildPrompt(as, a.frame)

	start := time.Now()
	text, err := a.client.Complete(ctx, SystemMessage, prompt)
	if err != nil {
		a.log.Warn().Err(err).Str("path", as.Path).Msg("Remote assessment failed")
		if domain.KindOf(err) == domain.KindUnknown {
			return "", domain.Wrap(domain.KindRemoteCall, "advise", err)
		}
		return "", err
	}

	a.log.Debug().
		Str("path", as.Path).
		Dur("elapsed", time.Since(start)).
		Int("chars", len(text)).
		Msg("Remote assessment received")

	return text, nil
}

var _ domain.Advisor = (*Advisor)(nil)
