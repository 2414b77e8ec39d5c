// Package selection narrows a list of generated candidates to a single winner.
package selection

import (
	"context"
	"log/slog"

	"clipforge/internal/logging"
	"clipforge/internal/services"
)

// Chooser asks an external judge to pick one candidate for a stated purpose.
type Chooser interface {
	ChooseBest(ctx context.Context, candidates []string, purpose string) (string, error)
}

// ChooserFunc adapts a function to the Chooser interface.
type ChooserFunc func(ctx context.Context, candidates []string, purpose string) (string, error)

func (f ChooserFunc) ChooseBest(ctx context.Context, candidates []string, purpose string) (string, error) {
	return f(ctx, candidates, purpose)
}

// Pick returns exactly one member of candidates.
//
// A single candidate wins without consulting the chooser. With multiple
// candidates the chooser is asked; its answer must match a candidate
// verbatim, otherwise the first candidate wins. Only literal matches count,
// so a reworded near-duplicate from the chooser is treated as no match.
func Pick(ctx context.Context, chooser Chooser, logger *slog.Logger, candidates []string, purpose string) (string, error) {
	if len(candidates) == 0 {
		return "", services.Wrap(services.ErrValidation, "selection", "pick", "no candidates to choose from", nil)
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	if chooser == nil {
		return "", services.Wrap(services.ErrConfiguration, "selection", "pick", "chooser required for multiple candidates", nil)
	}

	choice, err := chooser.ChooseBest(ctx, candidates, purpose)
	if err != nil {
		return "", err
	}
	for _, candidate := range candidates {
		if candidate == choice {
			return candidate, nil
		}
	}

	if logger != nil {
		logger.Warn("chooser returned an answer outside the candidate list; using first candidate",
			logging.String(logging.FieldEventType, "selection_fallback"),
			logging.String("purpose", purpose),
			logging.String("choice", choice),
			logging.Int("candidates", len(candidates)),
		)
	}
	return candidates[0], nil
}
