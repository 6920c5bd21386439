package ai

import (
	"context"
	"fmt"

	"github.com/example/frenchbot/internal/deckplan"
)

// Advisor adapts the chat client to the deck planner.
type Advisor struct {
	client *Client
}

func NewAdvisor(client *Client) *Advisor {
	return &Advisor{client: client}
}

// ProposeDeckPlan asks the model for today's plan. The reply is returned unparsed.
func (a *Advisor) ProposeDeckPlan(ctx context.Context, req deckplan.AdvisorRequest) (string, error) {
	text, err := a.client.complete(ctx, deckPlanPrompt(req), 300, 0.3)
	if err != nil {
		return "", fmt.Errorf("%w: %v", deckplan.ErrAdvisoryUnavailable, err)
	}
	return text, nil
}
