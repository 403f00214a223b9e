package remote

import (
	"context"
	"net/http"
)

// GetDebtState calls GET /debt-state. A not-found error means the account
// has no debt document yet; callers seed defaults in that case.
func (c *Client) GetDebtState(ctx context.Context) (*DebtState, error) {
	var out DebtState
	if err := c.do(ctx, http.MethodGet, "/debt-state", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PutDebtState calls PUT /debt-state, overwriting the whole document.
// The debt document is a singleton; the last full write wins.
func (c *Client) PutDebtState(ctx context.Context, state DebtState) error {
	return c.do(ctx, http.MethodPut, "/debt-state", nil, state, nil)
}
