package remote

import (
	"context"
	"net/http"
)

// ResetAll calls POST /reset, deleting the debt document, every payment and
// every milestone in one atomic server-side batch. It either fully applies
// or fully fails.
func (c *Client) ResetAll(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/reset", nil, nil, nil)
}
