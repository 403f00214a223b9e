package remote

import (
	"context"
	"net/http"
	"strconv"
)

// PutMilestone calls PUT /milestones/{threshold}, writing the full record.
func (c *Client) PutMilestone(ctx context.Context, milestone Milestone) error {
	path := "/milestones/" + strconv.Itoa(milestone.Threshold)
	return c.do(ctx, http.MethodPut, path, nil, milestone, nil)
}

// MergeMilestoneCelebrated calls PATCH /milestones/{threshold}, flipping only
// the celebrated flag so a concurrent achievement write is not clobbered.
func (c *Client) MergeMilestoneCelebrated(ctx context.Context, threshold int, celebrated bool) error {
	path := "/milestones/" + strconv.Itoa(threshold)
	body := map[string]bool{"celebrated": celebrated}
	return c.do(ctx, http.MethodPatch, path, nil, body, nil)
}
