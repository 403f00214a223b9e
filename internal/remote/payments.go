package remote

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

const defaultPaymentsLimit = 10

// AddPayment calls POST /payments and returns the server-assigned id.
func (c *Client) AddPayment(ctx context.Context, payment Payment) (string, error) {
	var out createdResponse
	if err := c.do(ctx, http.MethodPost, "/payments", nil, payment, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// ListPayments calls GET /payments, most recent first. A limit of 0 asks
// for the default page size.
func (c *Client) ListPayments(ctx context.Context, limit int) ([]Payment, error) {
	if limit <= 0 {
		limit = defaultPaymentsLimit
	}
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("order", "date.desc")

	var out paymentsResponse
	if err := c.do(ctx, http.MethodGet, "/payments", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// DeletePayment calls DELETE /payments/{id}.
func (c *Client) DeletePayment(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/payments/"+url.PathEscape(id), nil, nil, nil)
}
