package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	postgrest "github.com/supabase-community/postgrest-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxErrorBody bounds how much of a rejected response is kept for diagnostics.
const maxErrorBody = 4 << 10

// Client talks to a PostgREST endpoint ({SUPABASE_URL}/rest/v1) with the
// service-role key. It holds no mutable state and is safe for concurrent use.
type Client struct {
	restEndpoint string
	serviceKey   string
	timeout      time.Duration
	transport    http.RoundTripper
}

func NewClient(restEndpoint, serviceKey string, timeout time.Duration) *Client {
	return &Client{
		restEndpoint: restEndpoint,
		serviceKey:   serviceKey,
		timeout:      timeout,
		transport:    otelhttp.NewTransport(http.DefaultTransport),
	}
}

// query builds a postgrest-go client scoped to one call. postgrest-go sends
// requests without a context, so the call's context travels in the transport.
func (c *Client) query(ctx context.Context, table string) (*postgrest.QueryBuilder, error) {
	pg := postgrest.NewClient(c.restEndpoint, "public", nil)
	if pg.ClientError != nil {
		return nil, pg.ClientError
	}
	pg.SetApiKey(c.serviceKey).SetAuthToken(c.serviceKey)
	pg.Transport.Parent = &callTransport{ctx: ctx, next: c.transport}
	return pg.From(table), nil
}

// execute runs one request against table and returns the raw response body.
func (c *Client) execute(ctx context.Context, op, table string, build func(*postgrest.QueryBuilder) *postgrest.FilterBuilder) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	qb, err := c.query(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	body, _, err := build(qb).Execute()
	if err != nil {
		return nil, classify(op, err)
	}
	return body, nil
}

// executeTo runs one request and decodes the JSON body into out.
func (c *Client) executeTo(ctx context.Context, op, table string, out any, build func(*postgrest.QueryBuilder) *postgrest.FilterBuilder) error {
	body, err := c.execute(ctx, op, table, build)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// classify stamps op on the typed error raised by callTransport. Anything
// else came from reading the response stream.
func classify(op string, err error) error {
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		rejected.Op = op
		return rejected
	}
	var unavailable *UnavailableError
	if errors.As(err, &unavailable) {
		unavailable.Op = op
		return unavailable
	}
	return &UnavailableError{Op: op, Err: err}
}

// callTransport binds requests to the caller's context and turns every
// non-2xx answer into a RejectedError, since postgrest-go reports errors
// without the status code.
type callTransport struct {
	ctx  context.Context
	next http.RoundTripper
}

func (t *callTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req.WithContext(t.ctx))
	if err != nil {
		return nil, &UnavailableError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &RejectedError{Status: resp.StatusCode, Body: string(raw)}
	}
	return resp, nil
}

// insertOne posts record and returns the single row PostgREST echoes back.
func insertOne[T any](ctx context.Context, c *Client, table string, record any) (*T, error) {
	op := http.MethodPost + " " + table
	var rows []T
	err := c.executeTo(ctx, op, table, &rows, func(q *postgrest.QueryBuilder) *postgrest.FilterBuilder {
		return q.Insert(record, false, "", "representation", "")
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &RejectedError{Op: op, Status: http.StatusOK, Body: "empty representation"}
	}
	return &rows[0], nil
}
