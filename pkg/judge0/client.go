// Package judge0 talks to the remote code-execution service: it dispatches
// batches of code+test-case pairs and polls the returned tokens until every
// entry reaches a terminal verdict.
package judge0

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// DefaultFields is the fields selector used when polling a batch.
const DefaultFields = "token,stdout,stderr,time,memory,expected_output,compile_output,status"

// ErrMalformedResponse indicates the judge returned a body that does not
// match the documented batch protocol. The returned token list is positional
// and cannot be trusted when the shape is off, so callers must abort.
var ErrMalformedResponse = errors.New("malformed judge response")

// ErrJudgeTimeout indicates the poll loop exhausted its deadline before
// every entry reached a terminal verdict.
var ErrJudgeTimeout = errors.New("judge did not finish within the poll deadline")

// The batch-submit endpoint is documented to return a JSON array of objects
// each carrying a non-empty token. Anything else is treated as malformed
// before any decoding is attempted.
const tokenListSchema = `{
	"type": "array",
	"minItems": 1,
	"items": {
		"type": "object",
		"properties": {"token": {"type": "string", "minLength": 1}},
		"required": ["token"]
	}
}`

// Config carries the judge endpoint, credentials and polling policy.
type Config struct {
	BaseURL   string
	AuthToken string
	// InitialDelay is the wait between dispatch and the first poll, giving
	// the judge time to queue the batch.
	InitialDelay time.Duration
	// PollInterval is the sleep between polls while entries are queued.
	PollInterval time.Duration
	// MaxPollDuration bounds the total wall-clock time WaitForBatch may
	// spend before giving up with ErrJudgeTimeout.
	MaxPollDuration time.Duration
}

// Client is the wire-level judge client.
type Client struct {
	baseURL         string
	authToken       string
	httpClient      *http.Client
	initialDelay    time.Duration
	pollInterval    time.Duration
	maxPollDuration time.Duration
	tokenSchema     *jsonschema.Schema
	logger          zerolog.Logger
}

// New constructs a judge client. Zero durations fall back to the protocol
// defaults (2s delay, 2s interval, 2m deadline).
func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("judge base url must be provided")
	}

	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = 2 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.MaxPollDuration <= 0 {
		cfg.MaxPollDuration = 2 * time.Minute
	}

	schema, err := jsonschema.CompileString("judge0-tokens.json", tokenListSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile token schema: %w", err)
	}

	return &Client{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		authToken:       cfg.AuthToken,
		httpClient:      &http.Client{Timeout: 30 * time.Second},
		initialDelay:    cfg.InitialDelay,
		pollInterval:    cfg.PollInterval,
		maxPollDuration: cfg.MaxPollDuration,
		tokenSchema:     schema,
		logger:          logger.With().Str("component", "judge0").Logger(),
	}, nil
}

// SubmitBatch dispatches the entries in one POST and returns their tokens.
// The judge guarantees the token list is positional with respect to the
// submitted entries; the count is verified so a short or malformed response
// fails here rather than mis-attributing verdicts later.
func (c *Client) SubmitBatch(ctx context.Context, entries []Submission) ([]string, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("batch must contain at least one entry")
	}

	payload, err := json.Marshal(batchRequest{Submissions: entries})
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch request: %w", err)
	}

	endpoint := c.baseURL + "/submissions/batch?base64_encoded=false"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build batch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authenticate(req)

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := c.tokenSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var envelopes []tokenEnvelope
	if err := json.Unmarshal(body, &envelopes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(envelopes) != len(entries) {
		return nil, fmt.Errorf("%w: dispatched %d entries, received %d tokens", ErrMalformedResponse, len(entries), len(envelopes))
	}

	tokens := make([]string, len(envelopes))
	for i, envelope := range envelopes {
		tokens[i] = envelope.Token
	}

	c.logger.Debug().Int("entries", len(entries)).Msg("batch dispatched")
	return tokens, nil
}

// PollBatch fetches the current state of every token in one GET. Results
// come back in token order; the count and token echo are verified before
// the slice is returned.
func (c *Client) PollBatch(ctx context.Context, tokens []string, fields string) ([]Result, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("token list must not be empty")
	}
	if fields == "" {
		fields = DefaultFields
	}

	query := url.Values{}
	query.Set("tokens", strings.Join(tokens, ","))
	query.Set("base64_encoded", "false")
	query.Set("fields", fields)

	endpoint := c.baseURL + "/submissions/batch?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build poll request: %w", err)
	}
	c.authenticate(req)

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var response batchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(response.Submissions) != len(tokens) {
		return nil, fmt.Errorf("%w: polled %d tokens, received %d results", ErrMalformedResponse, len(tokens), len(response.Submissions))
	}
	for i, result := range response.Submissions {
		if result.Token != "" && result.Token != tokens[i] {
			return nil, fmt.Errorf("%w: result %d carries token %s, expected %s", ErrMalformedResponse, i, result.Token, tokens[i])
		}
	}

	return response.Submissions, nil
}

// WaitForBatch polls until every entry is terminal or the deadline passes.
// The delay before the first poll avoids hammering the judge while the batch
// is still being queued.
func (c *Client) WaitForBatch(ctx context.Context, tokens []string, fields string) ([]Result, error) {
	deadline := time.Now().Add(c.maxPollDuration)

	if err := sleepCtx(ctx, c.initialDelay); err != nil {
		return nil, err
	}

	attempts := 0
	for {
		attempts++
		results, err := c.PollBatch(ctx, tokens, fields)
		if err != nil {
			return nil, err
		}

		if allTerminal(results) {
			c.logger.Debug().Int("attempts", attempts).Msg("batch finished")
			return results, nil
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %d attempts over %s", ErrJudgeTimeout, attempts, c.maxPollDuration)
		}

		if err := sleepCtx(ctx, c.pollInterval); err != nil {
			return nil, err
		}
	}
}

func (c *Client) authenticate(req *http.Request) {
	if c.authToken != "" {
		req.Header.Set("X-Auth-Token", c.authToken)
	}
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("judge request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read judge response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("judge returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return body, nil
}

func allTerminal(results []Result) bool {
	for _, result := range results {
		if !result.Status.IsTerminal() {
			return false
		}
	}
	return true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
