// Package completion talks to the foundation models completion endpoint and
// classifies every way a completion can fail.
package completion

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/rs/zerolog"

	"github.com/lomakinroman97/code-fixer-agent-mcp-service/pkg/common/errors"
)

const (
	// CompletionPath is appended to the base URL.
	CompletionPath = "/foundationModels/v1/completion"

	moduleName    = "completion"
	moduleVersion = "v1.0.0"
	applicationID = "code-fixer"
)

// ErrClosed is the cause of failures reported after Close.
var ErrClosed = stderrors.New("completion client is closed")

// Options configures a Client.
type Options struct {
	BaseURL     string
	APIKey      string
	FolderID    string
	ModelURI    string
	Temperature float64
	MaxTokens   int

	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	IdleTimeout    time.Duration
}

// Client is safe for concurrent use. It owns one HTTP connection pool,
// released by Close.
type Client struct {
	endpoint string
	opts     Options

	pipeline  runtime.Pipeline
	transport *http.Transport

	closed    atomic.Bool
	closeOnce sync.Once
	logger    zerolog.Logger
}

// New creates a Client. The pipeline never retries.
func New(opts Options, logger zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.ConfigError("YANDEX_GPT_API_KEY is not set", nil)
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, errors.ConfigError(fmt.Sprintf("invalid completion base URL %q", opts.BaseURL), err)
	}

	httpClient, transport := newHTTPClient(opts.ConnectTimeout, opts.RequestTimeout, opts.IdleTimeout)
	pl := runtime.NewPipeline(moduleName, moduleVersion,
		runtime.PipelineOptions{
			PerCall: []policy.Policy{&bearerPolicy{apiKey: opts.APIKey, folderID: opts.FolderID}},
		},
		&policy.ClientOptions{
			Retry:     policy.RetryOptions{MaxRetries: -1},
			Telemetry: policy.TelemetryOptions{ApplicationID: applicationID},
			Transport: httpClient,
		},
	)

	return &Client{
		endpoint:  base.String() + CompletionPath,
		opts:      opts,
		pipeline:  pl,
		transport: transport,
		logger:    logger.With().Str("component", "completion_client").Logger(),
	}, nil
}

// Complete asks the model to fix code and returns the first alternative.
func (c *Client) Complete(ctx context.Context, bugDescription, code, filePath string) Result {
	prompt := BuildPrompt(bugDescription, code, filePath)

	c.logger.Info().
		Str("file", filePath).
		Str("endpoint", c.endpoint).
		Int("code_chars", len([]rune(code))).
		Int("prompt_chars", len([]rune(prompt))).
		Msg("Sending completion request")

	start := time.Now()
	result := c.send(ctx, c.newRequest(prompt, c.opts.MaxTokens))

	event := c.logger.Info()
	if !result.OK() {
		event = c.logger.Warn().
			Str("kind", result.Failure.Kind.String()).
			Str("detail", result.Failure.Detail).
			AnErr("cause", result.Failure.Err)
	}
	event.Str("file", filePath).Dur("duration", time.Since(start)).Msg("Completion finished")
	return result
}

// Ping sends a minimal completion to verify the endpoint and credentials.
// An empty answer still proves connectivity.
func (c *Client) Ping(ctx context.Context) error {
	result := c.send(ctx, c.newRequest("Reply with OK.", 5))
	if result.OK() || result.Failure.Kind == EmptyResult {
		return nil
	}

	code := errors.CodeProviderError
	errType := errors.ErrTypeExternal
	if result.Failure.Kind == Transport {
		code = errors.CodeNetworkError
		errType = errors.ErrTypeNetwork
		if result.Failure.Timeout {
			code = errors.CodeNetworkTimeout
		}
	}
	return errors.NewError().
		Code(code).
		Type(errType).
		Component(moduleName).
		Message(result.Failure.Detail).
		Context("endpoint", c.endpoint).
		Cause(result.Failure.Err).
		Build()
}

// Close releases the connection pool. Calls after the first are no-ops.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.transport.CloseIdleConnections()
		c.logger.Debug().Msg("Completion client closed")
	})
	return nil
}

func (c *Client) newRequest(prompt string, maxTokens int) *completionRequest {
	return &completionRequest{
		ModelURI: c.opts.ModelURI,
		CompletionOptions: completionOptions{
			Stream:           false,
			Temperature:      c.opts.Temperature,
			MaxTokens:        strconv.Itoa(maxTokens),
			ReasoningOptions: reasoningOptions{Mode: "DISABLED"},
		},
		Messages: []message{
			{Role: "system", Text: SystemInstruction},
			{Role: "user", Text: prompt},
		},
	}
}

func (c *Client) send(ctx context.Context, payload *completionRequest) Result {
	if c.closed.Load() {
		return failed(Transport, ErrClosed.Error(), ErrClosed)
	}

	req, err := runtime.NewRequest(ctx, http.MethodPost, c.endpoint)
	if err != nil {
		return failed(Transport, "failed to build completion request", err)
	}
	if err := runtime.MarshalAsJSON(req, payload); err != nil {
		return failed(Transport, "failed to encode completion request", err)
	}

	resp, err := c.pipeline.Do(req)
	if err != nil {
		return transportFailure(err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return providerStatusFailure(resp)
	}

	var body completionResponse
	if err := runtime.UnmarshalAsJSON(resp, &body); err != nil {
		return failed(ProviderError, "malformed response from completion provider", err)
	}
	if body.Result == nil {
		return failed(ProviderError, "response from completion provider has no result", nil)
	}
	if u := body.Result.Usage; u != nil {
		c.logger.Info().
			Str("input_tokens", u.InputTextTokens).
			Str("completion_tokens", u.CompletionTokens).
			Str("total_tokens", u.TotalTokens).
			Str("model_version", body.Result.ModelVersion).
			Msg("Token usage")
	}

	if len(body.Result.Alternatives) == 0 {
		return failed(EmptyResult, "no alternatives", nil)
	}
	text := body.Result.Alternatives[0].Message.Text
	if strings.TrimSpace(text) == "" {
		return failed(EmptyResult, "blank fix", nil)
	}
	return succeeded(text)
}

func transportFailure(err error) Result {
	r := failed(Transport, fmt.Sprintf("completion request failed: %v", err), err)
	var netErr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
		r.Failure.Timeout = true
		r.Failure.Detail = "completion request timed out"
	}
	return r
}

func providerStatusFailure(resp *http.Response) Result {
	detail := fmt.Sprintf("completion provider returned HTTP %d", resp.StatusCode)
	var perr providerError
	if err := runtime.UnmarshalAsJSON(resp, &perr); err == nil && perr.Error != nil && perr.Error.Message != "" {
		detail += ": " + perr.Error.Message
	}
	return failed(ProviderError, detail, runtime.NewResponseError(resp))
}
