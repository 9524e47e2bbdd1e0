package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/yungbote/kydy-backend/internal/logger"
	"github.com/yungbote/kydy-backend/internal/pkg/httpx"
	"github.com/yungbote/kydy-backend/internal/utils"
)

// Failure taxonomy for external generation. Unconfigured is an expected state,
// not an error condition worth logging loudly; Exhausted and InvalidResponse
// both end the attempt and hand control to the parametric fallback.
var (
	ErrUnconfigured    = errors.New("starvector: api token not configured")
	ErrExhausted       = errors.New("starvector: attempts exhausted")
	ErrInvalidResponse = errors.New("starvector: response is not plausible svg")
)

const defaultStarVectorURL = "https://api-inference.huggingface.co/models/starvector/starvector-1b-im2svg"

// VectorGenerator produces SVG from a text prompt via a remote model.
type VectorGenerator interface {
	Configured() bool
	GenerateSVG(ctx context.Context, prompt string) (string, error)
}

type starVectorClient struct {
	log         *logger.Logger
	apiToken    string
	apiURL      string
	httpClient  *http.Client
	maxRetries  int
	minSVGBytes int
}

func NewStarVectorClient(log *logger.Logger) VectorGenerator {
	clientLog := log.With("service", "StarVectorClient")
	apiToken := strings.TrimSpace(utils.GetEnv("HF_API_TOKEN", "", nil))
	apiURL := strings.TrimSpace(utils.GetEnv("STARVECTOR_API_URL", defaultStarVectorURL, nil))
	timeoutSec := utils.GetEnvAsInt("STARVECTOR_TIMEOUT_SECONDS", 60, nil)
	maxRetries := utils.GetEnvAsInt("STARVECTOR_MAX_RETRIES", 2, nil)
	minSVGBytes := utils.GetEnvAsInt("STARVECTOR_MIN_SVG_BYTES", 64, nil)
	if maxRetries < 0 {
		maxRetries = 0
	}

	if apiToken == "" {
		clientLog.Info("HF_API_TOKEN not set, external SVG generation disabled")
	}
	return &starVectorClient{
		log:         clientLog,
		apiToken:    apiToken,
		apiURL:      apiURL,
		httpClient:  &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries:  maxRetries,
		minSVGBytes: minSVGBytes,
	}
}

func (c *starVectorClient) Configured() bool {
	return c.apiToken != ""
}

type starVectorHTTPError struct {
	StatusCode int
	Body       string
}

func (e *starVectorHTTPError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("starvector http %d: %s", e.StatusCode, body)
}

func (e *starVectorHTTPError) HTTPStatusCode() int { return e.StatusCode }

type generationRequest struct {
	Inputs     string               `json:"inputs"`
	Parameters generationParameters `json:"parameters"`
}

type generationParameters struct {
	MaxNewTokens int `json:"max_new_tokens"`
}

var reSVGBlock = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)

// GenerateSVG calls the inference endpoint with bounded exponential backoff.
// The response body must contain an svg block of non-trivial size to count as
// success; anything else is a failure for the resolver to recover from.
func (c *starVectorClient) GenerateSVG(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return "", ErrUnconfigured
	}

	backoff := 1 * time.Second
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", ErrExhausted, ctx.Err())
		}

		resp, raw, err := c.doOnce(ctx, prompt)
		if err == nil {
			body, extractErr := c.extractSVG(raw)
			if extractErr != nil {
				return "", fmt.Errorf("%w: %w", ErrExhausted, extractErr)
			}
			return body, nil
		}
		lastErr = err

		if !httpx.IsRetryableError(err) {
			return "", fmt.Errorf("%w: %v", ErrExhausted, err)
		}
		if attempt == c.maxRetries {
			break
		}

		sleepFor := httpx.RetryAfterDuration(resp, backoff, 10*time.Second)
		sleepFor = httpx.JitterSleep(sleepFor)
		c.log.Warn("StarVector request retrying",
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		select {
		case <-time.After(sleepFor):
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", ErrExhausted, ctx.Err())
		}
		backoff *= 2
	}

	return "", fmt.Errorf("%w: %v", ErrExhausted, lastErr)
}

func (c *starVectorClient) doOnce(ctx context.Context, prompt string) (*http.Response, []byte, error) {
	payload := generationRequest{
		Inputs:     prompt,
		Parameters: generationParameters{MaxNewTokens: 2048},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &starVectorHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *starVectorClient) extractSVG(raw []byte) (string, error) {
	match := reSVGBlock.Find(raw)
	if match == nil {
		return "", fmt.Errorf("%w: no svg block in %d byte response", ErrInvalidResponse, len(raw))
	}
	if len(match) < c.minSVGBytes {
		return "", fmt.Errorf("%w: svg block is %d bytes, below minimum %d", ErrInvalidResponse, len(match), c.minSVGBytes)
	}
	return string(match), nil
}
