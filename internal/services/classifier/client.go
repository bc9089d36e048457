package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	ErrAPIKeyMissing = errors.New("classifier api key is not configured")
	ErrClassifier    = errors.New("classifier request failed")
)

// Categories mirrors the moderation endpoint's category flags. The
// sexual/minors flag gets special handling downstream so it keeps its
// own field.
type Categories struct {
	Sexual          bool `json:"sexual"`
	Hate            bool `json:"hate"`
	Harassment      bool `json:"harassment"`
	SelfHarm        bool `json:"self-harm"`
	SexualMinors    bool `json:"sexual/minors"`
	HateThreatening bool `json:"hate/threatening"`
	ViolenceGraphic bool `json:"violence/graphic"`
	Violence        bool `json:"violence"`
}

type CategoryScores struct {
	Sexual          float64 `json:"sexual"`
	Hate            float64 `json:"hate"`
	Harassment      float64 `json:"harassment"`
	SelfHarm        float64 `json:"self-harm"`
	SexualMinors    float64 `json:"sexual/minors"`
	HateThreatening float64 `json:"hate/threatening"`
	ViolenceGraphic float64 `json:"violence/graphic"`
	Violence        float64 `json:"violence"`
}

type Result struct {
	Flagged        bool           `json:"flagged"`
	Categories     Categories     `json:"categories"`
	CategoryScores CategoryScores `json:"category_scores"`
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	cfg    Config
	http   httpDoer
	logger *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger, doer httpDoer) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if doer == nil {
		doer = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{cfg: cfg, http: doer, logger: logger}
}

type moderationRequest struct {
	Input string `json:"input"`
}

type moderationResponse struct {
	Results []Result `json:"results"`
}

// Check sends the text to the moderation endpoint. Empty input never
// leaves the process: it returns a clean result with zero scores.
func (c *Client) Check(ctx context.Context, text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, nil
	}
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return Result{}, ErrAPIKeyMissing
	}

	body, err := json.Marshal(moderationRequest{Input: text})
	if err != nil {
		return Result{}, fmt.Errorf("marshal moderation request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/moderations"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build moderation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrClassifier, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("classifier returned non-200",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", payload),
		)
		return Result{}, fmt.Errorf("%w: unexpected status %s", ErrClassifier, resp.Status)
	}

	var decoded moderationResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Result{}, fmt.Errorf("%w: decode response: %v", ErrClassifier, err)
	}
	if len(decoded.Results) == 0 {
		return Result{}, fmt.Errorf("%w: empty results", ErrClassifier)
	}

	return decoded.Results[0], nil
}
