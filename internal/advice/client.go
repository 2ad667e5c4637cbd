// Package advice wraps the generative-text endpoint used for care tips, farm
// recommendations and chat replies. The client is deliberately insulating:
// whatever goes wrong on the wire, Generate returns a readable fallback
// string so advice flakiness never blocks delivery of a classification
// result.
package advice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Fallback strings per failure category. Callers can compare against these
// to detect a degraded reply, but most simply pass the text through.
const (
	FallbackRequestFailed = "Error occurred while fetching analysis."
	FallbackNoCandidates  = "Unable to generate analysis at this time."
	FallbackNoText        = "Unable to fetch detailed analysis."
)

const defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"

// Client performs single-attempt calls against a generateContent endpoint.
// No retries, no backoff; only a bounded transport timeout.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	log      *zap.SugaredLogger
}

// New returns a Client for the given model name. endpointOverride replaces
// the whole URL when non-empty (tests point it at a local server).
func New(apiKey, model, endpointOverride string, log *zap.SugaredLogger) *Client {
	endpoint := endpointOverride
	if endpoint == "" {
		endpoint = fmt.Sprintf(defaultEndpoint, model)
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 30 * time.Second},
		log:      log,
	}
}

// request/response mirror the generateContent wire format. Only the fields
// this client reads are declared.
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate sends the prompt and returns the generated text. Transport
// errors, non-2xx statuses, malformed bodies, empty candidate lists and
// missing text fields all degrade to a fallback string; Generate never
// returns an error.
func (c *Client) Generate(ctx context.Context, prompt string) string {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		c.log.Errorw("advice: marshal request failed", "err", err)
		return FallbackRequestFailed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?key="+url.QueryEscape(c.apiKey), bytes.NewReader(body))
	if err != nil {
		c.log.Errorw("advice: build request failed", "err", err)
		return FallbackRequestFailed
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Errorw("advice: request failed", "err", err)
		return FallbackRequestFailed
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warnw("advice: unexpected status", "status", resp.StatusCode)
		return FallbackRequestFailed
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Errorw("advice: read body failed", "err", err)
		return FallbackRequestFailed
	}

	var parsed generateResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		c.log.Warnw("advice: malformed response body", "err", err)
		return FallbackRequestFailed
	}
	if len(parsed.Candidates) == 0 {
		c.log.Warnw("advice: no candidates in response")
		return FallbackNoCandidates
	}
	cand := parsed.Candidates[0]
	if len(cand.Content.Parts) == 0 || cand.Content.Parts[0].Text == "" {
		c.log.Warnw("advice: candidate missing text part")
		return FallbackNoText
	}
	return cand.Content.Parts[0].Text
}
