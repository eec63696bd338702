package classify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL       = "https://generativelanguage.googleapis.com/v1beta"
	defaultDetailedModel = "gemini-2.5-pro"
	defaultFastModel     = "gemini-2.5-flash"
	defaultTimeout       = 120 * time.Second
)

// GeminiClient calls the Generative Language API. The detailed pass uses the
// pro model, the fast label pass the lower-latency flash model. It
// implements both Detailed and Fast.
type GeminiClient struct {
	APIKey        string
	BaseURL       string
	DetailedModel string
	FastModel     string
	HTTPClient    *http.Client
}

// NewGeminiClient creates a client with default models and timeout.
func NewGeminiClient(apiKey string) *GeminiClient {
	return &GeminiClient{
		APIKey:        apiKey,
		BaseURL:       defaultBaseURL,
		DetailedModel: defaultDetailedModel,
		FastModel:     defaultFastModel,
		HTTPClient:    &http.Client{Timeout: defaultTimeout},
	}
}

// ClassifyDetailed implements Detailed.
func (g *GeminiClient) ClassifyDetailed(ctx context.Context, img image.Image) (string, error) {
	return g.generate(ctx, g.DetailedModel, detailedPrompt, img)
}

// ClassifyFast implements Fast. The rationale from the detailed pass is
// embedded in the prompt so the flash model classifies the analysis rather
// than re-deriving it.
func (g *GeminiClient) ClassifyFast(ctx context.Context, img image.Image, rationale string) (Label, float64, error) {
	prompt := fastPromptHeader + rationale + fastPromptFooter
	text, err := g.generate(ctx, g.FastModel, prompt, img)
	if err != nil {
		return "", 0, err
	}

	word := strings.ToLower(strings.TrimSpace(text))
	switch {
	case word == "discontinuity":
		return Discontinuity, 0.9, nil
	case word == "continuity":
		return Continuity, 0.9, nil
	case word == "nowaveguide" || word == "no_waveguide":
		return NoWaveguide, 0.9, nil
	// Models occasionally pad the answer; accept it with reduced confidence.
	case strings.Contains(word, "discontinuity"):
		return Discontinuity, 0.6, nil
	case strings.Contains(word, "nowaveguide") || strings.Contains(word, "no waveguide"):
		return NoWaveguide, 0.6, nil
	case strings.Contains(word, "continuity"):
		return Continuity, 0.6, nil
	}
	return "", 0, fmt.Errorf("%w: unparseable label %q", ErrInvalidInput, text)
}

// Request/response wire types, reduced to the fields this client uses.

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (g *GeminiClient) generate(ctx context.Context, model, prompt string, img image.Image) (string, error) {
	if g.APIKey == "" {
		return "", fmt.Errorf("%w: no API key configured", ErrServiceUnavailable)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("%w: encode tile image: %v", ErrInvalidInput, err)
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{Text: prompt},
				{InlineData: &geminiInlineData{
					MimeType: "image/png",
					Data:     base64.StdEncoding.EncodeToString(buf.Bytes()),
				}},
			},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.BaseURL, model, g.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpClient := g.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrServiceUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("%w: %s", ErrQuotaExceeded, model)
	case resp.StatusCode == http.StatusBadRequest:
		return "", fmt.Errorf("%w: %s", ErrInvalidInput, strings.TrimSpace(string(data)))
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("%w: %s returned %d", ErrServiceUnavailable, model, resp.StatusCode)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("%w: parse response: %v", ErrServiceUnavailable, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrServiceUnavailable, parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty response from %s", ErrServiceUnavailable, model)
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
