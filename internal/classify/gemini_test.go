package classify

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 4, 4))
}

// fakeService returns an httptest server answering every generateContent
// call with the given status and text part.
func fakeService(t *testing.T, status int, text string) (*httptest.Server, *GeminiClient) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, ":generateContent")
		assert.NotEmpty(t, r.URL.Query().Get("key"))

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		require.Len(t, req.Contents[0].Parts, 2)
		assert.NotEmpty(t, req.Contents[0].Parts[0].Text)
		require.NotNil(t, req.Contents[0].Parts[1].InlineData)
		assert.Equal(t, "image/png", req.Contents[0].Parts[1].InlineData.MimeType)

		w.WriteHeader(status)
		if status == http.StatusOK {
			resp := geminiResponse{}
			resp.Candidates = []struct {
				Content geminiContent `json:"content"`
			}{{Content: geminiContent{Parts: []geminiPart{{Text: text}}}}}
			_ = json.NewEncoder(w).Encode(resp)
		}
	}))
	t.Cleanup(srv.Close)

	c := NewGeminiClient("test-key")
	c.BaseURL = srv.URL
	return srv, c
}

func TestGeminiClassifyDetailed(t *testing.T) {
	_, c := fakeService(t, http.StatusOK, "The waveguide narrows abruptly at the right edge.")

	rationale, err := c.ClassifyDetailed(context.Background(), testImage())
	require.NoError(t, err)
	assert.Contains(t, rationale, "narrows abruptly")
}

func TestGeminiClassifyFastLabels(t *testing.T) {
	tests := []struct {
		reply      string
		label      Label
		confidence float64
	}{
		{"continuity", Continuity, 0.9},
		{"Discontinuity", Discontinuity, 0.9},
		{" nowaveguide\n", NoWaveguide, 0.9},
		{"no_waveguide", NoWaveguide, 0.9},
		{"The answer is discontinuity.", Discontinuity, 0.6},
		{"there is no waveguide here", NoWaveguide, 0.6},
		{"clear continuity throughout", Continuity, 0.6},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.reply), func(t *testing.T) {
			_, c := fakeService(t, http.StatusOK, tt.reply)
			label, confidence, err := c.ClassifyFast(context.Background(), testImage(), "prior rationale")
			require.NoError(t, err)
			assert.Equal(t, tt.label, label)
			assert.Equal(t, tt.confidence, confidence)
		})
	}
}

func TestGeminiClassifyFastUnparseable(t *testing.T) {
	_, c := fakeService(t, http.StatusOK, "I cannot tell.")

	_, _, err := c.ClassifyFast(context.Background(), testImage(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGeminiErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, ErrQuotaExceeded},
		{http.StatusBadRequest, ErrInvalidInput},
		{http.StatusInternalServerError, ErrServiceUnavailable},
		{http.StatusServiceUnavailable, ErrServiceUnavailable},
	}

	for _, tt := range tests {
		_, c := fakeService(t, tt.status, "")
		_, err := c.ClassifyDetailed(context.Background(), testImage())
		assert.ErrorIs(t, err, tt.want, "status %d", tt.status)
	}
}

func TestGeminiNoAPIKey(t *testing.T) {
	c := NewGeminiClient("")
	_, err := c.ClassifyDetailed(context.Background(), testImage())
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestGeminiEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	t.Cleanup(srv.Close)

	c := NewGeminiClient("test-key")
	c.BaseURL = srv.URL
	_, err := c.ClassifyDetailed(context.Background(), testImage())
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestLabelValid(t *testing.T) {
	assert.True(t, Continuity.Valid())
	assert.True(t, Discontinuity.Valid())
	assert.True(t, NoWaveguide.Valid())
	assert.False(t, Label("maybe").Valid())
	assert.False(t, Label("").Valid())
}
