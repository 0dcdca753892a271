package genai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanum-labs/magicshop/internal/domain"
	"github.com/arcanum-labs/magicshop/internal/observability"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Prompts: SystemPrompts{
			DescriptionGeneration: "You describe magical products.",
			ImagePromptGeneration: "You write image prompts.",
		},
	}, observability.Nop())
}

func textResponse(text string) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"parts":[{"text":%q}]}}]}`, text)
}

func TestGenerateTextSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.Contains(t, r.URL.Path, ":generateContent")

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "hello", req.Contents[0].Parts[0].Text)

		io.WriteString(w, textResponse("  world  "))
	}))
	defer srv.Close()

	text, err := newTestClient(srv.URL).GenerateText(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "world", text) // trimmed
}

func TestGenerateTextEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GenerateText(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, domain.KindBackend, domain.KindOf(err))
	assert.Contains(t, err.Error(), "empty response")
}

func TestGenerateTextUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GenerateText(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, domain.KindBackend, domain.KindOf(err))
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestGenerateDescriptionPromptConstruction(t *testing.T) {
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotPrompt = req.Contents[0].Parts[0].Text
		io.WriteString(w, textResponse("a sword"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GenerateDescription(context.Background(), "flaming sword")
	require.NoError(t, err)

	assert.Equal(t, "You describe magical products.\n\nProduct idea: flaming sword", gotPrompt)
}

func TestGenerateImagePromptConstruction(t *testing.T) {
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotPrompt = req.Contents[0].Parts[0].Text
		io.WriteString(w, textResponse("painterly sword"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GenerateImagePrompt(context.Background(), "a sword of fire")
	require.NoError(t, err)

	assert.Equal(t, "You write image prompts.\n\nDescription: a sword of fire", gotPrompt)
}

func TestGenerateImageFirstImageWins(t *testing.T) {
	payload := []byte("fake-png-bytes")
	encoded := base64.StdEncoding.EncodeToString(payload)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, ":streamGenerateContent")
		assert.Equal(t, "sse", r.URL.Query().Get("alt"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.GenerationConfig)
		assert.Equal(t, []string{"IMAGE", "TEXT"}, req.GenerationConfig.ResponseModalities)

		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, `data: {"candidates":[{"content":{"parts":[{"text":"rendering..."}]}}]}`+"\n\n")
		io.WriteString(w, `data: {"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/png","data":"`+encoded+`"}}]}}]}`+"\n\n")
		io.WriteString(w, `data: {"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/png","data":"ZHJvcHBlZA=="}}]}}]}`+"\n\n")
	}))
	defer srv.Close()

	dst := filepath.Join(t.TempDir(), "out", "1_20260101_120000.png")
	got, err := newTestClient(srv.URL).GenerateImage(context.Background(), "a sword", dst)
	require.NoError(t, err)
	assert.Equal(t, dst, got)

	written, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, payload, written) // first payload, later chunks abandoned
}

func TestGenerateImageEmptyStream(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no chunks", ""},
		{"text only", `data: {"candidates":[{"content":{"parts":[{"text":"still thinking"}]}}]}` + "\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/event-stream")
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			dst := filepath.Join(t.TempDir(), "out.png")
			_, err := newTestClient(srv.URL).GenerateImage(context.Background(), "a sword", dst)

			require.Error(t, err)
			assert.Equal(t, domain.KindBackend, domain.KindOf(err))
			assert.Contains(t, err.Error(), "no image data")

			// No destination file on failure.
			_, statErr := os.Stat(dst)
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestGenerateImageUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	dst := filepath.Join(t.TempDir(), "out.png")
	_, err := newTestClient(srv.URL).GenerateImage(context.Background(), "a sword", dst)

	require.Error(t, err)
	assert.Equal(t, domain.KindBackend, domain.KindOf(err))
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(Config{APIKey: "k"}, observability.Nop())

	assert.Equal(t, defaultTextModel, c.textModel)
	assert.Equal(t, defaultImageModel, c.imageModel)
	assert.Equal(t, defaultImageSize, c.imageSize)
	assert.Equal(t, defaultBaseURL, c.baseURL)
}
