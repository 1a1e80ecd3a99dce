package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"styleshop/internal/domain"
)

func TestOllamaEncoder_Embed(t *testing.T) {
	var got embedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{{0.1, 0.2, 0.3}}})
	}))
	defer srv.Close()

	enc := NewOllamaEncoder(srv.URL+"/", "fashion-clip")
	v, err := enc.Encode(context.Background(), "a photo of red knit")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, v)
	assert.Equal(t, "fashion-clip", got.Model)
	assert.Equal(t, "a photo of red knit", got.Input)
}

func TestOllamaEncoder_FallsBackToLegacyRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/embed":
			http.NotFound(w, r)
		case "/api/embeddings":
			var req legacyRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			assert.Equal(t, "denim", req.Prompt)
			_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{1, 0}})
		}
	}))
	defer srv.Close()

	v, err := NewOllamaEncoder(srv.URL, "m").Encode(context.Background(), "denim")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, v)
}

func TestOllamaEncoder_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "model not loaded"})
	}))
	defer srv.Close()

	_, err := NewOllamaEncoder(srv.URL, "m").Encode(context.Background(), "denim")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not loaded")

	_, err = NewOllamaEncoder(srv.URL, "").Encode(context.Background(), "denim")
	assert.Error(t, err)
}

func TestPromptedAndStaticEncoders(t *testing.T) {
	static := StaticEncoder{"a photo of red knit": {1, 2}}
	enc := Prompted{Encoder: static, Template: "a photo of %s"}

	v, err := enc.Encode(context.Background(), "red knit")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, v)

	_, err = enc.Encode(context.Background(), "blue")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = Disabled().Encode(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNoEncoder)
}
