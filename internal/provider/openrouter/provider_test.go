package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/julianshen/agentwiki/internal/provider"
)

func TestSendCompletionAggregatesStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-or-test", r.Header.Get("Authorization"))

		var body apiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "deepseek/deepseek-r1:free", body.Model)
		assert.True(t, body.Stream)
		require.Len(t, body.Messages, 1)
		assert.Equal(t, "user", body.Messages[0].Role)
		assert.Equal(t, "describe the code", body.Messages[0].Content)

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": OPENROUTER PROCESSING\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\" world\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	p := New(server.URL, zap.NewNop())
	text, err := p.SendCompletion(context.Background(), "deepseek/deepseek-r1:free", "describe the code", "sk-or-test", nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", text)
}

func TestSendCompletionHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"No auth credentials found"}}`)
	}))
	defer server.Close()

	p := New(server.URL, nil)
	_, err := p.SendCompletion(context.Background(), "m", "p", "bad", nil)
	require.Error(t, err)

	var reqErr *provider.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusUnauthorized, reqErr.StatusCode)
	assert.Contains(t, reqErr.Message, "No auth credentials found")
}

func TestSendCompletionInStreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "data: {\"error\":{\"code\":502,\"message\":\"upstream overloaded\"}}\n\n")
	}))
	defer server.Close()

	_, err := New(server.URL, nil).SendCompletion(context.Background(), "m", "p", "k", nil)
	var reqErr *provider.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "upstream overloaded", reqErr.Message)
}

func TestSendCompletionEmptyResponseWarns(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	core, logs := observer.New(zap.WarnLevel)
	text, err := New(server.URL, zap.New(core)).SendCompletion(context.Background(), "m", "p", "k", nil)
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Equal(t, 1, logs.FilterMessage("provider returned empty response").Len())
}

func TestListModelsSortedByPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		fmt.Fprint(w, `{"data":[
			{"id":"b/pricey","name":"Pricey","context_length":200000,"pricing":{"prompt":"0.000003","completion":"0.000015"}},
			{"id":"z/free","name":"Z Free","context_length":8192,"pricing":{"prompt":"0","completion":"0"}},
			{"id":"a/free","name":"A Free","context_length":8192,"pricing":{"prompt":"0","completion":"0"}},
			{"id":"c/mid","name":"Mid","context_length":32000,"pricing":{"prompt":"0.0000005","completion":"0.000001"}}
		]}`)
	}))
	defer server.Close()

	models, err := New(server.URL, nil).ListModels(context.Background(), "k")
	require.NoError(t, err)
	require.Len(t, models, 4)

	var ids []string
	for _, m := range models {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"a/free", "z/free", "c/mid", "b/pricey"}, ids)
	assert.Equal(t, "Pricey", models[3].DisplayName)
	assert.Equal(t, 200000, models[3].ContextLength)
	assert.InDelta(t, 0.000018, models[3].Pricing.Total(), 1e-12)
}

func TestParsePrice(t *testing.T) {
	assert.Zero(t, parsePrice("-1"))
	assert.Zero(t, parsePrice("abc"))
	assert.InDelta(t, 0.5, parsePrice("0.5"), 1e-12)
}
