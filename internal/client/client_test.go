package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vytor/sandplay/internal/client"
	"github.com/vytor/sandplay/internal/emotion"
	"github.com/vytor/sandplay/internal/models"
)

func TestFetchSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/emotion_summary", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = io.WriteString(w, `{"overall_stats":{"total_questions":10,"total_correct":7,"overall_accuracy":70},
			"data_points":10,"emotions":["happy","sad"],"matrix":[[5,0],[3,2]],
			"base_vector":[100,100],"user_direction_vector":[100,40],
			"accuracies":{"happy":100,"sad":40},"totals":{"happy":5,"sad":5},"corrects":{"happy":5,"sad":2}}`)
	}))
	defer srv.Close()

	sum, err := client.New(srv.URL).FetchSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, sum.DataPoints)
	assert.Equal(t, 70.0, sum.OverallStats.OverallAccuracy)
	assert.Equal(t, []int{3, 2}, sum.Matrix[1])
	assert.Equal(t, 40.0, sum.Accuracies["sad"])
}

func TestSaveRound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/save_score_table", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 2.0, body["round"])
		results := body["results"].([]any)
		require.Len(t, results, 2)
		assert.Nil(t, results[1].(map[string]any)["selected"])
		_, _ = io.WriteString(w, `{"message":"Saved","round_id":12}`)
	}))
	defer srv.Close()

	happy := emotion.Happy
	resp, err := client.New(srv.URL).SaveRound(context.Background(), models.RoundResult{
		Round: 2,
		Results: []models.AnswerRecord{
			{Correct: emotion.Happy, Selected: &happy},
			{Correct: emotion.Sad},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Saved", resp.Message)
	assert.Equal(t, int64(12), resp.RoundID)
}

func TestErrorBodyIsDecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"round must be an integer","code":"VALIDATION_ERROR","message":"Request processing failed"}`)
	}))
	defer srv.Close()

	err := client.New(srv.URL).SubmitRound(context.Background(), models.RoundResult{Round: 1})
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
	assert.Equal(t, "round must be an integer", apiErr.Message)
}

func TestPlainErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := client.New(srv.URL).FetchFeedback(context.Background())
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "bad gateway", apiErr.Message)
	assert.Empty(t, apiErr.Code)
}

func TestAnalyzeSandbox_Multipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analyze_sandbox/", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "scene.png", hdr.Filename)
		assert.Equal(t, []byte("png-bytes"), data)
		assert.Equal(t, "kid-7", r.FormValue("user_id"))
		assert.Equal(t, "family", r.FormValue("prompt"))
		assert.Contains(t, r.FormValue("placed_items"), `"library_id":"dog"`)
		_, _ = io.WriteString(w, `{"caption":"A garden","analysis":"Calm.","timestamp":"2026-01-02T03:04:05Z","user_id":"kid-7"}`)
	}))
	defer srv.Close()

	out, err := client.New(srv.URL+"/").AnalyzeSandbox(context.Background(), client.AnalyzeRequest{
		Image:    []byte("png-bytes"),
		Filename: "scene.png",
		UserID:   "kid-7",
		Prompt:   "family",
		Items:    []models.PlacedItem{{ID: "dog-1", LibraryID: "dog", Name: "Animal Dog"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "A garden", out.Caption)
	assert.Equal(t, "kid-7", out.UserID)
	assert.Equal(t, 2026, out.Timestamp.Year())
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"healthy","message":"ok","timestamp":"now"}`)
	}))
	defer srv.Close()

	h, err := client.New(srv.URL).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", h.Status)
}
