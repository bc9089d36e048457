package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestCheckEmptyTextSkipsRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL}, zap.NewNop(), nil)

	res, err := client.Check(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Flagged {
		t.Error("empty text flagged")
	}
	if called {
		t.Error("empty text should not hit the API")
	}
}

func TestCheckMissingAPIKey(t *testing.T) {
	client := NewClient(Config{}, zap.NewNop(), nil)

	_, err := client.Check(context.Background(), "some text")
	if !errors.Is(err, ErrAPIKeyMissing) {
		t.Fatalf("error = %v, want ErrAPIKeyMissing", err)
	}
}

func TestCheckFlaggedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/moderations" {
			t.Errorf("path = %q, want /moderations", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}

		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["input"] != "bad text" {
			t.Errorf("input = %q", req["input"])
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{
				"flagged": true,
				"categories": map[string]any{
					"hate": true,
				},
				"category_scores": map[string]any{
					"hate": 0.92,
				},
			}},
		})
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL}, zap.NewNop(), nil)

	res, err := client.Check(context.Background(), "bad text")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !res.Flagged {
		t.Error("Flagged = false, want true")
	}
	if !res.Categories.Hate {
		t.Error("Categories.Hate = false, want true")
	}
	if res.CategoryScores.Hate != 0.92 {
		t.Errorf("CategoryScores.Hate = %v, want 0.92", res.CategoryScores.Hate)
	}
}

func TestCheckServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL}, zap.NewNop(), nil)

	_, err := client.Check(context.Background(), "some text")
	if !errors.Is(err, ErrClassifier) {
		t.Fatalf("error = %v, want ErrClassifier", err)
	}
}
