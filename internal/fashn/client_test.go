package fashn

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tryonlabs/tryonkit/internal/auth"
	"github.com/tryonlabs/tryonkit/internal/provider"
)

// writeImageFixture creates a small local file standing in for an image.
func writeImageFixture(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("image-bytes"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func testInput(t *testing.T) provider.SubmitInput {
	t.Helper()
	return provider.SubmitInput{
		ModelImage:   provider.Asset{Path: writeImageFixture(t, "model.jpg")},
		GarmentImage: provider.Asset{Path: writeImageFixture(t, "garment.jpg")},
		Options:      provider.Params{},
	}
}

func TestNewClient_RequiresSigner(t *testing.T) {
	if _, err := NewClient(nil); !errors.Is(err, ErrSignerRequired) {
		t.Errorf("expected ErrSignerRequired, got %v", err)
	}
}

func TestSubmit_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/run" {
			t.Errorf("expected /run, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer fa-key" {
			t.Errorf("expected Bearer fa-key, got %s", r.Header.Get("Authorization"))
		}

		var req runRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if !strings.HasPrefix(req.ModelImage, "data:image/jpeg;base64,") {
			t.Errorf("expected data URI model image, got %q", req.ModelImage[:min(len(req.ModelImage), 30)])
		}
		if req.Category != "tops" {
			t.Errorf("expected default category tops, got %q", req.Category)
		}
		if req.Mode != "balanced" {
			t.Errorf("expected default mode balanced, got %q", req.Mode)
		}
		if !req.NSFWFilter {
			t.Error("expected nsfw_filter default true")
		}

		_ = json.NewEncoder(w).Encode(runResponse{ID: "pred-123"})
	}))
	defer server.Close()

	client, _ := NewClient(auth.NewStaticKey("fa-key"), WithBaseURL(server.URL))

	handle, err := client.Submit(context.Background(), testInput(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if handle.TaskID != "pred-123" {
		t.Errorf("expected pred-123, got %s", handle.TaskID)
	}
	if handle.Provider != provider.IDFashn {
		t.Errorf("expected fashn provider, got %s", handle.Provider)
	}
}

func TestSubmit_OptionsForwarded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req runRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Category != "bottoms" {
			t.Errorf("expected bottoms, got %q", req.Category)
		}
		if req.Mode != "quality" {
			t.Errorf("expected quality, got %q", req.Mode)
		}
		if req.NumSamples != 3 {
			t.Errorf("expected 3 samples, got %d", req.NumSamples)
		}
		_ = json.NewEncoder(w).Encode(runResponse{ID: "pred-123"})
	}))
	defer server.Close()

	client, _ := NewClient(auth.NewStaticKey("fa-key"), WithBaseURL(server.URL))

	in := testInput(t)
	in.Options = provider.Params{"category": "bottoms", "mode": "quality", "num_samples": 3}
	if _, err := client.Submit(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSubmit_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"name":"ImageLoadError","message":"could not load model_image"}`))
	}))
	defer server.Close()

	client, _ := NewClient(auth.NewStaticKey("fa-key"), WithBaseURL(server.URL))

	_, err := client.Submit(context.Background(), testInput(t))
	var svcErr *provider.ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	if svcErr.HTTPStatus != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", svcErr.HTTPStatus)
	}
	if svcErr.Code != "ImageLoadError" {
		t.Errorf("expected code ImageLoadError, got %q", svcErr.Code)
	}
	if svcErr.Message != "could not load model_image" {
		t.Errorf("unexpected message %q", svcErr.Message)
	}
}

func TestSubmit_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // refuse all connections

	client, _ := NewClient(auth.NewStaticKey("fa-key"), WithBaseURL(server.URL))

	_, err := client.Submit(context.Background(), testInput(t))
	if !provider.IsTransient(err) {
		t.Errorf("expected transient transport error, got %v", err)
	}
}

func TestPoll_Statuses(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantState provider.PollState
	}{
		{"starting", `{"id":"p1","status":"starting"}`, provider.StateRunning},
		{"in_queue", `{"id":"p1","status":"in_queue"}`, provider.StateRunning},
		{"processing", `{"id":"p1","status":"processing"}`, provider.StateRunning},
		{"completed", `{"id":"p1","status":"completed","output":["https://cdn.fashn.ai/out.png"]}`, provider.StateSucceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/status/p1" {
					t.Errorf("expected /status/p1, got %s", r.URL.Path)
				}
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, _ := NewClient(auth.NewStaticKey("fa-key"), WithBaseURL(server.URL))

			outcome, err := client.Poll(context.Background(), provider.TaskHandle{TaskID: "p1"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if outcome.State != tt.wantState {
				t.Errorf("expected %s, got %s", tt.wantState, outcome.State)
			}
		})
	}
}

func TestPoll_FailedCarriesServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"p1","status":"failed","error":{"name":"NSFWError","message":"nsfw content detected"}}`))
	}))
	defer server.Close()

	client, _ := NewClient(auth.NewStaticKey("fa-key"), WithBaseURL(server.URL))

	outcome, err := client.Poll(context.Background(), provider.TaskHandle{TaskID: "p1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.State != provider.StateFailed {
		t.Fatalf("expected failed state, got %s", outcome.State)
	}
	var svcErr *provider.ServiceError
	if !errors.As(outcome.Err, &svcErr) {
		t.Fatalf("expected ServiceError, got %v", outcome.Err)
	}
	if svcErr.Message != "nsfw content detected" {
		t.Errorf("unexpected message %q", svcErr.Message)
	}
}

func TestParseResult(t *testing.T) {
	raw := json.RawMessage(`{"id":"p1","status":"completed","output":["https://cdn.fashn.ai/a.png","https://cdn.fashn.ai/b.png"]}`)

	client, _ := NewClient(auth.NewStaticKey("fa-key"))
	res, err := client.ParseResult(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.ArtifactURLs) != 2 {
		t.Fatalf("expected 2 URLs, got %d", len(res.ArtifactURLs))
	}
	if res.ArtifactURLs[0] != "https://cdn.fashn.ai/a.png" {
		t.Errorf("unexpected first URL %s", res.ArtifactURLs[0])
	}
}
