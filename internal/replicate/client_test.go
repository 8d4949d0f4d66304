package replicate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tryonlabs/tryonkit/internal/auth"
	"github.com/tryonlabs/tryonkit/internal/provider"
)

func testInput() provider.SubmitInput {
	return provider.SubmitInput{
		ModelImage:   provider.Asset{URL: "https://img.example.com/human.jpg"},
		GarmentImage: provider.Asset{URL: "https://img.example.com/garment.jpg"},
		Prompt:       "cute summer dress",
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
		if r.URL.Path != "/v1/predictions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer r8-token" {
			t.Errorf("unexpected authorization %q", r.Header.Get("Authorization"))
		}

		var req predictionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Version == "" {
			t.Error("expected pinned version")
		}
		if req.Input.HumanImg != "https://img.example.com/human.jpg" {
			t.Errorf("unexpected human_img %q", req.Input.HumanImg)
		}
		if req.Input.GarmentDes != "cute summer dress" {
			t.Errorf("expected prompt as garment_des, got %q", req.Input.GarmentDes)
		}
		if req.Input.Category != "upper_body" {
			t.Errorf("expected default category, got %q", req.Input.Category)
		}
		if req.Input.Steps != 30 {
			t.Errorf("expected default steps 30, got %d", req.Input.Steps)
		}

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "pred-7", "status": "starting"})
	}))
	defer server.Close()

	client, _ := NewClient(auth.NewStaticKey("r8-token"), WithBaseURL(server.URL))

	handle, err := client.Submit(context.Background(), testInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if handle.TaskID != "pred-7" {
		t.Errorf("expected pred-7, got %s", handle.TaskID)
	}
}

func TestSubmit_RequiresRemoteURLs(t *testing.T) {
	client, _ := NewClient(auth.NewStaticKey("r8-token"))

	in := testInput()
	in.ModelImage = provider.Asset{Path: "/tmp/human.jpg"}
	_, err := client.Submit(context.Background(), in)
	if !errors.Is(err, ErrRemoteURLRequired) {
		t.Errorf("expected ErrRemoteURLRequired, got %v", err)
	}
}

func TestSubmit_DetailError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"detail":"insufficient credit"}`))
	}))
	defer server.Close()

	client, _ := NewClient(auth.NewStaticKey("r8-token"), WithBaseURL(server.URL))

	_, err := client.Submit(context.Background(), testInput())
	var svcErr *provider.ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	if svcErr.Message != "insufficient credit" {
		t.Errorf("unexpected message %q", svcErr.Message)
	}
}

func TestPoll_Statuses(t *testing.T) {
	tests := []struct {
		status    string
		wantState provider.PollState
	}{
		{"starting", provider.StateRunning},
		{"processing", provider.StateRunning},
		{"succeeded", provider.StateSucceeded},
		{"failed", provider.StateFailed},
		{"canceled", provider.StateFailed},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/predictions/pred-7" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				_ = json.NewEncoder(w).Encode(map[string]any{"id": "pred-7", "status": tt.status})
			}))
			defer server.Close()

			client, _ := NewClient(auth.NewStaticKey("r8-token"), WithBaseURL(server.URL))

			outcome, err := client.Poll(context.Background(), provider.TaskHandle{TaskID: "pred-7"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if outcome.State != tt.wantState {
				t.Errorf("expected %s, got %s", tt.wantState, outcome.State)
			}
		})
	}
}

func TestParseResult_SingleURLOutput(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "pred-7", "status": "succeeded",
		"output": "https://replicate.delivery/out.jpg",
		"metrics": {"predict_time": 17.93}
	}`)

	client, _ := NewClient(auth.NewStaticKey("r8-token"))
	res, err := client.ParseResult(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.ArtifactURLs) != 1 || res.ArtifactURLs[0] != "https://replicate.delivery/out.jpg" {
		t.Errorf("unexpected URLs %v", res.ArtifactURLs)
	}
	if res.Timing.DurationSeconds != 17.93 {
		t.Errorf("expected predict_time 17.93, got %v", res.Timing.DurationSeconds)
	}
}

func TestParseResult_ArrayOutput(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "pred-7", "status": "succeeded",
		"output": ["https://replicate.delivery/a.jpg", "https://replicate.delivery/b.jpg"]
	}`)

	client, _ := NewClient(auth.NewStaticKey("r8-token"))
	res, err := client.ParseResult(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.ArtifactURLs) != 2 {
		t.Errorf("expected 2 URLs, got %d", len(res.ArtifactURLs))
	}
}

func TestSchema_StepsRange(t *testing.T) {
	if _, err := Schema().Validate(map[string]any{"steps": 40}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := Schema().Validate(map[string]any{"steps": 41}); err == nil {
		t.Error("expected validation error for steps 41")
	}
	if _, err := Schema().Validate(map[string]any{"category": "upper_body"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := Schema().Validate(map[string]any{"category": "tops"}); err == nil {
		t.Error("expected validation error for category tops")
	}
}
