package klingvideo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/tryonlabs/tryonkit/internal/auth"
	"github.com/tryonlabs/tryonkit/internal/provider"
)

func writeImageFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "frame.jpg")
	if err := os.WriteFile(path, []byte("image-bytes"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func testSigner() auth.Signer {
	return auth.NewTokenSigner("ak", "sk")
}

func TestNewClient_RequiresSigner(t *testing.T) {
	if _, err := NewClient(nil); !errors.Is(err, ErrSignerRequired) {
		t.Errorf("expected ErrSignerRequired, got %v", err)
	}
}

func TestSubmit_DefaultsAndOptions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/videos/image2video" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.ModelName != "kling-v1" {
			t.Errorf("expected kling-v1, got %q", req.ModelName)
		}
		if req.Mode != "pro" {
			t.Errorf("expected pro, got %q", req.Mode)
		}
		if req.Duration != "10" {
			t.Errorf("expected duration 10, got %q", req.Duration)
		}
		if req.CfgScale != 0.7 {
			t.Errorf("expected cfg_scale 0.7, got %v", req.CfgScale)
		}
		if req.Seed == nil || *req.Seed != 1234 {
			t.Errorf("expected seed 1234, got %v", req.Seed)
		}
		if req.Prompt != "walking on a beach" {
			t.Errorf("unexpected prompt %q", req.Prompt)
		}
		if req.Image == "" {
			t.Error("expected base64 image")
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"data": map[string]any{"task_id": "vid-1"},
		})
	}))
	defer server.Close()

	client, _ := NewClient(testSigner(), WithBaseURL(server.URL))

	in := provider.SubmitInput{
		ModelImage: provider.Asset{Path: writeImageFixture(t)},
		Prompt:     "walking on a beach",
		Options: provider.Params{
			"model_version": "kling-v1",
			"mode":          "pro",
			"duration":      "10",
			"cfg_scale":     0.7,
			"seed":          1234,
		},
	}
	handle, err := client.Submit(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if handle.TaskID != "vid-1" {
		t.Errorf("expected vid-1, got %s", handle.TaskID)
	}
	if handle.Provider != provider.IDKlingVideo {
		t.Errorf("expected kling-video, got %s", handle.Provider)
	}
}

func TestSubmit_SeedOmittedWhenUnset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if _, present := body["seed"]; present {
			t.Error("expected seed to be omitted")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"data": map[string]any{"task_id": "vid-1"},
		})
	}))
	defer server.Close()

	client, _ := NewClient(testSigner(), WithBaseURL(server.URL))

	in := provider.SubmitInput{
		ModelImage: provider.Asset{Path: writeImageFixture(t)},
		Options:    provider.Params{},
	}
	if _, err := client.Submit(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPoll_Succeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/videos/image2video/vid-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"data": map[string]any{"task_id": "vid-1", "task_status": "succeed"},
		})
	}))
	defer server.Close()

	client, _ := NewClient(testSigner(), WithBaseURL(server.URL))

	outcome, err := client.Poll(context.Background(), provider.TaskHandle{TaskID: "vid-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.State != provider.StateSucceeded {
		t.Errorf("expected succeeded, got %s", outcome.State)
	}
}

func TestParseResult_VideoURLAndDuration(t *testing.T) {
	raw := json.RawMessage(`{
		"code": 0,
		"data": {
			"task_id": "vid-1",
			"task_status": "succeed",
			"task_result": {"videos": [{"id": "v1", "url": "https://cdn.klingai.com/out.mp4", "duration": "5.1"}]}
		}
	}`)

	client, _ := NewClient(testSigner())
	res, err := client.ParseResult(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.ArtifactURLs) != 1 || res.ArtifactURLs[0] != "https://cdn.klingai.com/out.mp4" {
		t.Errorf("unexpected URLs %v", res.ArtifactURLs)
	}
	if res.MediaDurationSeconds != 5.1 {
		t.Errorf("expected clip length 5.1, got %v", res.MediaDurationSeconds)
	}
}

func TestSchema_RejectsUnsupportedDuration(t *testing.T) {
	_, err := Schema().Validate(map[string]any{"duration": "15"})
	var verr *provider.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Option != "duration" {
		t.Errorf("expected duration option, got %q", verr.Option)
	}
}

func TestSchema_CfgScaleRange(t *testing.T) {
	if _, err := Schema().Validate(map[string]any{"cfg_scale": 0.5}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := Schema().Validate(map[string]any{"cfg_scale": 1.5}); err == nil {
		t.Error("expected validation error for cfg_scale 1.5")
	}
}
