package provider

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAsset_Base64(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.jpg")
	if err := os.WriteFile(path, []byte("pixels"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	a := Asset{Path: path}
	got, err := a.Base64()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != base64.StdEncoding.EncodeToString([]byte("pixels")) {
		t.Errorf("unexpected encoding %q", got)
	}
}

func TestAsset_DataURI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.jpg")
	if err := os.WriteFile(path, []byte("pixels"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	uri, err := Asset{Path: path}.DataURI()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(uri, "data:image/jpeg;base64,") {
		t.Errorf("unexpected prefix in %q", uri)
	}
}

func TestAsset_Base64MissingPath(t *testing.T) {
	if _, err := (Asset{URL: "https://example.com/a.jpg"}).Base64(); err == nil {
		t.Error("expected error for URL-only asset")
	}
}

func TestAsset_IsZero(t *testing.T) {
	if !(Asset{}).IsZero() {
		t.Error("empty asset should be zero")
	}
	if (Asset{URL: "https://example.com"}).IsZero() {
		t.Error("asset with URL should not be zero")
	}
}
