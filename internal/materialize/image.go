package materialize

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"

	// Register decoders for the formats try-on services return.
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
)

// thumbJPEGQuality matches the quality used for full-size exports.
const thumbJPEGQuality = 85

// imageResolution reads only the image header and returns "WxH".
func imageResolution(path string) (string, error) {
	f, err := os.Open(path) // #nosec G304 - path is a temp file we created
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return "", fmt.Errorf("decode image header: %w", err)
	}
	return fmt.Sprintf("%dx%d", cfg.Width, cfg.Height), nil
}

// makeThumbnail scales the image at path so its longest side is at most
// m.thumbMax pixels, preserving aspect ratio, and stores the JPEG as a new
// temporary file. Images already within the bound are re-encoded unscaled.
func (m *Materializer) makeThumbnail(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path) // #nosec G304 - path is a temp file we created
	if err != nil {
		return "", err
	}
	src, _, err := image.Decode(f)
	_ = f.Close()
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	tw, th := thumbSize(w, h, m.thumbMax)

	var thumb image.Image = src
	if tw != w || th != h {
		dst := image.NewRGBA(image.Rect(0, 0, tw, th))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		thumb = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: thumbJPEGQuality}); err != nil {
		return "", fmt.Errorf("encode thumbnail: %w", err)
	}
	return m.store.SaveTemp(ctx, "thumbnail", &buf)
}

// thumbSize returns the scaled dimensions for a max longest side, never
// upscaling and never returning a zero dimension.
func thumbSize(w, h, maxSide int) (int, int) {
	if w <= maxSide && h <= maxSide {
		return w, h
	}
	if w >= h {
		nh := h * maxSide / w
		if nh < 1 {
			nh = 1
		}
		return maxSide, nh
	}
	nw := w * maxSide / h
	if nw < 1 {
		nw = 1
	}
	return nw, maxSide
}
