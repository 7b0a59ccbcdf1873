// Package inliner downloads a card photo and embeds it as a data URI.
// Every failure degrades to "no photo"; the layout then shows initials.
package inliner

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	_ "golang.org/x/image/webp"

	apperrors "card-preview/internal/common/errors"
	"card-preview/internal/common/logger"
	"card-preview/internal/common/metrics"
)

const defaultContentType = "image/png"

// DefaultMaxPixels bounds the decoded size of a photo. The byte limit
// alone does not, since a small compressed body can claim a huge canvas.
const DefaultMaxPixels = 25_000_000

// Image is a fetched photo, ready to embed in the vector document.
type Image struct {
	ContentType string
	Data        []byte
	DataURI     string
	Width       int
	Height      int
	// Decoded is the fully decoded photo, so the rasterizer never decodes
	// it again.
	Decoded image.Image
}

// Fetcher performs the photo GET. internal/common/http.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, url string, maxBytes int64) ([]byte, string, error)
}

type Inliner struct {
	fetcher   Fetcher
	timeout   time.Duration
	maxBytes  int64
	maxPixels int
	logger    logger.Logger
}

func New(fetcher Fetcher, timeout time.Duration, maxBytes int64, log logger.Logger) *Inliner {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Inliner{fetcher: fetcher, timeout: timeout, maxBytes: maxBytes, maxPixels: DefaultMaxPixels, logger: log}
}

// WithMaxPixels sets the largest accepted width*height. n <= 0 keeps
// DefaultMaxPixels.
func (in *Inliner) WithMaxPixels(n int) *Inliner {
	if n > 0 {
		in.maxPixels = n
	}
	return in
}

// Inline fetches url once. It returns nil for a blank url and for any
// failure: network error, timeout, non-2xx status, oversized body, a
// canvas above the pixel limit, or a body that does not fully decode.
func (in *Inliner) Inline(ctx context.Context, url string) *Image {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil
	}

	if in.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, in.timeout)
		defer cancel()
	}

	data, contentType, err := in.fetcher.Fetch(ctx, url, in.maxBytes)
	if err != nil {
		in.degrade(url, err)
		return nil
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		in.degrade(url, err)
		return nil
	}

	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > int64(in.maxPixels) {
		in.degrade(url, fmt.Errorf("image %dx%d exceeds %d pixels", cfg.Width, cfg.Height, in.maxPixels))
		return nil
	}

	// A valid header does not imply a valid body.
	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		in.degrade(url, err)
		return nil
	}

	contentType = normalizeContentType(contentType, format)
	return &Image{
		ContentType: contentType,
		Data:        data,
		DataURI:     DataURI(contentType, data),
		Width:       cfg.Width,
		Height:      cfg.Height,
		Decoded:     decoded,
	}
}

// DataURI encodes data as a base64 data: URI.
func DataURI(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// normalizeContentType keeps the response's media type without parameters.
// A missing or generic type falls back to the sniffed format, then image/png.
func normalizeContentType(header, format string) string {
	ct := strings.TrimSpace(strings.ToLower(header))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if strings.HasPrefix(ct, "image/") {
		return ct
	}
	if format != "" {
		return "image/" + format
	}
	return defaultContentType
}

func (in *Inliner) degrade(url string, err error) {
	degraded := apperrors.NewUpstreamDegradedError("photo", err)
	metrics.UpstreamDegraded.WithLabelValues("photo").Inc()
	in.logger.Debug("photo fetch degraded to initials", map[string]interface{}{
		"url":       url,
		"errorCode": string(degraded.Code),
		"details":   degraded.Details,
	})
}
