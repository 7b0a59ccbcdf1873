package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"card-preview/internal/common/config"
	apperrors "card-preview/internal/common/errors"
	commonhttp "card-preview/internal/common/http"
	"card-preview/internal/common/logger"
	"card-preview/internal/models"
	"card-preview/internal/preview/assets"
	"card-preview/internal/preview/inliner"
	"card-preview/internal/preview/layout"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeResolver struct {
	cards   map[string]*models.CardRecord
	counts  map[string]int64
	err     error
	lookups []string
}

func (f *fakeResolver) Lookup(_ context.Context, identifier string) (*models.CardRecord, error) {
	f.lookups = append(f.lookups, identifier)
	if f.err != nil {
		return nil, f.err
	}
	if rec, ok := f.cards[identifier]; ok {
		return rec, nil
	}
	return nil, apperrors.NewCardNotFoundError(identifier)
}

func (f *fakeResolver) Engagement(_ context.Context, cardID string) int64 {
	return f.counts[cardID]
}

type fakePhotos struct{ urls []string }

func (f *fakePhotos) Inline(_ context.Context, url string) *inliner.Image {
	f.urls = append(f.urls, url)
	return nil
}

type fakeFonts struct{ err error }

func (f fakeFonts) Fonts(context.Context) (assets.FontSet, error) {
	if f.err != nil {
		return assets.FontSet{}, f.err
	}
	return assets.BuiltinFontSet()
}

type panickingFonts struct{}

func (panickingFonts) Fonts(context.Context) (assets.FontSet, error) {
	panic("font table corrupted")
}

type pinger func(context.Context) error

func (p pinger) Ping(ctx context.Context) error { return p(ctx) }

func newFixture(t *testing.T, fonts FontProvider) (*fakeResolver, *fakePhotos, http.Handler) {
	t.Helper()
	res := &fakeResolver{
		cards: map[string]*models.CardRecord{
			"jane-doe": {
				ID:       "c1",
				Slug:     "jane-doe",
				Name:     models.StringPtr("Jane Doe"),
				Title:    models.StringPtr("Engineer"),
				Location: models.StringPtr("Berlin"),
			},
			"maria-silva": {
				ID:           "c2",
				Slug:         "maria-silva",
				Name:         models.StringPtr("Maria Silva"),
				Layout:       models.StringPtr("civic"),
				BallotNumber: models.StringPtr("13"),
				Party:        models.StringPtr("Party X"),
				Office:       models.StringPtr("Mayor"),
				Region:       models.StringPtr("Springfield"),
				ElectionYear: models.StringPtr("2024"),
				PhotoURL:     models.StringPtr("https://img.example/maria.jpg"),
			},
		},
		counts: map[string]int64{"c2": 7},
	}
	photos := &fakePhotos{}
	if fonts == nil {
		fonts = fakeFonts{}
	}
	cfg := &Config{LookupTimeout: time.Second, CacheControl: config.DefaultCacheControl}
	svc := NewService(cfg, res, photos, fonts, nil, logger.NewTestLogger(t))
	checks := map[string]Pinger{"store": pinger(func(context.Context) error { return nil })}
	return res, photos, NewHTTPHandler(svc, nil, logger.NewTestLogger(t), checks).Routes()
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorPayload {
	t.Helper()
	var body apperrors.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

// ==========================
// Tests
// ==========================

func TestServePNG_StandardCard(t *testing.T) {
	_, _, h := newFixture(t, nil)

	rec := get(t, h, "/og/jane-doe")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=3600, stale-while-revalidate=86400", rec.Header().Get("Cache-Control"))
	assert.Equal(t, rec.Header().Get("Content-Length"), strconv.Itoa(rec.Body.Len()))
	assert.NotEmpty(t, rec.Header().Get(headerRequestID))

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 1200, img.Bounds().Dx())
	assert.Equal(t, 630, img.Bounds().Dy())
}

func TestServePNG_AliasAndQueryRoutes(t *testing.T) {
	res, _, h := newFixture(t, nil)

	for _, path := range []string{"/api/og/jane-doe", "/og?identifier=jane-doe", "/api/og?slug=jane-doe", "/og/jane-doe.png"} {
		t.Run(path, func(t *testing.T) {
			rec := get(t, h, path)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		})
	}
	assert.Equal(t, []string{"jane-doe", "jane-doe", "jane-doe", "jane-doe.png", "jane-doe"}, res.lookups)
}

func TestServePNG_SlugEndingInPNG(t *testing.T) {
	res, _, h := newFixture(t, nil)
	res.cards["report.png"] = &models.CardRecord{ID: "c3", Slug: "report.png", Name: models.StringPtr("Report")}

	rec := get(t, h, "/og/report.png")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"report.png"}, res.lookups)

	res.lookups = nil
	rec = get(t, h, "/og/missing.png")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, []string{"missing.png", "missing"}, res.lookups)
}

func TestServePNG_TruncatedPhotoFallsBackToInitials(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 64, 64))))
	truncated := buf.Bytes()[:60]

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(truncated)
	}))
	defer srv.Close()

	res := &fakeResolver{cards: map[string]*models.CardRecord{
		"maria-silva": {
			ID:       "c2",
			Slug:     "maria-silva",
			Name:     models.StringPtr("Maria Silva"),
			Layout:   models.StringPtr("civic"),
			PhotoURL: models.StringPtr(srv.URL + "/maria.png"),
		},
	}}
	photos := inliner.New(commonhttp.NewClient(time.Second), time.Second, 1<<20, logger.NewTestLogger(t))
	svc := NewService(&Config{}, res, photos, fakeFonts{}, nil, logger.NewTestLogger(t))
	h := NewHTTPHandler(svc, nil, logger.NewTestLogger(t), nil).Routes()

	rec := get(t, h, "/og/maria-silva")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	out, err := svc.Layout(context.Background(), "maria-silva")
	require.NoError(t, err)
	assert.Equal(t, "MS", out.Tree.TextOf(layout.RoleInitialsText))
}

func TestServePNG_PanicIsStructuredRenderFailure(t *testing.T) {
	_, _, h := newFixture(t, panickingFonts{})

	rec := get(t, h, "/og/jane-doe")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	body := decodeError(t, rec)
	assert.Equal(t, apperrors.ErrCodeRenderFailure, body.Code)
	assert.Equal(t, rec.Header().Get(headerRequestID), body.RequestID)
}

func TestServePNG_CivicCardInlinesPhoto(t *testing.T) {
	_, photos, h := newFixture(t, nil)

	rec := get(t, h, "/og/maria-silva")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"https://img.example/maria.jpg"}, photos.urls)
}

func TestServePNG_Errors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		fonts      FontProvider
		lookupErr  error
		wantStatus int
		wantCode   apperrors.ErrorCode
	}{
		{"unknown card", "/og/unknown-slug", nil, nil, http.StatusNotFound, apperrors.ErrCodeCardNotFound},
		{"missing identifier", "/og", nil, nil, http.StatusBadRequest, apperrors.ErrCodeBadRequest},
		{"blank identifier", "/og?identifier=%20%20", nil, nil, http.StatusBadRequest, apperrors.ErrCodeBadRequest},
		{"font failure", "/og/jane-doe", fakeFonts{err: errors.New("cdn down")}, nil, http.StatusInternalServerError, apperrors.ErrCodeRenderFailure},
		{"lookup failure", "/og/jane-doe", nil, apperrors.NewLookupFailedError("slug", errors.New("conn reset")), http.StatusInternalServerError, apperrors.ErrCodeLookupFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _, h := newFixture(t, tt.fonts)
			res.err = tt.lookupErr

			rec := get(t, h, tt.path)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			body := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, rec.Header().Get(headerRequestID), body.RequestID)
		})
	}
}

func TestServePNG_InvalidIdentifierSkipsLookup(t *testing.T) {
	res, _, h := newFixture(t, nil)

	rec := get(t, h, "/og?identifier=%20")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, res.lookups)
}

func TestServeSVG(t *testing.T) {
	_, _, h := newFixture(t, nil)

	rec := get(t, h, "/og/maria-silva/svg")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, config.DefaultCacheControl, rec.Header().Get("Cache-Control"))
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "<?xml"))
	assert.Contains(t, body, "Maria Silva")
	assert.Contains(t, body, "Mayor • Springfield • 2024")
	assert.Contains(t, body, "7 endorsements")
}

func TestRequestIDPropagated(t *testing.T) {
	_, _, h := newFixture(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/og/unknown-slug", nil)
	req.Header.Set(headerRequestID, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get(headerRequestID))
	assert.Equal(t, "req-42", decodeError(t, rec).RequestID)
}

func TestHealthAndReady(t *testing.T) {
	_, _, h := newFixture(t, nil)

	rec := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = get(t, h, "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}

func TestReady_FailingDependency(t *testing.T) {
	svc := NewService(nil, &fakeResolver{}, &fakePhotos{}, fakeFonts{}, nil, nil)
	checks := map[string]Pinger{"store": pinger(func(context.Context) error { return errors.New("refused") })}
	h := NewHTTPHandler(svc, nil, nil, checks).Routes()

	rec := get(t, h, "/ready")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"not ready","failed":{"store":"refused"}}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	_, _, h := newFixture(t, nil)
	get(t, h, "/og/jane-doe")

	rec := get(t, h, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "preview_renders_total")
}

func TestService_LayoutResult(t *testing.T) {
	res := &fakeResolver{cards: map[string]*models.CardRecord{
		"x": {ID: "c9", Slug: "x", Name: models.StringPtr("  Ana Lima  ")},
	}}
	svc := NewService(&Config{}, res, &fakePhotos{}, fakeFonts{}, nil, nil)

	out, err := svc.Layout(context.Background(), "  x  ")

	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, res.lookups)
	assert.Equal(t, "Ana Lima", out.Snapshot.Name)
	assert.Equal(t, "AL", out.Tree.TextOf(layout.RoleInitialsText))
	assert.Nil(t, out.Bitmap)
	assert.NotEmpty(t, out.Document.Primitives)
}
