// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"card-preview/internal/common/config"
	"card-preview/internal/common/database"
	apperrors "card-preview/internal/common/errors"
	commonhttp "card-preview/internal/common/http"
	"card-preview/internal/common/logger"
	"card-preview/internal/preview/engine"
	"card-preview/internal/preview/layout"
	"card-preview/internal/preview/server"
	"card-preview/internal/preview/store"
	"card-preview/pkg/registry"
)

// ==========================
// 1. Environment
// ==========================

type env struct {
	srv       *server.Server
	http      *httptest.Server
	fontHits  *atomic.Int64
	redis     *miniredis.Miniredis
	deadPhoto string
	livePhoto string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{fontHits: &atomic.Int64{}}

	// --- Font CDN ---
	fonts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.fontHits.Add(1)
		w.Header().Set("Content-Type", "font/ttf")
		switch r.URL.Path {
		case "/inter-400.ttf":
			w.Write(goregular.TTF)
		case "/inter-700.ttf":
			w.Write(gobold.TTF)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(fonts.Close)

	// --- Photo host ---
	photo := bluePNG(t)
	photos := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(photo)
	}))
	t.Cleanup(photos.Close)
	e.livePhoto = photos.URL + "/maria.png"

	dead := httptest.NewServer(http.NotFoundHandler())
	e.deadPhoto = dead.URL + "/jane.jpg"
	dead.Close()

	// --- Card store ---
	sqlClient, err := database.NewSQLite(":memory:", database.WithSchema(store.SQLiteSchema))
	require.NoError(t, err)
	t.Cleanup(func() { sqlClient.Close() })
	seed(t, sqlClient, e)

	// --- Domain cache ---
	e.redis = miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: e.redis.Addr()})
	t.Cleanup(func() { rdb.Close() })

	reg := &registry.FontRegistry{
		Version: "test",
		Fonts: []registry.FontSource{
			{Family: "Inter", Weight: registry.WeightRegular, URL: fonts.URL + "/inter-400.ttf", Format: "ttf"},
			{Family: "Inter", Weight: registry.WeightBold, URL: fonts.URL + "/inter-700.ttf", Format: "ttf"},
		},
	}
	require.NoError(t, reg.Validate())

	cfg := config.Default()
	cfg.Database.Driver = database.DriverSQLite
	cfg.Preview.DomainCacheTTL = 60000

	e.srv, err = server.New(cfg, server.Dependencies{
		SQL:      sqlClient,
		Redis:    &database.RedisClient{Client: rdb},
		Fetcher:  commonhttp.NewClient(5 * time.Second),
		Registry: reg,
	}, logger.NewTestLogger(t))
	require.NoError(t, err)

	e.http = httptest.NewServer(e.srv.Handler())
	t.Cleanup(e.http.Close)
	return e
}

func seed(t *testing.T, c *database.SQLClient, e *env) {
	t.Helper()
	_, err := c.DB.Exec(`
		INSERT INTO cards (id, slug, full_name, title, photo_url, is_published)
		VALUES ('c-jane', 'jane-doe', 'Jane Doe', 'CEO', ?, TRUE)`, e.deadPhoto)
	require.NoError(t, err)

	_, err = c.DB.Exec(`
		INSERT INTO cards (id, slug, full_name, layout, ballot_number, party, office, region, election_year, slogan, photo_url, is_published)
		VALUES ('c-maria', 'maria-silva', 'Maria Silva', 'civic', '13', 'Party X', 'Mayor', 'Springfield', '2024', 'For everyone', ?, TRUE)`, e.livePhoto)
	require.NoError(t, err)

	_, err = c.DB.Exec(`
		INSERT INTO cards (id, slug, full_name, is_published) VALUES ('c-draft', 'draft-card', 'Draft', FALSE);
		INSERT INTO custom_domains (domain, card_id) VALUES ('mariasilva.org', 'c-maria'), ('draft.example', 'c-draft');
	`)
	require.NoError(t, err)

	for i := 0; i < 7; i++ {
		_, err = c.DB.Exec(`INSERT INTO card_signals (card_id) VALUES ('c-maria')`)
		require.NoError(t, err)
	}
}

func bluePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetNRGBA(x, y, color.NRGBA{B: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func (e *env) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(e.http.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func assertPNG(t *testing.T, resp *http.Response, body []byte) {
	t.Helper()
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, config.DefaultCacheControl, resp.Header.Get("Cache-Control"))

	img, err := png.Decode(bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 1200, 630), img.Bounds())
}

// ==========================
// 2. Scenarios
// ==========================

func TestStandardCardWithUnreachablePhoto(t *testing.T) {
	e := newEnv(t)

	resp, body := e.get(t, "/og/jane-doe")
	assertPNG(t, resp, body)

	res, err := e.srv.Service.Layout(context.Background(), "jane-doe")
	require.NoError(t, err)
	tree := res.Tree

	assert.Equal(t, "JD", tree.TextOf(layout.RoleInitialsText))
	assert.Equal(t, "Jane Doe", tree.TextOf(layout.RoleName))
	assert.Equal(t, "CEO", tree.TextOf(layout.RoleTitle))
	assert.Nil(t, tree.Find(layout.RoleCompany))
	assert.Nil(t, tree.Find(layout.RoleLocation))
	assert.Nil(t, tree.Find(layout.RolePhoto))
	assert.Empty(t, res.Document.ByRole(layout.RolePhoto))
}

func TestCivicCardWithEndorsements(t *testing.T) {
	e := newEnv(t)

	resp, body := e.get(t, "/og/maria-silva")
	assertPNG(t, resp, body)

	res, err := e.srv.Service.Layout(context.Background(), "maria-silva")
	require.NoError(t, err)
	tree := res.Tree

	assert.EqualValues(t, 7, res.Snapshot.EngagementCount)
	assert.Equal(t, "13", tree.TextOf(layout.RoleBallotNumber))
	assert.Equal(t, "Party X", tree.TextOf(layout.RoleParty))
	assert.Equal(t, "Mayor • Springfield • 2024", tree.TextOf(layout.RoleCompositeLine))
	assert.Equal(t, "7 endorsements", tree.TextOf(layout.RoleEngagement))
	assert.NotNil(t, tree.Find(layout.RolePhoto))

	var pics []*engine.Picture
	for _, p := range res.Document.ByRole(layout.RolePhoto) {
		if pic, ok := p.(*engine.Picture); ok {
			pics = append(pics, pic)
		}
	}
	require.Len(t, pics, 1)
	assert.True(t, pics[0].Ellipse)
}

func TestUnknownIdentifierIsNotFound(t *testing.T) {
	e := newEnv(t)

	resp, body := e.get(t, "/og/unknown-slug")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	var payload apperrors.ErrorBody
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, apperrors.ErrCodeCardNotFound, payload.Error.Code)

	_, err := e.srv.Service.Render(context.Background(), "unknown-slug")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeCardNotFound))
}

func TestCustomDomainMatchesSlug(t *testing.T) {
	e := newEnv(t)

	bySlug, err := e.srv.Service.Layout(context.Background(), "maria-silva")
	require.NoError(t, err)
	byDomain, err := e.srv.Service.Layout(context.Background(), "MariaSilva.org")
	require.NoError(t, err)

	assert.Equal(t, bySlug.Snapshot, byDomain.Snapshot)
	assert.Equal(t, bySlug.Document.SVG(), byDomain.Document.SVG())

	cached, err := e.redis.Get("og:domain:mariasilva.org")
	require.NoError(t, err)
	assert.Equal(t, "c-maria", cached)
}

func TestUnpublishedCardIsNotFound(t *testing.T) {
	e := newEnv(t)

	for _, id := range []string{"draft-card", "draft.example"} {
		resp, _ := e.get(t, "/og/"+id)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, id)
	}
}

func TestMalformedIdentifierIsBadRequest(t *testing.T) {
	e := newEnv(t)

	resp, _ := e.get(t, "/og/-bad-")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = e.get(t, "/og")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFontsDownloadedOncePerProcess(t *testing.T) {
	e := newEnv(t)

	var wg sync.WaitGroup
	codes := make([]int, 12)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := []string{"jane-doe", "maria-silva", "mariasilva.org"}[i%3]
			resp, err := http.Get(fmt.Sprintf("%s/og/%s", e.http.URL, id))
			if err != nil {
				return
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			codes[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	for _, c := range codes {
		assert.Equal(t, http.StatusOK, c)
	}
	assert.EqualValues(t, 2, e.fontHits.Load(), "one download per weight")

	resp, body := e.get(t, "/og/jane-doe")
	assertPNG(t, resp, body)
	assert.EqualValues(t, 2, e.fontHits.Load())
}

func TestSVGEndpoint(t *testing.T) {
	e := newEnv(t)

	resp, body := e.get(t, "/og/maria-silva/svg")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(body), "Party X")
	assert.Contains(t, string(body), "data:image/png;base64,")
}
