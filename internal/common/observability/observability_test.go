package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RecordsIntoRegistry(t *testing.T) {
	reg := promclient.NewRegistry()
	obs := New("card-preview-test", WithRegisterer(reg))
	defer obs.Shutdown()

	ctx := context.Background()
	obs.RecordRender(ctx, "civic", "ok")
	obs.RecordDuration(ctx, 42*time.Millisecond, "ok")

	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, f := range families {
		if strings.Contains(f.GetName(), "previews") && strings.Contains(f.GetName(), "rendered") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestStartSpan_NoopWithoutTracing(t *testing.T) {
	obs := New("card-preview-test", WithRegisterer(promclient.NewRegistry()))
	defer obs.Shutdown()

	ctx, span := obs.StartSpan(context.Background(), "layout")
	defer span.End()

	assert.NotNil(t, ctx)
	assert.False(t, span.SpanContext().IsValid())
}

func TestStartSpan_WithJaeger(t *testing.T) {
	obs := New("card-preview-test",
		WithRegisterer(promclient.NewRegistry()),
		WithJaeger("http://127.0.0.1:1/api/traces"),
	)

	_, span := obs.StartSpan(context.Background(), "resolve")
	assert.True(t, span.SpanContext().IsValid())
	span.End()
}
