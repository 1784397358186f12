package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/explore-events/internal/config"
)

func TestNewProvider_None(t *testing.T) {
	tp, err := NewProvider(context.Background(), config.Tracing{Exporter: config.TracingNone}, "test", nil)
	require.NoError(t, err)
	assert.Nil(t, tp)
}

func TestNewProvider_Stdout(t *testing.T) {
	var buf bytes.Buffer
	tp, err := NewProvider(context.Background(), config.Tracing{Exporter: config.TracingStdout}, "test", &buf)
	require.NoError(t, err)
	require.NotNil(t, tp)

	_, span := tp.Tracer("test").Start(context.Background(), "stats.Stats")
	span.End()
	require.NoError(t, tp.Shutdown(context.Background()))

	assert.Contains(t, buf.String(), "stats.Stats")
	assert.Contains(t, buf.String(), "service.name")
}

func TestNewProvider_UnknownExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), config.Tracing{Exporter: "zipkin"}, "test", nil)
	assert.ErrorContains(t, err, "zipkin")
}
