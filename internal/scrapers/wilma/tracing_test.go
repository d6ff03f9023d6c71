package wilma

import (
	"context"
	"testing"
	"wilma-backend/internal/components/telemetry"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestClientSpans(t *testing.T) {
	res, err := telemetry.Resource("wilma-backend-test", attribute.String("test.name", t.Name()))
	require.NoError(t, err)
	tel, exporter := telemetry.SetupRecording(res)
	t.Cleanup(func() {
		tel.Shutdown(context.Background())
		otel.SetTracerProvider(noop.NewTracerProvider())
	})

	portal := newFakePortal(t)
	client, _ := newTestClient(t)
	s := authenticatedSession(t, portal)

	_, err = client.GetMessages(context.Background(), s)
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	span := spans[0]
	require.Equal(t, "http GET", span.Name)
	require.NotEqual(t, codes.Error, span.Status.Code)
	require.Contains(t, span.Attributes, attribute.Int("http.status_code", 200))

	service, ok := span.Resource.Set().Value(semconv.ServiceNameKey)
	require.True(t, ok)
	require.Equal(t, "wilma-backend-test", service.AsString())

	exporter.Reset()
	portal.server.Close()
	_, err = client.GetMessages(context.Background(), s)
	require.ErrorIs(t, err, ErrFetchFailed)

	spans = exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Equal(t, codes.Error, spans[0].Status.Code)
}
