package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupWithoutExporters(t *testing.T) {
	tel, err := Setup(context.Background(), "test:telemetry", Config{})
	require.NoError(t, err)
	require.NotNil(t, tel.TracerProvider)
	require.NotNil(t, tel.MeterProvider)

	_, span := Tracer("test").Start(context.Background(), "span")
	span.End()

	require.NoError(t, tel.Shutdown(context.Background()))
}

func TestSetupForTestingOnce(t *testing.T) {
	cleanup := SetupForTesting(t, "test:once")
	defer cleanup()
	again := SetupForTesting(t, "test:once")
	again()
}

func TestInitSlog(t *testing.T) {
	previous := slog.Default()
	defer slog.SetDefault(previous)

	var buf bytes.Buffer
	InitSlogTo(&buf, false)
	slog.Debug("hidden")
	slog.Info("shown", "n", 1)
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")

	buf.Reset()
	InitSlogTo(&buf, true)
	slog.Debug("visible")
	require.Contains(t, buf.String(), "visible")
}
