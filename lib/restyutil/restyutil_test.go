package restyutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRedactURL(t *testing.T) {
	testCases := []struct {
		in       string
		expected string
	}{
		{
			in:       "https://example.com/x?mid=1",
			expected: "https://example.com/x?mid=1",
		},
		{
			in:       "https://www.googleapis.com/youtube/v3/channels?id=abc&key=secret",
			expected: "https://www.googleapis.com/youtube/v3/channels?id=abc&key=REDACTED",
		},
		{
			in:       "libsql://db.example.com?authToken=secret",
			expected: "libsql://db.example.com?authToken=REDACTED",
		},
	}
	for _, test := range testCases {
		require.Equal(t, test.expected, RedactURL(test.in))
	}
}

func TestClientRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		require.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{
		BaseURL: server.URL,
		Timeout: time.Second,
		Retries: 3,
	})
	client.SetRetryWaitTime(time.Millisecond)
	client.SetRetryMaxWaitTime(5 * time.Millisecond)

	dir := filepath.Join(t.TempDir(), "resty")
	output, err := NewFilesystemOutput(dir)
	require.NoError(t, err)
	InstrumentClient(client, nil, output)

	res, err := client.R().SetContext(context.Background()).Get("/")
	require.NoError(t, err)
	require.Equal(t, "ok", res.String())
	require.Equal(t, int32(3), atomic.LoadInt32(&calls))

	_, err = os.Stat(dir)
	require.NoError(t, err)
}
