package main

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStopMetricsIdle(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := &http.Server{Handler: http.NotFoundHandler(), ReadHeaderTimeout: time.Second}
	go srv.Serve(ln)

	var buf bytes.Buffer
	assert.NoError(t, stopMetrics(srv, time.Second, zerolog.New(&buf)))
	assert.Empty(t, buf.String())
}

func TestStopMetricsLogsTimeout(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})
	srv := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			close(entered)
			<-release
		}),
		ReadHeaderTimeout: time.Second,
	}
	go srv.Serve(ln)
	defer srv.Close()
	defer close(release)

	go func() {
		resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
		if err == nil {
			resp.Body.Close()
		}
	}()
	<-entered

	var buf bytes.Buffer
	err = stopMetrics(srv, 10*time.Millisecond, zerolog.New(&buf))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, buf.String(), "metrics server shutdown")
}
