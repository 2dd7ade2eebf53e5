package metricsrv

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/DingusDevOrg/cubeb/pkg/audio"
	"github.com/DingusDevOrg/cubeb/pkg/cubeb"
)

func TestHandlerExportsStreamMetrics(t *testing.T) {
	p, err := NewProvider()
	if err != nil {
		t.Fatal(err)
	}
	defer p.Shutdown(context.Background())

	c, err := cubeb.Init("metrics", cubeb.WithBackend("null"), cubeb.WithMeterProvider(p))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Destroy()
	params := audio.StreamParams{Format: audio.FormatS16LE, Rate: 48000, Channels: 1}
	s, err := c.StreamInit("tone", params, 480, func(_ *cubeb.Stream, _ any, buf []byte, frames int) (int, error) {
		clear(buf)
		return frames, nil
	}, func(*cubeb.Stream, any, cubeb.State) error { return nil }, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Destroy()

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, "cubeb_streams_active") {
		t.Errorf("expected cubeb_streams_active in output:\n%s", body)
	}
}

func TestServeStopsWithContext(t *testing.T) {
	p, err := NewProvider()
	if err != nil {
		t.Fatal(err)
	}
	defer p.Shutdown(context.Background())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.serve(ctx, ln, zaptest.NewLogger(t)) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
