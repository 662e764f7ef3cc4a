package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type fakePreview struct {
	mu    sync.Mutex
	jpeg  []byte
	calls int
}

func (p *fakePreview) LatestJPEG() ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.jpeg == nil {
		return nil, false
	}
	return p.jpeg, true
}

// lockedRecorder guards the recorder body; the handler writes while the
// test polls.
type lockedRecorder struct {
	mu  sync.Mutex
	rec *httptest.ResponseRecorder
}

func (l *lockedRecorder) Header() http.Header { return l.rec.Header() }

func (l *lockedRecorder) Write(b []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rec.Write(b)
}

func (l *lockedRecorder) WriteHeader(code int) { l.rec.WriteHeader(code) }

func (l *lockedRecorder) body() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]byte(nil), l.rec.Body.Bytes()...)
}

func TestStreamHandler_WritesFrames(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0x01, 0x02, 0xFF, 0xD9}
	preview := &fakePreview{jpeg: jpeg}
	h := &StreamHandler{preview: preview, interval: time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/stream", nil).WithContext(ctx)
	rec := &lockedRecorder{rec: httptest.NewRecorder()}

	done := make(chan struct{})
	go func() {
		h.ServeHTTP(rec, req)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for bytes.Count(rec.body(), []byte("--frame")) < 2 {
		if time.Now().After(deadline) {
			t.Fatal("expected at least two frames")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if ct := rec.Header().Get("Content-Type"); ct != "multipart/x-mixed-replace; boundary=frame" {
		t.Errorf("unexpected Content-Type %s", ct)
	}
	body := rec.body()
	if !bytes.Contains(body, []byte("Content-Length: 6\r\n\r\n")) {
		t.Error("expected part headers with content length")
	}
	if !bytes.Contains(body, jpeg) {
		t.Error("expected jpeg payload in body")
	}
}

func TestStreamHandler_SkipsUntilPreviewReady(t *testing.T) {
	preview := &fakePreview{}
	h := &StreamHandler{preview: preview, interval: time.Millisecond}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stream", nil).WithContext(ctx))

	if rec.Body.Len() != 0 {
		t.Errorf("expected no frames, got %d bytes", rec.Body.Len())
	}
	preview.mu.Lock()
	defer preview.mu.Unlock()
	if preview.calls == 0 {
		t.Error("expected preview to be polled")
	}
}
