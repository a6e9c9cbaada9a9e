package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"corview/internal/catalog"
	"corview/internal/imaging"
	"corview/internal/render"
	"corview/internal/session"
)

func testServer(t *testing.T, cat *catalog.Store) (*Server, *session.Session, string) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	sess := session.New(render.New(render.Options{Alpha: 255}, log), cat, log)
	dir := t.TempDir()
	return NewServer(":0", dir, sess, cat, log), sess, dir
}

func attachFixtures(t *testing.T, sess *session.Session) string {
	t.Helper()
	frames := make([]imaging.Frame, 6)
	for i := range frames {
		frames[i] = imaging.Frame{Width: 16, Height: 16, Pix: make([]uint8, 256)}
	}
	vol, err := imaging.NewVolume("scan.tif", frames)
	if err != nil {
		t.Fatalf("NewVolume failed: %v", err)
	}
	sess.AttachVolume(vol)

	sl, err := imaging.NewSlice("histo.png", 16, 16, make([]uint8, 16*16*3), 3, 6)
	if err != nil {
		t.Fatalf("NewSlice failed: %v", err)
	}
	id, err := sess.AddSlice(sl)
	if err != nil {
		t.Fatalf("AddSlice failed: %v", err)
	}
	return id
}

func TestHealth(t *testing.T) {
	srv, _, _ := testServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestVolumeEndpoint(t *testing.T) {
	srv, sess, _ := testServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/volume")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 before load, got %d", resp.StatusCode)
	}

	attachFixtures(t, sess)

	resp, err = http.Get(ts.URL + "/api/volume")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var info volumeInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if info.File != "scan.tif" || info.Frames != 6 || info.Width != 16 {
		t.Fatalf("unexpected volume info %+v", info)
	}
}

func TestVolumeLoadRejectsBadBody(t *testing.T) {
	srv, _, _ := testServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/volume", "application/json", bytes.NewBufferString(`{}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestSliceListAndClear(t *testing.T) {
	srv, sess, _ := testServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	id := attachFixtures(t, sess)

	resp, err := http.Get(ts.URL + "/api/slices")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var entries []sliceEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	resp.Body.Close()
	if len(entries) != 1 || entries[0].ID != id || entries[0].Position != 3 {
		t.Fatalf("unexpected entries %+v", entries)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/slices", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	if len(sess.Slices()) != 0 {
		t.Fatalf("registry not cleared")
	}
}

func TestRenderEndpoint(t *testing.T) {
	srv, sess, dir := testServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	id := attachFixtures(t, sess)

	body, _ := json.Marshal(renderRequest{ID: id, Output: "compare"})
	resp, err := http.Post(ts.URL+"/api/render", "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var rr renderResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if rr.URL != "/artifacts/compare.html" {
		t.Fatalf("unexpected artifact URL %s", rr.URL)
	}
	if _, err := os.Stat(filepath.Join(dir, "compare.html")); err != nil {
		t.Fatalf("artifact not written: %v", err)
	}

	// The artifact route serves it back.
	resp2, err := http.Get(ts.URL + rr.URL)
	if err != nil {
		t.Fatalf("artifact fetch failed: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 fetching artifact, got %d", resp2.StatusCode)
	}
}

func TestRenderUnknownSlice(t *testing.T) {
	srv, sess, _ := testServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	attachFixtures(t, sess)

	body, _ := json.Marshal(renderRequest{ID: "img-9999"})
	resp, err := http.Post(ts.URL+"/api/render", "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestRenderOutOfRangeFrame(t *testing.T) {
	srv, sess, _ := testServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	id := attachFixtures(t, sess)

	frame := 99
	body, _ := json.Marshal(renderRequest{ID: id, Frame: &frame})
	resp, err := http.Post(ts.URL+"/api/render", "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	cat, err := catalog.New(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("catalog open failed: %v", err)
	}
	defer cat.Close()

	srv, sess, _ := testServer(t, cat)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	id := attachFixtures(t, sess)
	body, _ := json.Marshal(renderRequest{ID: id})
	resp, err := http.Post(ts.URL+"/api/render", "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/api/history?limit=5")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var recs []catalog.RenderRecord
	if err := json.NewDecoder(resp.Body).Decode(&recs); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(recs) != 1 || recs[0].Status != "completed" {
		t.Fatalf("unexpected history %+v", recs)
	}
}

func TestHistoryWithoutCatalog(t *testing.T) {
	srv, _, _ := testServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/history")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}
