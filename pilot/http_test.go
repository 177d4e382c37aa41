package pilot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type: got %q", ct)
	}
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestHandler(t *testing.T) {
	p, _ := newTestPilot(t, testConfig(), editorPage())
	rep, err := p.Publish(context.Background(), testPost)
	if err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(p.Handler())
	defer srv.Close()

	var health map[string]string
	if code := getJSON(t, srv.URL+"/health", &health); code != 200 || health["status"] != "ok" {
		t.Errorf("health: %d %v", code, health)
	}

	var runs []Run
	if code := getJSON(t, srv.URL+"/api/runs?limit=5", &runs); code != 200 || len(runs) != 1 {
		t.Fatalf("runs: %d, %d runs", code, len(runs))
	}
	if runs[0].ID != rep.RunID || runs[0].Outcomes != nil {
		t.Errorf("listed run: %+v", runs[0])
	}

	var run Run
	if code := getJSON(t, srv.URL+"/api/runs/"+rep.RunID, &run); code != 200 || len(run.Outcomes) != 8 {
		t.Errorf("run: %d, %d outcomes", code, len(run.Outcomes))
	}

	var e map[string]string
	if code := getJSON(t, srv.URL+"/api/runs/missing", &e); code != 404 || e["error"] == "" {
		t.Errorf("missing run: %d %v", code, e)
	}

	var stats []MatchStat
	if code := getJSON(t, srv.URL+"/api/matches", &stats); code != 200 || len(stats) == 0 {
		t.Errorf("matches: %d, %d stats", code, len(stats))
	}

	var sel map[string]json.RawMessage
	if code := getJSON(t, srv.URL+"/api/selectors", &sel); code != 200 || sel["title"] == nil {
		t.Errorf("selectors: %d, keys %d", code, len(sel))
	}
}

func TestHandler_NoStore(t *testing.T) {
	p, err := New(testConfig(), Options{StorePath: "-"})
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(p.Handler())
	defer srv.Close()

	if code := getJSON(t, srv.URL+"/api/runs", nil); code != http.StatusServiceUnavailable {
		t.Errorf("runs without store: got %d", code)
	}
}

func TestHandler_EmptyLists(t *testing.T) {
	p, _ := newTestPilot(t, testConfig(), editorPage())
	srv := httptest.NewServer(p.Handler())
	defer srv.Close()

	var runs []Run
	if code := getJSON(t, srv.URL+"/api/runs", &runs); code != 200 || runs == nil || len(runs) != 0 {
		t.Errorf("runs: %d %v", code, runs)
	}
}

func TestHandler_Headers(t *testing.T) {
	p, _ := newTestPilot(t, testConfig(), editorPage())
	srv := httptest.NewServer(p.Handler())
	defer srv.Close()

	resp, err := http.Head(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("HEAD /health: got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing nosniff header")
	}
}
