package postversions

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"booru-sync/core/remote"
)

// fakeDanbooru serves post_versions.json from an in-memory history.
type fakeDanbooru struct {
	mu       sync.Mutex
	versions []map[string]any
	queries  []map[string]string
	status   int
	body     string
}

func newFakeDanbooru(t *testing.T, versions ...map[string]any) (*fakeDanbooru, remote.Config) {
	t.Helper()
	f := &fakeDanbooru{versions: versions}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, remote.Config{URL: srv.URL, Login: "alice", APIKey: "secret", TimeoutSeconds: 5}
}

func version(id, post, rev int) map[string]any {
	return map[string]any{
		"id":             id,
		"post_id":        post,
		"version":        rev,
		"added_tags":     []string{"tag_a", "tag_b"},
		"removed_tags":   []string{},
		"updater_id":     1,
		"updated_at":     "2020-01-02T03:04:05.000-00:00",
		"rating":         "s",
		"rating_changed": false,
		"parent_id":      nil,
		"parent_changed": false,
		"source":         "",
		"source_changed": false,
	}
}

func (f *fakeDanbooru) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	q := r.URL.Query()
	seen := map[string]string{}
	for k := range q {
		seen[k] = q.Get(k)
	}
	f.queries = append(f.queries, seen)

	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(f.body))
		return
	}
	if r.URL.Path != "/post_versions.json" || q.Get("api_key") != "secret" {
		http.Error(w, `{"success":false}`, http.StatusUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	out := []map[string]any{}
	for _, v := range f.versions {
		if f.matches(q, v) {
			out = append(out, v)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	_ = json.NewEncoder(w).Encode(out)
}

func (f *fakeDanbooru) matches(q map[string][]string, v map[string]any) bool {
	if ids, ok := q["search[id]"]; ok {
		id := v["id"].(int)
		for _, term := range strings.Split(ids[0], ",") {
			if lo, hi, ok := strings.Cut(term, "..."); ok {
				a, _ := strconv.Atoi(lo)
				b, _ := strconv.Atoi(hi)
				if id >= a && id < b {
					return true
				}
				continue
			}
			if n, _ := strconv.Atoi(term); n == id {
				return true
			}
		}
		return false
	}
	post, _ := strconv.Atoi(firstOf(q, "search[post_id]"))
	rev, _ := strconv.Atoi(firstOf(q, "search[version]"))
	return v["post_id"].(int) == post && v["version"].(int) == rev
}

func firstOf(q map[string][]string, key string) string {
	if v := q[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func (f *fakeDanbooru) requests() []map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]string(nil), f.queries...)
}
