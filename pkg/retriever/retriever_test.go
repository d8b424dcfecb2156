package retriever

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/owenleonard11/chronam-utils/pkg/chronam"
	"github.com/owenleonard11/chronam-utils/pkg/config"
	"github.com/owenleonard11/chronam-utils/pkg/download"
	"github.com/owenleonard11/chronam-utils/pkg/query"
)

// archiveStub serves both the search endpoint and file downloads
type archiveStub struct {
	totalItems int

	mu        sync.Mutex
	failPages map[int]bool
}

func (a *archiveStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, chronam.FileEndpoint) {
		fmt.Fprint(w, "file contents")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	rows, _ := strconv.Atoi(r.URL.Query().Get("rows"))

	a.mu.Lock()
	fail := a.failPages[page]
	a.mu.Unlock()
	if fail {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	start := (page - 1) * rows
	end := start + rows
	if start > a.totalItems {
		start = a.totalItems
	}
	if end > a.totalItems {
		end = a.totalItems
	}

	items := make([]map[string]interface{}, 0, end-start)
	for i := start; i < end; i++ {
		items = append(items, map[string]interface{}{
			"id":    fmt.Sprintf("/lccn/sn00000001/1900-01-01/ed-1/seq-%d/", i+1),
			"title": "Test gazette.",
		})
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"totalItems": a.totalItems,
		"startIndex": start + 1,
		"endIndex":   end,
		"items":      items,
	})
}

func (a *archiveStub) setFail(page int, fail bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failPages == nil {
		a.failPages = make(map[int]bool)
	}
	a.failPages[page] = fail
}

func newTestRetriever(t *testing.T, stub *archiveStub) *Retriever {
	t.Helper()
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	server := httptest.NewServer(stub)
	t.Cleanup(server.Close)

	cfg := config.DefaultConfig()
	cfg.Download.DataDirectory = t.TempDir()
	cfg.Download.ConcurrentDownloads = 2
	cfg.Query.PageSize = 10
	cfg.Retry.MaxAttempts = 2
	cfg.Retry.BaseDelay = time.Millisecond
	cfg.Retry.MaxDelay = 5 * time.Millisecond
	cfg.Retry.JitterFactor = 0
	// Wide budgets so tests never block on the limiter
	cfg.RateLimit.MaxCalls = 1000
	cfg.RateLimit.CrawlMaxCalls = 1000

	r, err := New(cfg)
	require.NoError(t, err)
	r.Client().SetBaseURL(server.URL)
	return r
}

func mustQuery(t *testing.T, desc string) *chronam.Query {
	t.Helper()
	q, err := chronam.NewQuery(chronam.Query{AndText: []string{"homestead"}, Desc: desc})
	require.NoError(t, err)
	return q
}

func TestSearchAndDownload(t *testing.T) {
	stub := &archiveStub{totalItems: 15}
	r := newTestRetriever(t, stub)

	states, err := r.Search(context.Background(), []*chronam.Query{mustQuery(t, "run-a")}, SearchOptions{})
	require.NoError(t, err)
	require.Len(t, states, 1)
	require.Equal(t, query.StatusComplete, states[0].Status)
	assert.Len(t, states[0].Results, 15)

	targets, err := r.Download(context.Background(), states[0].IDs(), chronam.FileText)
	require.NoError(t, err)
	for _, target := range targets {
		assert.Equal(t, download.TargetDone, target.Status)
	}

	done, total := r.CheckDownloads(states[0].IDs(), chronam.FileText)
	assert.Equal(t, 15, done)
	assert.Equal(t, 15, total)

	// The other kinds have not been fetched
	done, _ = r.CheckDownloads(states[0].IDs(), chronam.FilePDF)
	assert.Zero(t, done)
}

func TestSearchResumeFromCheckpoint(t *testing.T) {
	stub := &archiveStub{totalItems: 25}
	stub.setFail(3, true)
	r := newTestRetriever(t, stub)

	queries := []*chronam.Query{mustQuery(t, "run-b")}

	states, err := r.Search(context.Background(), queries, SearchOptions{})
	require.NoError(t, err)
	require.Equal(t, query.StatusFailed, states[0].Status)
	assert.Len(t, states[0].Results, 20)

	// A fresh Search with Resume picks up the checkpoint from the failed run
	stub.setFail(3, false)
	states, err = r.Search(context.Background(), queries, SearchOptions{Resume: true})
	require.NoError(t, err)
	require.Equal(t, query.StatusComplete, states[0].Status)
	assert.Len(t, states[0].Results, 25)
}

func TestSearchForceRestartDiscardsCheckpoint(t *testing.T) {
	stub := &archiveStub{totalItems: 25}
	stub.setFail(3, true)
	r := newTestRetriever(t, stub)

	queries := []*chronam.Query{mustQuery(t, "run-c")}

	_, err := r.Search(context.Background(), queries, SearchOptions{})
	require.NoError(t, err)

	stub.setFail(3, false)
	states, err := r.Search(context.Background(), queries, SearchOptions{Resume: true, ForceRestart: true})
	require.NoError(t, err)
	require.Equal(t, query.StatusComplete, states[0].Status)
	assert.Len(t, states[0].Results, 25)
}
