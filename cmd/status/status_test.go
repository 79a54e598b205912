package status

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/klytics/countboard/internal/dashboard"
	"github.com/klytics/countboard/internal/poller"
	"github.com/klytics/countboard/internal/watch"
)

func TestFetchStatusDecodesWatchEvents(t *testing.T) {
	at := time.Date(2024, 10, 1, 9, 30, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/status" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(dashboard.StatusView{
			Status: poller.Status{Cycles: 4, Failures: 1},
			Watch:  []watch.Event{{Time: at, Path: "/data/report.xlsx", Operation: "WRITE"}},
		})
	}))
	defer srv.Close()

	st, err := fetchStatus(strings.TrimPrefix(srv.URL, "http://"))
	if err != nil {
		t.Fatal(err)
	}
	if st.Cycles != 4 || st.Failures != 1 {
		t.Errorf("unexpected counters: %+v", st.Status)
	}
	if len(st.Watch) != 1 || st.Watch[0].Operation != "WRITE" || !st.Watch[0].Time.Equal(at) {
		t.Errorf("unexpected watch events: %+v", st.Watch)
	}
}

func TestFetchStatusHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	if _, err := fetchStatus(strings.TrimPrefix(srv.URL, "http://")); err == nil {
		t.Error("expected error for HTTP 404")
	}
}

func TestProcessAlive(t *testing.T) {
	if !processAlive(os.Getpid()) {
		t.Error("current process should be alive")
	}
}
