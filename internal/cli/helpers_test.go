package cli

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/pfrederiksen/staatsoper-tickets/internal/event"
)

var target = event.Date{Year: 2026, Month: time.October, Day: 20}

const listHTML = `<html><body><ul id="eventListUl">
<li><div class="evt-event"><h2>Tosca</h2>
  <span id="event-date-1">Di. 20.10.2026</span><span id="event-time-1">19:00</span></div>
  <a href="/webshop/webticket/selectseat?eventId=4711" title="Weiterleitung zur Platzauswahl">Karten</a></li>
<li><div class="evt-event"><h2>Carmen</h2>
  <span id="event-date-2">Di. 20.10.2026</span><span id="event-time-2">11:00</span></div>
  <a href="/webshop/webticket/selectseat?eventId=4712">Ausverkauft</a></li>
<li><div class="evt-event"><h2>Aida</h2>
  <span id="event-date-3">Mi. 21.10.2026</span><span id="event-time-3">19:00</span></div>
  <a href="/webshop/webticket/selectseat?eventId=4713">Karten</a></li>
</ul></body></html>`

const seatHTML = `<html><body>
<div id="category_1"><h2 id="seatgroup-1">Kategorie 1</h2><span>Ausverkauft</span></div>
<div id="category_3"><h2 id="seatgroup-3">Kategorie 3</h2><input type="number" data-max="4"></div>
<div id="category_5"><h2 id="seatgroup-5">Kategorie 5</h2><input type="number" data-max="2"></div>
</body></html>`

const emptyListHTML = `<html><body><ul id="eventListUl">
<li><div class="evt-event"><h2>Aida</h2>
  <span id="event-date-3">Mi. 21.10.2026</span><span id="event-time-3">19:00</span></div>
  <a href="/webshop/webticket/selectseat?eventId=4713">Karten</a></li>
</ul></body></html>`

// shopServer serves listHTML at /list and seatHTML for every seat selection request
func shopServer(t *testing.T, list string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		switch r.URL.Path {
		case "/list":
			fmt.Fprint(w, list)
		case "/seat":
			fmt.Fprint(w, seatHTML)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

// shopConfig writes a config file pointing the venue at server
func shopConfig(t *testing.T, server *httptest.Server, extra string) string {
	t.Helper()
	content := fmt.Sprintf(`venue:
  origin: %[1]s
  list_url: %[1]s/list
  seat_url_template: "%[1]s/seat?eventId=%%s"
http:
  timeout: 5s
  retries: 0
%[2]s`, server.URL, extra)
	return writeFile(t, "config.yaml", content)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

// isolateEnv keeps the developer's home config and credentials out of the test
func isolateEnv(t *testing.T) {
	t.Helper()
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })
	t.Setenv("HOME", t.TempDir())
	for _, env := range []string{
		"TELEGRAM_TOKEN", "TELEGRAM_CHAT_ID",
		"TWITTER_API_KEY", "TWITTER_API_SECRET", "TWITTER_ACCESS_TOKEN", "TWITTER_ACCESS_SECRET",
		"PUSHGATEWAY_URL",
	} {
		t.Setenv(env, "")
	}
}

// runCLI executes the root command and returns exit code, stdout and stderr
func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	code := execute(cmd, &stderr)
	return code, stdout.String(), stderr.String()
}

func sampleItems() []event.ReportItem {
	vienna, _ := time.LoadLocation("Europe/Vienna")
	return []event.ReportItem{
		{
			Event: event.Event{
				Title:        "Tosca",
				DateText:     "Di. 20.10.2026",
				TimeText:     "19:00",
				ScheduledAt:  time.Date(2026, 10, 20, 19, 0, 0, 0, vienna),
				TicketStatus: "Karten",
				PurchaseURL:  "https://tickets.wiener-staatsoper.at/webshop/webticket/selectseat?eventId=4711",
				EventID:      "4711",
			},
			Available:  true,
			Categories: event.NewCategorySet(3, 5),
		},
		{
			Event: event.Event{
				Title:        "ballett: Kinderworkshop",
				DateText:     "Di. 20.10.2026",
				TimeText:     "11:00",
				ScheduledAt:  time.Date(2026, 10, 20, 11, 0, 0, 0, vienna),
				TicketStatus: "Restkarten",
				PurchaseURL:  "https://tickets.wiener-staatsoper.at/webshop/webticket/selectseat?eventId=4720",
				EventID:      "4720",
			},
			Available:  true,
			Categories: event.NewCategorySet(),
		},
	}
}

func containsAll(t *testing.T, s string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(s, w) {
			t.Errorf("output missing %q:\n%s", w, s)
		}
	}
}
