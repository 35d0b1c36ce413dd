package dinahosting

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// fakeAPI emulates the Dinahosting API for a single account.
type fakeAPI struct {
	t        *testing.T
	username string
	password string
	zones    map[string][]map[string]string

	mu    sync.Mutex
	calls []string
	last  map[string]string
}

func newFakeAPI(t *testing.T, zones ...string) *fakeAPI {
	f := &fakeAPI{
		t:        t,
		username: "foo",
		password: "bar",
		zones:    make(map[string][]map[string]string),
	}
	for _, z := range zones {
		f.zones[z] = nil
	}
	return f
}

func (f *fakeAPI) server() *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(f.handle))
	f.t.Cleanup(srv.Close)
	return srv
}

func (f *fakeAPI) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) lastParams() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func (f *fakeAPI) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	query := r.URL.Query()
	command := query.Get("command")
	f.calls = append(f.calls, command)
	f.last = map[string]string{}
	for k := range query {
		f.last[k] = query.Get(k)
	}

	if query.Get("responseType") != "Json" {
		f.t.Errorf("expected responseType=Json, got %q", query.Get("responseType"))
	}

	user, pass, ok := r.BasicAuth()
	if !ok || user != f.username || pass != f.password {
		writeEnvelope(w, CodeAuthentication, command, nil, "Authentication error")
		return
	}

	domain := query.Get("domain")
	records, exists := f.zones[domain]
	if !exists {
		writeEnvelope(w, CodeObjectDoesNotExist, command, nil, "Object does not exist")
		return
	}

	switch command {
	case commandZoneGetAll:
		writeEnvelope(w, CodeSuccess, command, records, "")
	case commandZoneAddTXT:
		f.zones[domain] = append(records, map[string]string{
			"hostname": query.Get("hostname"),
			"type":     "TXT",
			"text":     query.Get("text"),
		})
		writeEnvelope(w, CodeSuccess, command, nil, "")
	case commandZoneDeleteTXT:
		for i, rec := range records {
			if rec["hostname"] == query.Get("hostname") && rec["text"] == query.Get("value") {
				f.zones[domain] = append(records[:i], records[i+1:]...)
				writeEnvelope(w, CodeSuccess, command, nil, "")
				return
			}
		}
		writeEnvelope(w, CodeObjectDoesNotExist, command, nil, "Object does not exist")
	default:
		writeEnvelope(w, 2000, command, nil, "Unknown command")
	}
}

func writeEnvelope(w http.ResponseWriter, code int, command string, data any, message string) {
	body := map[string]any{
		"trId":         "test-tr",
		"responseCode": code,
		"command":      command,
	}
	if code == CodeSuccess {
		body["message"] = "Success."
		if data != nil {
			body["data"] = data
		}
	} else {
		body["errors"] = []map[string]any{{"code": code, "message": message}}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}
