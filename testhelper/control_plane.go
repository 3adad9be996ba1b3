package testhelper

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	toxiproxy "github.com/Shopify/toxics/client"
)

// Request is one call observed by a ControlPlane.
type Request struct {
	Method string
	Path   string
	Body   string
	At     time.Time
}

func (r Request) String() string {
	return r.Method + " " + r.Path
}

// Hook runs before a request is handled. It may block. A non-zero status
// short-circuits the request with that status code.
type Hook func(r *http.Request) int

// ControlPlane is an in-memory stand-in for the toxiproxy HTTP API. It keeps
// proxies and toxics the way the real server does and records every request
// it receives, in arrival order.
type ControlPlane struct {
	sync.Mutex

	URL string

	server   *httptest.Server
	proxies  map[string]*toxiproxy.Proxy
	requests []Request
	hook     Hook
}

// NewControlPlane starts a control plane with the given proxies, all enabled.
// It is shut down when the test finishes.
func NewControlPlane(t testing.TB, proxies ...string) *ControlPlane {
	cp := &ControlPlane{
		proxies: make(map[string]*toxiproxy.Proxy),
	}
	for _, name := range proxies {
		cp.proxies[name] = &toxiproxy.Proxy{
			Name:         name,
			Listen:       "127.0.0.1:0",
			Upstream:     "127.0.0.1:1883",
			Enabled:      true,
			ActiveToxics: make(toxiproxy.Toxics, 0),
		}
	}

	r := mux.NewRouter()
	r.HandleFunc("/version", cp.version).Methods("GET")
	r.HandleFunc("/proxies", cp.proxyIndex).Methods("GET")
	r.HandleFunc("/proxies/{proxy}", cp.proxyUpdate).Methods("POST")
	r.HandleFunc("/proxies/{proxy}/toxics", cp.toxicIndex).Methods("GET")
	r.HandleFunc("/proxies/{proxy}/toxics", cp.toxicCreate).Methods("POST")
	r.HandleFunc("/proxies/{proxy}/toxics/{toxic}", cp.toxicUpdate).Methods("POST")
	r.HandleFunc("/proxies/{proxy}/toxics/{toxic}", cp.toxicDelete).Methods("DELETE")
	r.Use(cp.record)

	cp.server = httptest.NewServer(r)
	cp.URL = cp.server.URL
	t.Cleanup(cp.server.Close)

	return cp
}

// SetHook installs a hook run before every subsequent request.
func (cp *ControlPlane) SetHook(hook Hook) {
	cp.Lock()
	defer cp.Unlock()
	cp.hook = hook
}

// Requests returns a copy of the requests received so far.
func (cp *ControlPlane) Requests() []Request {
	cp.Lock()
	defer cp.Unlock()
	return append([]Request(nil), cp.requests...)
}

// Calls returns the received requests as "METHOD /path" strings.
func (cp *ControlPlane) Calls() []string {
	requests := cp.Requests()
	calls := make([]string, len(requests))
	for i, r := range requests {
		calls[i] = r.String()
	}
	return calls
}

// Reset forgets the recorded requests.
func (cp *ControlPlane) Reset() {
	cp.Lock()
	defer cp.Unlock()
	cp.requests = nil
}

// Toxics returns a copy of the toxics on proxy.
func (cp *ControlPlane) Toxics(proxy string) toxiproxy.Toxics {
	cp.Lock()
	defer cp.Unlock()
	p, ok := cp.proxies[proxy]
	if !ok {
		return nil
	}
	return append(toxiproxy.Toxics(nil), p.ActiveToxics...)
}

// Toxic returns a copy of the named toxic, or nil.
func (cp *ControlPlane) Toxic(proxy, name string) *toxiproxy.Toxic {
	for _, toxic := range cp.Toxics(proxy) {
		if toxic.Name == name {
			toxic := toxic
			return &toxic
		}
	}
	return nil
}

// PutToxic attaches a toxic directly, bypassing the API.
func (cp *ControlPlane) PutToxic(proxy string, toxic toxiproxy.Toxic) {
	cp.Lock()
	defer cp.Unlock()
	p := cp.proxies[proxy]
	p.ActiveToxics = append(p.ActiveToxics, toxic)
}

func (cp *ControlPlane) Enabled(proxy string) bool {
	cp.Lock()
	defer cp.Unlock()
	p, ok := cp.proxies[proxy]
	return ok && p.Enabled
}

func (cp *ControlPlane) SetEnabled(proxy string, enabled bool) {
	cp.Lock()
	defer cp.Unlock()
	cp.proxies[proxy].Enabled = enabled
}

func (cp *ControlPlane) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		cp.Lock()
		cp.requests = append(cp.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Body:   strings.TrimSpace(string(body)),
			At:     time.Now(),
		})
		hook := cp.hook
		cp.Unlock()

		if hook != nil {
			if status := hook(r); status != 0 {
				apiError(w, "injected failure", status)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (cp *ControlPlane) version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": "2.9.0"})
}

func (cp *ControlPlane) proxyIndex(w http.ResponseWriter, r *http.Request) {
	cp.Lock()
	defer cp.Unlock()
	writeJSON(w, http.StatusOK, cp.proxies)
}

func (cp *ControlPlane) proxyUpdate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		apiError(w, "bad request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	cp.Lock()
	defer cp.Unlock()
	p, ok := cp.proxies[mux.Vars(r)["proxy"]]
	if !ok {
		apiError(w, "proxy not found", http.StatusNotFound)
		return
	}
	if input.Enabled != nil {
		p.Enabled = *input.Enabled
	}
	writeJSON(w, http.StatusOK, p)
}

func (cp *ControlPlane) toxicIndex(w http.ResponseWriter, r *http.Request) {
	cp.Lock()
	defer cp.Unlock()
	p, ok := cp.proxies[mux.Vars(r)["proxy"]]
	if !ok {
		apiError(w, "proxy not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p.ActiveToxics)
}

func (cp *ControlPlane) toxicCreate(w http.ResponseWriter, r *http.Request) {
	toxic := toxiproxy.Toxic{Stream: "downstream", Toxicity: 1.0}
	if err := json.NewDecoder(r.Body).Decode(&toxic); err != nil {
		apiError(w, "bad request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if toxic.Stream != "upstream" && toxic.Stream != "downstream" {
		apiError(w, "stream was invalid, can be either upstream or downstream", http.StatusBadRequest)
		return
	}
	if toxic.Name == "" {
		toxic.Name = fmt.Sprintf("%s_%s", toxic.Type, toxic.Stream)
	}

	cp.Lock()
	defer cp.Unlock()
	p, ok := cp.proxies[mux.Vars(r)["proxy"]]
	if !ok {
		apiError(w, "proxy not found", http.StatusNotFound)
		return
	}
	if p.Toxic(toxic.Name) != nil {
		apiError(w, "toxic already exists", http.StatusConflict)
		return
	}
	p.ActiveToxics = append(p.ActiveToxics, toxic)
	writeJSON(w, http.StatusOK, toxic)
}

func (cp *ControlPlane) toxicUpdate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Attributes toxiproxy.Attributes `json:"attributes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		apiError(w, "bad request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	cp.Lock()
	defer cp.Unlock()
	vars := mux.Vars(r)
	p, ok := cp.proxies[vars["proxy"]]
	if !ok {
		apiError(w, "proxy not found", http.StatusNotFound)
		return
	}
	toxic := p.Toxic(vars["toxic"])
	if toxic == nil {
		apiError(w, "toxic not found", http.StatusNotFound)
		return
	}
	if toxic.Attributes == nil {
		toxic.Attributes = make(toxiproxy.Attributes)
	}
	for k, v := range input.Attributes {
		toxic.Attributes[k] = v
	}
	writeJSON(w, http.StatusOK, toxic)
}

func (cp *ControlPlane) toxicDelete(w http.ResponseWriter, r *http.Request) {
	cp.Lock()
	defer cp.Unlock()
	vars := mux.Vars(r)
	p, ok := cp.proxies[vars["proxy"]]
	if !ok {
		apiError(w, "proxy not found", http.StatusNotFound)
		return
	}
	for i, toxic := range p.ActiveToxics {
		if toxic.Name == vars["toxic"] {
			p.ActiveToxics = append(p.ActiveToxics[:i], p.ActiveToxics[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	apiError(w, "toxic not found", http.StatusNotFound)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func apiError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, toxiproxy.ApiError{Message: msg, Status: status})
}
