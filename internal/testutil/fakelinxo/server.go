// Package fakelinxo runs an in-process Linxo API and OAuth2 server for tests.
// Records are stacked as raw JSON objects and served the way the real API
// serves them: list endpoints wrap them in an envelope, singular endpoints
// 404 on unknown ids, and /transactions honors the account, date and paging
// query parameters.
//
// Example:
//
//	srv := fakelinxo.New(t)
//	f := fakelinxo.NewFactory(srv)
//	f.MockAccount(map[string]any{"id": "42"})
//	client, _ := linxo.NewClient(srv.APIURL(), fakelinxo.AccessToken)
package fakelinxo

import (
	"encoding/json"
	"maps"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// APIVersion is the path prefix of every API route.
const APIVersion = "v2.1"

const tokenPath = "/auth/token"

// Credentials accepted by the token endpoint.
const (
	ValidCode         = "valid code"
	ValidRefreshToken = "valid refresh token"
	AccessToken       = "valid access token"
	TokenLifetime     = 3600
)

// Request records one request received by the server.
type Request struct {
	Query  url.Values
	Form   url.Values
	Header http.Header
	Method string
	Path   string
}

type failure struct {
	body   string
	status int
}

// store keeps records in insertion order; stacking an existing id replaces it.
type store struct {
	index   map[string]int
	records []map[string]any
}

func newStore() *store {
	return &store{index: map[string]int{}}
}

func (s *store) put(rec map[string]any) {
	rec = maps.Clone(rec)
	id := idOf(rec)
	if i, ok := s.index[id]; ok {
		s.records[i] = rec
		return
	}
	s.index[id] = len(s.records)
	s.records = append(s.records, rec)
}

func (s *store) get(id string) (map[string]any, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.records[i], true
}

func (s *store) all() []map[string]any {
	return slices.Clone(s.records)
}

// Server is a fake Linxo deployment backed by httptest.
type Server struct {
	srv          *httptest.Server
	me           map[string]any
	connections  *store
	accounts     *store
	transactions *store
	requests     []Request
	failures     []failure
	tokenFails   []failure
	mu           sync.Mutex
}

// New starts a server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		connections:  newStore(),
		accounts:     newStore(),
		transactions: newStore(),
	}

	mux := http.NewServeMux()
	api := "/" + APIVersion
	mux.HandleFunc("GET "+api+"/users/me", s.handleMe)
	mux.HandleFunc("GET "+api+"/connections", s.handleList(s.connections, "connections"))
	mux.HandleFunc("GET "+api+"/connections/{id}", s.handleOne(s.connections))
	mux.HandleFunc("GET "+api+"/accounts", s.handleList(s.accounts, "accounts"))
	mux.HandleFunc("GET "+api+"/accounts/{id}", s.handleOne(s.accounts))
	mux.HandleFunc("GET "+api+"/transactions", s.handleTransactions)
	mux.HandleFunc("GET "+api+"/transactions/{id}", s.handleOne(s.transactions))
	mux.HandleFunc("POST "+tokenPath, s.handleToken)

	s.srv = httptest.NewServer(s.record(mux))
	t.Cleanup(s.srv.Close)
	return s
}

// APIURL is the base URL of the REST API.
func (s *Server) APIURL() string {
	return s.srv.URL
}

// AuthURL is the base URL of the OAuth2 server.
func (s *Server) AuthURL() string {
	return s.srv.URL + "/auth"
}

// HTTPClient returns a client wired to the server.
func (s *Server) HTTPClient() *http.Client {
	return s.srv.Client()
}

// Close shuts the server down before the test ends.
func (s *Server) Close() {
	s.srv.Close()
}

// StackMe sets the /users/me record.
func (s *Server) StackMe(rec map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.me = maps.Clone(rec)
}

// StackConnection adds or replaces a connection record.
func (s *Server) StackConnection(rec map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connections.put(rec)
}

// StackAccount adds or replaces an account record.
func (s *Server) StackAccount(rec map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts.put(rec)
}

// StackTransaction adds or replaces a transaction record.
func (s *Server) StackTransaction(rec map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions.put(rec)
}

// FailNext makes the next API request answer with status and body instead
// of its normal response. Calls queue up. The token endpoint is not affected,
// see FailNextToken.
func (s *Server) FailNext(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{status: status, body: body})
}

// FailNextToken makes the next token endpoint request answer with status and
// body. Calls queue up.
func (s *Server) FailNextToken(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenFails = append(s.tokenFails, failure{status: status, body: body})
}

// Requests returns every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// RequestsTo returns the requests whose path is path.
func (s *Server) RequestsTo(path string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// ResetRequests clears the request log.
func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
		}
		if r.Method == http.MethodPost {
			_ = r.ParseForm()
			req.Form = r.PostForm
		}

		s.mu.Lock()
		s.requests = append(s.requests, req)
		var fail *failure
		switch {
		case strings.HasPrefix(r.URL.Path, "/"+APIVersion+"/") && len(s.failures) > 0:
			fail = &s.failures[0]
			s.failures = s.failures[1:]
		case r.URL.Path == tokenPath && len(s.tokenFails) > 0:
			fail = &s.tokenFails[0]
			s.tokenFails = s.tokenFails[1:]
		}
		s.mu.Unlock()

		if fail != nil {
			if json.Valid([]byte(fail.body)) {
				w.Header().Set("Content-Type", "application/json")
			}
			w.WriteHeader(fail.status)
			_, _ = w.Write([]byte(fail.body))
			return
		}
		if strings.HasPrefix(r.URL.Path, "/"+APIVersion+"/") && !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "missing bearer token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleMe(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	me := s.me
	s.mu.Unlock()

	if me == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "user not found"})
		return
	}
	writeJSON(w, http.StatusOK, me)
}

func (s *Server) handleList(st *store, key string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		recs := st.all()
		s.mu.Unlock()

		writeJSON(w, http.StatusOK, map[string]any{key: nonNil(recs)})
	}
}

func (s *Server) handleOne(st *store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		rec, ok := st.get(r.PathValue("id"))
		s.mu.Unlock()

		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	recs := s.transactions.all()
	s.mu.Unlock()

	query := r.URL.Query()
	accountIDs := query["account_ids"]
	if id := query.Get("account_id"); id != "" {
		accountIDs = append(accountIDs, id)
	}
	start, startErr := optionalTime(query.Get("start_date"))
	end, endErr := optionalTime(query.Get("end_date"))
	if startErr != nil || endErr != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid date filter"})
		return
	}

	filtered := recs[:0:0]
	for _, rec := range recs {
		if len(accountIDs) > 0 && !slices.Contains(accountIDs, stringField(rec, "account_id")) {
			continue
		}
		if posted, ok := transactionTime(rec); ok {
			if start != nil && posted.Before(*start) {
				continue
			}
			if end != nil && posted.After(*end) {
				continue
			}
		}
		filtered = append(filtered, rec)
	}

	limit, limitErr := strconv.Atoi(query.Get("limit"))
	page, pageErr := strconv.Atoi(query.Get("page"))
	if limitErr == nil && pageErr == nil && limit > 0 && page > 0 {
		from := min(limit*(page-1), len(filtered))
		to := min(from+limit, len(filtered))
		filtered = filtered[from:to]
	}

	writeJSON(w, http.StatusOK, map[string]any{"transactions": nonNil(filtered)})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_request"})
		return
	}
	if r.PostForm.Get("client_id") == "" {
		if _, _, ok := r.BasicAuth(); !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid_client"})
			return
		}
	}

	var valid bool
	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		valid = r.PostForm.Get("code") == ValidCode
	case "refresh_token":
		valid = r.PostForm.Get("refresh_token") == ValidRefreshToken
	default:
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "unsupported_grant_type"})
		return
	}

	if !valid {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":             "invalid_grant",
			"error_description": "The provided authorization grant is invalid or expired",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  AccessToken,
		"token_type":    "Bearer",
		"refresh_token": ValidRefreshToken,
		"expires_in":    TokenLifetime,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func nonNil(recs []map[string]any) []map[string]any {
	if recs == nil {
		return []map[string]any{}
	}
	return recs
}

func idOf(rec map[string]any) string {
	return stringField(rec, "id")
}

func stringField(rec map[string]any, key string) string {
	switch v := rec[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// transactionTime reads enrichments.date, falling back to a top-level date.
func transactionTime(rec map[string]any) (time.Time, bool) {
	raw := ""
	if enrichments, ok := rec["enrichments"].(map[string]any); ok {
		raw, _ = enrichments["date"].(string)
	}
	if raw == "" {
		raw, _ = rec["date"].(string)
	}
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func optionalTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
