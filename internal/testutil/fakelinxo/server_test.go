package fakelinxo

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, srv *Server, path string, query url.Values) (int, map[string]any) {
	t.Helper()

	target := srv.APIURL() + "/" + APIVersion + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+AccessToken)

	resp, err := srv.HTTPClient().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func ids(t *testing.T, body map[string]any, key string) []string {
	t.Helper()

	items, ok := body[key].([]any)
	require.True(t, ok, "expected %q array", key)
	out := make([]string, 0, len(items))
	for _, item := range items {
		rec, ok := item.(map[string]any)
		require.True(t, ok)
		out = append(out, fmt.Sprint(rec["id"]))
	}
	return out
}

func TestServer_SingularRoutes(t *testing.T) {
	srv := New(t)
	f := NewFactory(srv)
	f.MockAccount(map[string]any{"id": "7"})
	f.MockConnection(nil)

	status, body := get(t, srv, "/accounts/7", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "7", body["id"])

	status, _ = get(t, srv, "/accounts/8", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = get(t, srv, "/connections/1", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Banque Populaire", body["name"])

	status, _ = get(t, srv, "/users/me", nil)
	assert.Equal(t, http.StatusNotFound, status, "me is absent until stacked")

	f.MockMe(map[string]any{"email": "jane@example.com"})
	status, body = get(t, srv, "/users/me", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "jane@example.com", body["email"])
}

func TestServer_ListEnvelopes(t *testing.T) {
	srv := New(t)
	f := NewFactory(srv)

	_, body := get(t, srv, "/accounts", nil)
	assert.Empty(t, ids(t, body, "accounts"))

	f.MockAccount(map[string]any{"id": "1"})
	f.MockAccount(map[string]any{"id": "2"})
	f.MockAccount(map[string]any{"id": "1", "name": "Replaced"})

	_, body = get(t, srv, "/accounts", nil)
	assert.Equal(t, []string{"1", "2"}, ids(t, body, "accounts"))
}

func TestServer_TransactionFilters(t *testing.T) {
	srv := New(t)
	f := NewFactory(srv)
	day := func(d int) time.Time { return time.Date(2024, time.March, d, 10, 0, 0, 0, time.UTC) }

	for i := 1; i <= 5; i++ {
		account := "A"
		if i%2 == 0 {
			account = "B"
		}
		f.MockTransaction(map[string]any{
			"id":          fmt.Sprint(i),
			"account_id":  account,
			"enrichments": Enrichments("tx", day(i)),
		})
	}

	tests := []struct {
		query url.Values
		name  string
		want  []string
	}{
		{
			name:  "no filter",
			query: nil,
			want:  []string{"1", "2", "3", "4", "5"},
		},
		{
			name:  "account_ids",
			query: url.Values{"account_ids": {"A"}},
			want:  []string{"1", "3", "5"},
		},
		{
			name:  "legacy account_id",
			query: url.Values{"account_id": {"B"}},
			want:  []string{"2", "4"},
		},
		{
			name: "date range",
			query: url.Values{
				"start_date": {day(2).Format(time.RFC3339)},
				"end_date":   {day(4).Format(time.RFC3339)},
			},
			want: []string{"2", "3", "4"},
		},
		{
			name:  "second page",
			query: url.Values{"limit": {"2"}, "page": {"2"}},
			want:  []string{"3", "4"},
		},
		{
			name:  "page past the end",
			query: url.Values{"limit": {"2"}, "page": {"4"}},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := get(t, srv, "/transactions", tt.query)
			require.Equal(t, http.StatusOK, status)
			assert.Equal(t, tt.want, ids(t, body, "transactions"))
		})
	}
}

func TestServer_FailNext(t *testing.T) {
	srv := New(t)
	NewFactory(srv).MockMe(nil)

	srv.FailNext(http.StatusServiceUnavailable, `{"error":"maintenance"}`)

	status, body := get(t, srv, "/users/me", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "maintenance", body["error"])

	status, _ = get(t, srv, "/users/me", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, srv.RequestsTo("/v2.1/users/me"), 2)
}

func TestServer_RequiresBearer(t *testing.T) {
	srv := New(t)

	resp, err := srv.HTTPClient().Get(srv.APIURL() + "/v2.1/accounts")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_TokenEndpoint(t *testing.T) {
	srv := New(t)

	tests := []struct {
		form      url.Values
		name      string
		wantError string
		wantCode  int
	}{
		{
			name:     "valid code",
			form:     url.Values{"grant_type": {"authorization_code"}, "code": {ValidCode}, "client_id": {"id"}},
			wantCode: http.StatusOK,
		},
		{
			name:     "valid refresh token",
			form:     url.Values{"grant_type": {"refresh_token"}, "refresh_token": {ValidRefreshToken}, "client_id": {"id"}},
			wantCode: http.StatusOK,
		},
		{
			name:      "invalid code",
			form:      url.Values{"grant_type": {"authorization_code"}, "code": {"nope"}, "client_id": {"id"}},
			wantCode:  http.StatusBadRequest,
			wantError: "invalid_grant",
		},
		{
			name:      "missing client",
			form:      url.Values{"grant_type": {"authorization_code"}, "code": {ValidCode}},
			wantCode:  http.StatusUnauthorized,
			wantError: "invalid_client",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := srv.HTTPClient().Post(srv.AuthURL()+"/token",
				"application/x-www-form-urlencoded", strings.NewReader(tt.form.Encode()))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantCode, resp.StatusCode)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
				return
			}
			assert.Equal(t, AccessToken, body["access_token"])
			assert.Equal(t, ValidRefreshToken, body["refresh_token"])
		})
	}
}

func TestFactory_TransactionDefaultsToTwoDaysAgoInParis(t *testing.T) {
	srv := New(t)
	now := time.Date(2024, time.July, 10, 23, 30, 0, 0, time.UTC) // already July 11 in Paris
	rec := NewFactory(srv).WithClock(func() time.Time { return now }).MockTransaction(nil)

	enrichments, ok := rec["enrichments"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2024-07-09T00:00:00+02:00", enrichments["date"])
}

func TestServer_StackedRecordsAreCopied(t *testing.T) {
	srv := New(t)
	rec := map[string]any{"id": "1", "name": "Original"}
	srv.StackAccount(rec)
	me := map[string]any{"id": "1", "email": "jane@example.com"}
	srv.StackMe(me)

	rec["name"] = "Changed"
	me["email"] = "changed@example.com"

	_, body := get(t, srv, "/accounts/1", nil)
	assert.Equal(t, "Original", body["name"])
	_, body = get(t, srv, "/users/me", nil)
	assert.Equal(t, "jane@example.com", body["email"])
}

func TestServer_FailNextToken(t *testing.T) {
	srv := New(t)
	srv.FailNextToken(http.StatusServiceUnavailable, "upstream down")
	form := url.Values{"grant_type": {"refresh_token"}, "refresh_token": {ValidRefreshToken}, "client_id": {"id"}}

	post := func() int {
		resp, err := srv.HTTPClient().Post(srv.AuthURL()+"/token",
			"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
		require.NoError(t, err)
		_ = resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusServiceUnavailable, post())
	assert.Equal(t, http.StatusOK, post())
}
