package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/budgettracker/budget-tracker/internal/core/domain"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/", zerolog.Nop())
}

func TestClient_AttachesBearerOnlyWhenSet(t *testing.T) {
	var got []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})

	if err := c.Do(context.Background(), http.MethodGet, "/users/me", nil, nil, nil); err != nil {
		t.Fatalf("Do: %v", err)
	}
	c.SetToken("abc")
	if err := c.Do(context.Background(), http.MethodGet, "/users/me", nil, nil, nil); err != nil {
		t.Fatalf("Do: %v", err)
	}
	c.SetToken("")
	if err := c.Do(context.Background(), http.MethodGet, "/users/me", nil, nil, nil); err != nil {
		t.Fatalf("Do: %v", err)
	}

	want := []string{"", "Bearer abc", ""}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("request %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestClient_TokenCapturedAtDispatch(t *testing.T) {
	arrived := make(chan string, 1)
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		arrived <- r.Header.Get("Authorization")
		<-release
		w.WriteHeader(http.StatusNoContent)
	})
	c.SetToken("first")

	done := make(chan error, 1)
	go func() {
		done <- c.Do(context.Background(), http.MethodGet, "/users/me", nil, nil, nil)
	}()

	header := <-arrived
	c.SetToken("second")
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Do: %v", err)
	}
	if header != "Bearer first" {
		t.Fatalf("in-flight request header changed: %q", header)
	}
	if c.Token() != "second" {
		t.Fatalf("expected new token to be held")
	}
}

func TestClient_JoinsPathAndQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/me/summary" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("month") != "5" || r.URL.Query().Get("year") != "2024" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		if r.Header.Get(HeaderRequestID) == "" {
			t.Errorf("missing request id")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"month":5,"year":2024}`))
	})

	var out struct {
		Month int `json:"month"`
		Year  int `json:"year"`
	}
	q := url.Values{"month": {"5"}, "year": {"2024"}}
	if err := c.Do(context.Background(), http.MethodGet, "me/summary", q, nil, &out); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if out.Month != 5 || out.Year != 2024 {
		t.Fatalf("unexpected body: %+v", out)
	}
}

func TestClient_SendsJSONBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected JSON content type")
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	var out map[string]bool
	if err := c.Do(context.Background(), http.MethodPost, "/auth/login", nil, map[string]string{"username": "ada"}, &out); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !out["ok"] {
		t.Fatalf("expected decoded body")
	}
}

func TestClient_StatusErrorsMapToDomain(t *testing.T) {
	cases := []struct {
		status int
		body   string
		want   error
		msg    string
	}{
		{http.StatusUnauthorized, `{"detail":"Could not validate credentials"}`, domain.ErrUnauthorized, "Could not validate credentials"},
		{http.StatusForbidden, ``, domain.ErrUnauthorized, ""},
		{http.StatusNotFound, `{"error":"transaction not found"}`, domain.ErrNotFound, "transaction not found"},
		{http.StatusConflict, `{"detail":"Username already registered"}`, domain.ErrConflict, "Username already registered"},
		{http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","amount"]}]}`, domain.ErrRejected, `{"detail":[{"loc":["body","amount"]}]}`},
		{http.StatusInternalServerError, `boom`, domain.ErrServer, "boom"},
	}
	for _, tc := range cases {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(tc.body))
		})
		err := c.Do(context.Background(), http.MethodGet, "/users/me", nil, nil, nil)
		if !errors.Is(err, tc.want) {
			t.Errorf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
		var apiErr *Error
		if !errors.As(err, &apiErr) || apiErr.Message != tc.msg {
			t.Errorf("status %d: unexpected message in %v", tc.status, err)
		}
		if StatusOf(err) != tc.status {
			t.Errorf("status %d: StatusOf returned %d", tc.status, StatusOf(err))
		}
	}
}

func TestClient_LongPlainErrorBodyKeepsWholeRunes(t *testing.T) {
	// 199 ASCII bytes put the 200-byte limit inside the two-byte "é".
	body := strings.Repeat("x", 199) + strings.Repeat("é", 10)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(body))
	})

	err := c.Do(context.Background(), http.MethodGet, "/users/me", nil, nil, nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if !utf8.ValidString(apiErr.Message) {
		t.Fatalf("message is not valid UTF-8: %q", apiErr.Message)
	}
	if apiErr.Message != strings.Repeat("x", 199) {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"abcdef", 3, "abc"},
		{"aé", 2, "a"},
		{"日本語", 7, "日本"},
		{"日本語", 2, ""},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.n); got != tc.want {
			t.Errorf("truncate(%q, %d): expected %q, got %q", tc.in, tc.n, tc.want, got)
		}
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := New(srv.URL, zerolog.Nop())

	err := c.Do(context.Background(), http.MethodGet, "/users/me", nil, nil, nil)
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if StatusOf(err) != 0 {
		t.Fatalf("transport errors carry no status")
	}
}

func TestClient_Download(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("id,amount\n1,10\n"))
	})

	ct, body, err := c.Download(context.Background(), "/me/reports/csv", url.Values{"month": {"1"}})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if ct != "text/csv" || string(body) != "id,amount\n1,10\n" {
		t.Fatalf("unexpected download: %q %q", ct, body)
	}
}
