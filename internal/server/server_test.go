package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/a2s/internal/shared"
)

type mockExchanger struct {
	token *oauth2.Token
	err   error
	codes []string
}

func (m *mockExchanger) Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	m.codes = append(m.codes, code)
	return m.token, m.err
}

func TestOAuthHandler(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		exchErr    error
		wantStatus int
		wantErr    error
	}{
		{name: "success", query: "?state=s1&code=abc", wantStatus: http.StatusOK},
		{name: "bad state", query: "?state=other&code=abc", wantStatus: http.StatusBadRequest, wantErr: shared.ErrAuthFailed},
		{name: "denied", query: "?state=s1&error=access_denied", wantStatus: http.StatusBadRequest, wantErr: shared.ErrAuthFailed},
		{name: "exchange fails", query: "?state=s1&code=abc", exchErr: errors.New("invalid_grant"), wantStatus: http.StatusInternalServerError, wantErr: shared.ErrAuthFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := &mockExchanger{token: &oauth2.Token{AccessToken: "tok"}, err: tt.exchErr}
			h := NewOAuthHandler(ex, "s1", "")

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback"+tt.query, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			result := <-h.Result()
			if tt.wantErr != nil {
				if !errors.Is(result.Error(), tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, result.Error())
				}
				return
			}
			if result.Error() != nil || result.Token.AccessToken != "tok" {
				t.Errorf("unexpected result %+v", result)
			}
			if len(ex.codes) != 1 || ex.codes[0] != "abc" {
				t.Errorf("unexpected exchanged codes %v", ex.codes)
			}
			if !strings.Contains(rec.Body.String(), "Spotify connected") {
				t.Error("expected success page")
			}
		})
	}

	t.Run("second callback is rejected", func(t *testing.T) {
		h := NewOAuthHandler(&mockExchanger{token: &oauth2.Token{}}, "s1", "")
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?state=s1&code=a", nil))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s1&code=b", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestCallbackPath(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{uri: "http://127.0.0.1:3000/callback", want: "/callback"},
		{uri: "http://localhost:8888/auth/spotify", want: "/auth/spotify"},
		{uri: "http://127.0.0.1:3000", want: DefaultCallbackPath},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			got, err := CallbackPath(tt.uri)
			if err != nil || got != tt.want {
				t.Errorf("CallbackPath() = %q, %v; want %q", got, err, tt.want)
			}
		})
	}

	if _, err := CallbackPath("://bad"); !errors.Is(err, shared.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestBasicRouter(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	router := NewBasicRouter()
	router.Use(mw("outer"), mw("inner"), RequestLogger(log.New(io.Discard)))
	router.Handler(NewOAuthHandler(&mockExchanger{token: &oauth2.Token{}}, "s1", "/cb"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cb?state=s1&code=x", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if strings.Join(order, ",") != "outer,inner" {
		t.Errorf("middleware order = %v", order)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cb", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d, want 404", rec.Code)
	}
}

func TestCallbackServer(t *testing.T) {
	h := NewOAuthHandler(&mockExchanger{token: &oauth2.Token{AccessToken: "live"}}, "s1", "")
	router := NewBasicRouter()
	router.Handler(h)

	srv, err := Listen("127.0.0.1:0", router)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer srv.Shutdown(context.Background())

	go func() {
		resp, err := http.Get("http://" + srv.Addr() + "/callback?state=s1&code=abc")
		if err == nil {
			resp.Body.Close()
		}
	}()

	tok, err := AwaitToken(context.Background(), h, srv, 5*time.Second)
	if err != nil {
		t.Fatalf("AwaitToken() error = %v", err)
	}
	if tok.AccessToken != "live" {
		t.Errorf("unexpected token %q", tok.AccessToken)
	}

	t.Run("timeout", func(t *testing.T) {
		idle := NewOAuthHandler(&mockExchanger{}, "s2", "")
		_, err := AwaitToken(context.Background(), idle, srv, 10*time.Millisecond)
		if !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := AwaitToken(ctx, NewOAuthHandler(&mockExchanger{}, "s3", ""), srv, time.Minute)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
