package sites

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/pheonix/internal/model"
)

func TestDefaultCatalog(t *testing.T) {
	t.Parallel()

	c, err := Default()
	if err != nil {
		t.Fatalf("embedded catalog failed to parse: %v", err)
	}

	t.Run("has email presence sites", func(t *testing.T) {
		t.Parallel()
		if len(c.SitesFor(model.KindEmail)) == 0 {
			t.Error("expected at least one email site")
		}
	})

	t.Run("has username platforms", func(t *testing.T) {
		t.Parallel()
		if len(c.Platforms) == 0 {
			t.Fatal("expected platforms")
		}
		for _, p := range c.Platforms {
			if !p.Accepts(model.KindUsername) {
				t.Errorf("platform %s should accept usernames", p.Name)
			}
		}
	})

	t.Run("every definition has a method", func(t *testing.T) {
		t.Parallel()
		for _, s := range append(c.Sites, c.Platforms...) {
			if s.Method == "" {
				t.Errorf("site %s has no method", s.Name)
			}
		}
	})
}

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("status code check gets defaults", func(t *testing.T) {
		t.Parallel()
		c, err := Parse([]byte(`
sites:
  - name: Example
    inputs: [email]
    url: https://example.com/{input}
    check: status_code
`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		s := c.Sites[0]
		if s.Method != http.MethodGet {
			t.Errorf("Method = %q, want GET", s.Method)
		}
		if len(s.ExistsStatus) != 1 || s.ExistsStatus[0] != 200 {
			t.Errorf("ExistsStatus = %v, want [200]", s.ExistsStatus)
		}
		if len(s.MissingStatus) != 1 || s.MissingStatus[0] != 404 {
			t.Errorf("MissingStatus = %v, want [404]", s.MissingStatus)
		}
	})

	tests := []struct {
		name string
		yaml string
		want error
	}{
		{"missing name", "sites:\n  - url: https://x\n    check: status_code\n", ErrNoName},
		{"missing url", "sites:\n  - name: X\n    check: status_code\n", ErrNoURL},
		{"unknown check", "sites:\n  - name: X\n    url: https://x\n    check: vibes\n", ErrBadCheck},
		{"message without condition", "sites:\n  - name: X\n    url: https://x\n    check: message\n", ErrNoCondition},
		{"response url without error url", "sites:\n  - name: X\n    url: https://x\n    check: response_url\n", ErrNoCondition},
		{"bad pattern", "platforms:\n  - name: X\n    url: https://x\n    check: status_code\n    username_pattern: '('\n", ErrBadPattern},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.yaml))
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse() error = %v, want %v", err, tt.want)
			}
		})
	}

	t.Run("load with empty path returns default", func(t *testing.T) {
		t.Parallel()
		c, err := Load("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(c.Sites) == 0 {
			t.Error("expected default sites")
		}
	})
}

func TestExpand(t *testing.T) {
	t.Parallel()

	t.Run("input is query escaped", func(t *testing.T) {
		t.Parallel()
		got := expand("https://x/?e={input}", "a+b@c.com")
		if got != "https://x/?e=a%2Bb%40c.com" {
			t.Errorf("expand() = %q", got)
		}
	})

	t.Run("md5 hashes the lowercased input", func(t *testing.T) {
		t.Parallel()
		// md5("test@example.com")
		got := expand("{md5}", " Test@Example.com ")
		if got != "55502f40dc8b7c769880b10874abc9d0" {
			t.Errorf("expand() = %q", got)
		}
	})

	t.Run("json body keeps plain input unescaped", func(t *testing.T) {
		t.Parallel()
		got := expandBody(`{"email":"{input}"}`, "application/json", "a+b@c.com")
		if got != `{"email":"a+b@c.com"}` {
			t.Errorf("expandBody() = %q", got)
		}
	})

	t.Run("json body escapes quotes and backslashes", func(t *testing.T) {
		t.Parallel()
		input := `a"b\c@example.com`
		got := expandBody(`{"email":"{input}"}`, "application/json; charset=utf-8", input)
		if !json.Valid([]byte(got)) {
			t.Fatalf("expandBody() = %q is not valid JSON", got)
		}
		var decoded struct {
			Email string `json:"email"`
		}
		if err := json.Unmarshal([]byte(got), &decoded); err != nil {
			t.Fatal(err)
		}
		if decoded.Email != input {
			t.Errorf("decoded email = %q, want %q", decoded.Email, input)
		}
	})

	t.Run("form body is form encoded", func(t *testing.T) {
		t.Parallel()
		got := expandBody("email={input}&x=1", "application/x-www-form-urlencoded", "a+b&c@d.com")
		if got != "email=a%2Bb%26c%40d.com&x=1" {
			t.Errorf("expandBody() = %q", got)
		}
	})

	t.Run("body without a content type is left raw", func(t *testing.T) {
		t.Parallel()
		if got := expandBody("{input}|{md5}", "", " Test@Example.com "); got != " Test@Example.com |55502f40dc8b7c769880b10874abc9d0" {
			t.Errorf("expandBody() = %q", got)
		}
	})
}

func TestInterpret(t *testing.T) {
	t.Parallel()

	statusSite := Site{Name: "s", URL: "u", Check: CheckStatusCode}
	if err := statusSite.prepare(); err != nil {
		t.Fatal(err)
	}
	msgSite := Site{Name: "m", URL: "u", Check: CheckMessage, ErrorMessage: "not found"}
	both := Site{Name: "b", URL: "u", Check: CheckMessage, ErrorMessage: "nope", ExistsMessage: "yes"}
	urlSite := Site{Name: "r", URL: "u", Check: CheckResponseURL, ErrorURL: "https://x/login"}

	tests := []struct {
		name     string
		site     Site
		status   int
		finalURL string
		body     string
		want     Outcome
	}{
		{"status 200 exists", statusSite, 200, "", "", OutcomeExists},
		{"status 404 missing", statusSite, 404, "", "", OutcomeMissing},
		{"status 500 ambiguous", statusSite, 500, "", "", OutcomeAmbiguous},
		{"429 is rate limited", statusSite, 429, "", "", OutcomeRateLimited},
		{"error message means missing", msgSite, 200, "", "user not found", OutcomeMissing},
		{"no error message means exists", msgSite, 200, "", "profile", OutcomeExists},
		{"server error is ambiguous", msgSite, 503, "", "", OutcomeAmbiguous},
		{"exists message required when set", both, 200, "", "maybe", OutcomeAmbiguous},
		{"exists message matches", both, 200, "", "yes", OutcomeExists},
		{"redirect to error url is missing", urlSite, 200, "https://x/login?next=1", "", OutcomeMissing},
		{"other final url exists", urlSite, 200, "https://x/alice", "", OutcomeExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, _ := interpret(tt.site, tt.status, tt.finalURL, tt.body)
			if got != tt.want {
				t.Errorf("interpret() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChecker(t *testing.T) {
	t.Parallel()

	newServer := func(t *testing.T, hits *atomic.Int32) *httptest.Server {
		t.Helper()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits != nil {
				hits.Add(1)
			}
			switch {
			case strings.HasPrefix(r.URL.Path, "/exists/"):
				w.WriteHeader(http.StatusOK)
			case strings.HasPrefix(r.URL.Path, "/missing/"):
				w.WriteHeader(http.StatusNotFound)
			case strings.HasPrefix(r.URL.Path, "/limited/"):
				w.WriteHeader(http.StatusTooManyRequests)
			case r.URL.Path == "/post":
				body, _ := io.ReadAll(r.Body)
				if strings.Contains(string(body), "a@b.com") {
					_, _ = io.WriteString(w, `{"exists":true}`)
					return
				}
				_, _ = io.WriteString(w, `{"exists":false}`)
			case strings.HasPrefix(r.URL.Path, "/slow/"):
				time.Sleep(200 * time.Millisecond)
				w.WriteHeader(http.StatusOK)
			default:
				w.WriteHeader(http.StatusTeapot)
			}
		}))
		t.Cleanup(srv.Close)
		return srv
	}

	mustPrepare := func(t *testing.T, sites ...Site) []Site {
		t.Helper()
		for i := range sites {
			if err := sites[i].prepare(); err != nil {
				t.Fatalf("prepare %s: %v", sites[i].Name, err)
			}
		}
		return sites
	}

	t.Run("results keep catalog order", func(t *testing.T) {
		t.Parallel()
		srv := newServer(t, nil)
		list := mustPrepare(t,
			Site{Name: "slow", URL: srv.URL + "/slow/{input}", Check: CheckStatusCode},
			Site{Name: "exists", URL: srv.URL + "/exists/{input}", Check: CheckStatusCode},
			Site{Name: "missing", URL: srv.URL + "/missing/{input}", Check: CheckStatusCode},
			Site{Name: "limited", URL: srv.URL + "/limited/{input}", Check: CheckStatusCode},
			Site{Name: "teapot", URL: srv.URL + "/other/{input}", Check: CheckStatusCode},
		)

		c := NewChecker(srv.Client(), WithRate(0), WithConcurrency(5))
		results := c.Check(context.Background(), list, "alice")

		want := []struct {
			site    string
			outcome Outcome
		}{
			{"slow", OutcomeExists},
			{"exists", OutcomeExists},
			{"missing", OutcomeMissing},
			{"limited", OutcomeRateLimited},
			{"teapot", OutcomeAmbiguous},
		}
		if len(results) != len(want) {
			t.Fatalf("got %d results, want %d", len(results), len(want))
		}
		for i, w := range want {
			if results[i].Site != w.site || results[i].Outcome != w.outcome {
				t.Errorf("results[%d] = %s/%v, want %s/%v", i, results[i].Site, results[i].Outcome, w.site, w.outcome)
			}
		}
	})

	t.Run("post body carries the raw input", func(t *testing.T) {
		t.Parallel()
		srv := newServer(t, nil)
		list := mustPrepare(t, Site{
			Name:          "post",
			Method:        "post",
			URL:           srv.URL + "/post",
			Body:          `{"email":"{input}"}`,
			Check:         CheckMessage,
			ErrorMessage:  `"exists":false`,
			ExistsMessage: `"exists":true`,
		})
		c := NewChecker(srv.Client(), WithRate(0))
		if got := c.Check(context.Background(), list, "a@b.com")[0].Outcome; got != OutcomeExists {
			t.Errorf("outcome = %v, want exists", got)
		}
		if got := c.Check(context.Background(), list, "x@y.com")[0].Outcome; got != OutcomeMissing {
			t.Errorf("outcome = %v, want missing", got)
		}
	})

	t.Run("json post body stays valid for awkward input", func(t *testing.T) {
		t.Parallel()
		got := make(chan string, 1)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Email string `json:"email"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			got <- req.Email
			_, _ = io.WriteString(w, `{"exists":true}`)
		}))
		t.Cleanup(srv.Close)

		list := mustPrepare(t, Site{
			Name:          "json",
			Method:        http.MethodPost,
			URL:           srv.URL + "/status",
			Headers:       map[string]string{"content-type": "application/json"},
			Body:          `{"email":"{input}"}`,
			Check:         CheckMessage,
			ErrorMessage:  `"exists":false`,
			ExistsMessage: `"exists":true`,
		})
		input := `a"b@example.com`
		c := NewChecker(srv.Client(), WithRate(0))
		if res := c.Check(context.Background(), list, input)[0]; res.Outcome != OutcomeExists {
			t.Fatalf("outcome = %v (%s), want exists", res.Outcome, res.Detail)
		}
		if email := <-got; email != input {
			t.Errorf("server decoded %q, want %q", email, input)
		}
	})

	t.Run("input rejected by pattern sends no request", func(t *testing.T) {
		t.Parallel()
		var hits atomic.Int32
		srv := newServer(t, &hits)
		list := mustPrepare(t, Site{
			Name:            "strict",
			URL:             srv.URL + "/exists/{input}",
			Check:           CheckStatusCode,
			UsernamePattern: `^[a-z]{3,8}$`,
		})
		c := NewChecker(srv.Client(), WithRate(0))
		res := c.CheckSite(context.Background(), list[0], "NOT_VALID!")
		if res.Outcome != OutcomeInvalid {
			t.Errorf("outcome = %v, want invalid", res.Outcome)
		}
		if hits.Load() != 0 {
			t.Errorf("expected no requests, got %d", hits.Load())
		}
	})

	t.Run("transport failure is ambiguous", func(t *testing.T) {
		t.Parallel()
		srv := newServer(t, nil)
		url := srv.URL
		srv.Close()
		list := mustPrepare(t, Site{Name: "gone", URL: url + "/exists/{input}", Check: CheckStatusCode})
		c := NewChecker(&http.Client{Timeout: time.Second}, WithRate(0))
		res := c.CheckSite(context.Background(), list[0], "alice")
		if res.Outcome != OutcomeAmbiguous {
			t.Errorf("outcome = %v, want ambiguous", res.Outcome)
		}
		if res.Detail == "" {
			t.Error("expected a detail message")
		}
	})

	t.Run("cancelled context is rate limited by the limiter", func(t *testing.T) {
		t.Parallel()
		srv := newServer(t, nil)
		list := mustPrepare(t, Site{Name: "x", URL: srv.URL + "/exists/{input}", Check: CheckStatusCode})
		c := NewChecker(srv.Client(), WithRate(0.001))
		ctx, cancel := context.WithCancel(context.Background())
		// Consume the single burst token, then cancel.
		_ = c.CheckSite(ctx, list[0], "alice")
		cancel()
		res := c.CheckSite(ctx, list[0], "alice")
		if res.Outcome != OutcomeRateLimited {
			t.Errorf("outcome = %v, want rate_limited", res.Outcome)
		}
	})
}

func TestOutcome(t *testing.T) {
	t.Parallel()

	if !OutcomeExists.Definite() || !OutcomeMissing.Definite() {
		t.Error("exists and missing should be definite")
	}
	for _, o := range []Outcome{OutcomeInvalid, OutcomeAmbiguous, OutcomeRateLimited} {
		if o.Definite() {
			t.Errorf("%v should not be definite", o)
		}
	}
	if Outcome(42).String() != "unknown" {
		t.Errorf("unexpected name %q", Outcome(42).String())
	}
}
