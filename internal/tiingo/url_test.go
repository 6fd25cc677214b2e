package tiingo

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/guttosm/tickerpulse/internal/domain/models"
)

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	path := writeTokenFile(t, "secret-token")
	c, err := New(Config{TokenFile: path}, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestBuildRequestURL_TableDriven(t *testing.T) {
	c := newTestClient(t)
	start := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 6, 30, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		ticker    string
		start     time.Time
		end       time.Time
		freq      models.Frequency
		wantQuery map[string]string
		omitted   []string
	}{
		{
			name:   "full request",
			ticker: "AAPL",
			start:  start,
			end:    end,
			freq:   models.FrequencyWeekly,
			wantQuery: map[string]string{
				"format":       "csv",
				"resampleFreq": "weekly",
				"startDate":    "2020-01-02",
				"endDate":      "2020-06-30",
			},
		},
		{
			name:   "zero start omitted entirely",
			ticker: "MSFT",
			end:    end,
			wantQuery: map[string]string{
				"format":       "csv",
				"resampleFreq": "daily",
				"endDate":      "2020-06-30",
			},
			omitted: []string{"startDate"},
		},
		{
			name:      "zero end defaults to today",
			ticker:    "MSFT",
			start:     start,
			wantQuery: map[string]string{"endDate": time.Now().Format("2006-01-02")},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := c.BuildRequestURL(tc.ticker, tc.start, tc.end, tc.freq)
			u, err := url.Parse(raw)
			if err != nil {
				t.Fatalf("parse %q: %v", raw, err)
			}
			if !strings.HasSuffix(u.Path, "/"+tc.ticker+"/prices") {
				t.Fatalf("path %q does not end in /%s/prices", u.Path, tc.ticker)
			}
			q := u.Query()
			for k, want := range tc.wantQuery {
				if got := q.Get(k); got != want {
					t.Fatalf("%s=%q, want %q (url %q)", k, got, want, raw)
				}
			}
			for _, k := range tc.omitted {
				if _, present := q[k]; present {
					t.Fatalf("%s should be absent from %q", k, raw)
				}
			}
		})
	}
}

func TestBuildRequestURL_DoesNotMutateDefaults(t *testing.T) {
	c := newTestClient(t)
	_ = c.BuildRequestURL("AAPL", time.Time{}, time.Time{}, models.FrequencyMonthly)
	if got := c.defaultQuery.Get("resampleFreq"); got != "daily" {
		t.Fatalf("default resampleFreq mutated to %q", got)
	}
	if c.defaultQuery.Get("endDate") != "" {
		t.Fatalf("endDate leaked into defaults")
	}
}

func TestBuildRequestURL_EscapesTicker(t *testing.T) {
	c := newTestClient(t)
	raw := c.BuildRequestURL("BRK/A", time.Time{}, time.Time{}, "")
	if strings.Contains(raw, "BRK/A/prices") {
		t.Fatalf("ticker not escaped: %q", raw)
	}
}
