package discord

import (
	"testing"
	"time"
)

func TestParseClientConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		raw         string
		wantErr     bool
		wantToken   string
		wantTimeout time.Duration
	}{
		{name: "missing", raw: "", wantErr: true},
		{name: "malformed", raw: "{", wantErr: true},
		{name: "no token", raw: `{"application_id":"1"}`, wantErr: true},
		{name: "bad timeout", raw: `{"token":"t","request_timeout":"soon"}`, wantErr: true},
		{name: "negative timeout", raw: `{"token":"t","request_timeout":"-1s"}`, wantErr: true},
		{name: "negative retries", raw: `{"token":"t","max_rest_retries":-1}`, wantErr: true},
		{name: "defaults", raw: `{"token":"t"}`, wantToken: "t", wantTimeout: defaultRequestTimeout},
		{name: "bot prefix stripped", raw: `{"token":"Bot abc","request_timeout":"3s"}`, wantToken: "abc", wantTimeout: 3 * time.Second},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := parseClientConfig([]byte(testCase.raw))
			if testCase.wantErr {
				if err == nil {
					t.Fatal("expected parse error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if cfg.token != testCase.wantToken || cfg.requestTimeout != testCase.wantTimeout {
				t.Fatalf("cfg = %+v, want token %q timeout %s", cfg, testCase.wantToken, testCase.wantTimeout)
			}
		})
	}
}
