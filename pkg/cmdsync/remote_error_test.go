package cmdsync

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestAsRemoteCallErrorPreservesUnwrap(t *testing.T) {
	t.Parallel()

	rootCause := errors.New("http 500")
	err := fmt.Errorf(
		"outer wrapper: %w",
		&RemoteCallError{
			Operation:   RemoteOperationEdit,
			Kind:        RemoteErrorKindTemporary,
			Platform:    PlatformDiscord,
			CommandName: "ping",
			CommandID:   "1",
			GuildID:     "99",
			Code:        500,
			Cause:       rootCause,
		},
	)

	remoteErr, ok := AsRemoteCallError(err)
	if !ok {
		t.Fatal("AsRemoteCallError = false, want true")
	}
	if remoteErr.Operation != RemoteOperationEdit {
		t.Fatalf("operation = %s, want %s", remoteErr.Operation, RemoteOperationEdit)
	}
	if !errors.Is(err, rootCause) {
		t.Fatalf("errors.Is(err, rootCause) = false, want true (err=%v)", err)
	}
	for _, fragment := range []string{"operation=edit", "command=ping", "guild_id=99", "code=500"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("error %q missing %q", err.Error(), fragment)
		}
	}
}

func TestAsRemoteRateLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		err          error
		wantDuration time.Duration
		wantOK       bool
	}{
		{
			name: "plain error",
			err:  errors.New("plain"),
		},
		{
			name: "permanent",
			err:  &RemoteCallError{Kind: RemoteErrorKindPermanent},
		},
		{
			name: "rate limited",
			err: fmt.Errorf("wrapped: %w", &RemoteCallError{
				Kind:       RemoteErrorKindRateLimited,
				RetryAfter: 5 * time.Second,
			}),
			wantDuration: 5 * time.Second,
			wantOK:       true,
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			duration, ok := AsRemoteRateLimit(testCase.err)
			if ok != testCase.wantOK {
				t.Fatalf("ok = %v, want %v", ok, testCase.wantOK)
			}
			if duration != testCase.wantDuration {
				t.Fatalf("duration = %s, want %s", duration, testCase.wantDuration)
			}
		})
	}
}

func TestConfigurationErrorUnwrap(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("flush: %w", &ConfigurationError{
		Registry: "ping",
		Behavior: BehaviorBulkOverwrite,
		Cause:    ErrBulkOverwriteRejected,
	})
	if !errors.Is(err, ErrBulkOverwriteRejected) {
		t.Fatalf("errors.Is = false for %v", err)
	}
	configErr, ok := AsConfigurationError(err)
	if !ok || configErr.Registry != "ping" {
		t.Fatalf("AsConfigurationError = %v, %v", configErr, ok)
	}
}
