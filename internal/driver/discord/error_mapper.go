package discord

import (
	"context"
	"errors"
	"net/http"

	"ex-cmdsync/pkg/cmdsync"

	"github.com/bwmarrin/discordgo"
)

func mapDiscordError(
	operation cmdsync.RemoteOperation,
	guildID string,
	commandID string,
	err error,
) error {
	if err == nil {
		return nil
	}

	remoteErr := &cmdsync.RemoteCallError{
		Operation: operation,
		Kind:      cmdsync.RemoteErrorKindUnknown,
		Platform:  DriverPlatform,
		GuildID:   guildID,
		CommandID: commandID,
		Cause:     err,
	}

	var rateLimitErr *discordgo.RateLimitError
	if errors.As(err, &rateLimitErr) {
		remoteErr.Kind = cmdsync.RemoteErrorKindRateLimited
		remoteErr.Code = http.StatusTooManyRequests
		if rateLimitErr.RateLimit != nil && rateLimitErr.TooManyRequests != nil {
			remoteErr.RetryAfter = rateLimitErr.RetryAfter
		}
		return remoteErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		remoteErr.Kind = cmdsync.RemoteErrorKindTemporary
		return remoteErr
	}

	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return remoteErr
	}

	if restErr.Message != nil {
		remoteErr.Type = restErr.Message.Message
	}
	if restErr.Response != nil {
		remoteErr.Code = restErr.Response.StatusCode
	}
	remoteErr.Kind = classifyStatus(remoteErr.Code)
	if remoteErr.Code == http.StatusNotFound {
		remoteErr.Cause = errors.Join(err, cmdsync.ErrCommandNotFound)
	}

	return remoteErr
}

func classifyStatus(status int) cmdsync.RemoteErrorKind {
	switch {
	case status == http.StatusTooManyRequests:
		return cmdsync.RemoteErrorKindRateLimited
	case status == http.StatusRequestTimeout:
		return cmdsync.RemoteErrorKindTemporary
	case status >= 500:
		return cmdsync.RemoteErrorKindTemporary
	case status >= 400:
		return cmdsync.RemoteErrorKindPermanent
	default:
		return cmdsync.RemoteErrorKindUnknown
	}
}
