package telegram

import (
	"errors"
	"strings"

	"ex-cmdsync/pkg/cmdsync"

	"github.com/gotd/td/tgerr"
)

func mapTelegramError(
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
	if errors.Is(err, cmdsync.ErrUnsupportedCommand) || errors.Is(err, cmdsync.ErrCommandNotFound) ||
		errors.Is(err, errInvalidScope) {
		remoteErr.Kind = cmdsync.RemoteErrorKindPermanent
		return remoteErr
	}

	if retryAfter, ok := tgerr.AsFloodWait(err); ok {
		remoteErr.Kind = cmdsync.RemoteErrorKindRateLimited
		remoteErr.RetryAfter = retryAfter
		if rpcErr, hasRPC := tgerr.As(err); hasRPC {
			remoteErr.Code = rpcErr.Code
			remoteErr.Type = rpcErr.Type
		}

		return remoteErr
	}

	rpcErr, ok := tgerr.As(err)
	if !ok {
		return remoteErr
	}

	remoteErr.Code = rpcErr.Code
	remoteErr.Type = rpcErr.Type
	remoteErr.Kind = classifyTelegramRPCError(rpcErr)

	return remoteErr
}

func classifyTelegramRPCError(rpcErr *tgerr.Error) cmdsync.RemoteErrorKind {
	if rpcErr == nil {
		return cmdsync.RemoteErrorKindUnknown
	}

	errorType := strings.ToUpper(strings.TrimSpace(rpcErr.Type))
	if rpcErr.Code == 420 || rpcErr.Code == 429 || strings.Contains(errorType, "FLOOD") {
		return cmdsync.RemoteErrorKindRateLimited
	}

	switch rpcErr.Code {
	case 303:
		return cmdsync.RemoteErrorKindTemporary
	case 400, 401, 403, 404, 405, 406:
		return cmdsync.RemoteErrorKindPermanent
	}
	if rpcErr.Code >= 500 {
		return cmdsync.RemoteErrorKindTemporary
	}

	return cmdsync.RemoteErrorKindUnknown
}
