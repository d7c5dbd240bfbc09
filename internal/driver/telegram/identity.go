package telegram

import "ex-cmdsync/pkg/cmdsync"

const (
	// DriverType is the configured driver type token for the Telegram runtime.
	DriverType = "telegram"
	// DriverPlatform is the remote platform served by the Telegram runtime.
	DriverPlatform = cmdsync.PlatformTelegram
)
