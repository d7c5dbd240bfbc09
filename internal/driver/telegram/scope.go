package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gotd/td/tg"
)

// Scope tokens accepted in place of a guild id.
//
//	""                         default scope
//	"all_private_chats"        every private chat
//	"all_group_chats"          every group chat
//	"all_chat_administrators"  administrators of every group chat
//	"chat:<id>"                one basic group
//	"channel:<id>:<hash>"      one supergroup
//	"user:<id>:<hash>"         one private chat
const (
	scopeAllPrivateChats  = "all_private_chats"
	scopeAllGroupChats    = "all_group_chats"
	scopeAllChatAdmins    = "all_chat_administrators"
	scopePrefixChat       = "chat"
	scopePrefixChannel    = "channel"
	scopePrefixUser       = "user"
	scopeFieldsWithHash   = 3
	scopeFieldsWithoutKey = 2
)

var errInvalidScope = errors.New("telegram: invalid command scope")

// parseScope converts one scope token into a bot command scope.
func parseScope(guildID string) (tg.BotCommandScopeClass, error) {
	token := strings.TrimSpace(guildID)
	switch token {
	case "":
		return &tg.BotCommandScopeDefault{}, nil
	case scopeAllPrivateChats:
		return &tg.BotCommandScopeUsers{}, nil
	case scopeAllGroupChats:
		return &tg.BotCommandScopeChats{}, nil
	case scopeAllChatAdmins:
		return &tg.BotCommandScopeChatAdmins{}, nil
	}

	peer, err := parseInputPeer(token)
	if err != nil {
		return nil, fmt.Errorf("parse scope %q: %w: %w", guildID, errInvalidScope, err)
	}

	return &tg.BotCommandScopePeer{Peer: peer}, nil
}

func parseInputPeer(token string) (tg.InputPeerClass, error) {
	fields := strings.Split(token, ":")
	switch fields[0] {
	case scopePrefixChat:
		if len(fields) != scopeFieldsWithoutKey {
			return nil, fmt.Errorf("want chat:<id>")
		}
		id, err := parsePeerNumber(fields[1], "id")
		if err != nil {
			return nil, err
		}
		return &tg.InputPeerChat{ChatID: id}, nil
	case scopePrefixChannel, scopePrefixUser:
		if len(fields) != scopeFieldsWithHash {
			return nil, fmt.Errorf("want %s:<id>:<access_hash>", fields[0])
		}
		id, err := parsePeerNumber(fields[1], "id")
		if err != nil {
			return nil, err
		}
		accessHash, err := parsePeerNumber(fields[2], "access_hash")
		if err != nil {
			return nil, err
		}
		if fields[0] == scopePrefixChannel {
			return &tg.InputPeerChannel{ChannelID: id, AccessHash: accessHash}, nil
		}
		return &tg.InputPeerUser{UserID: id, AccessHash: accessHash}, nil
	default:
		return nil, fmt.Errorf("unsupported scope kind %q", fields[0])
	}
}

func parsePeerNumber(raw string, field string) (int64, error) {
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", field, err)
	}
	if field == "id" && value <= 0 {
		return 0, fmt.Errorf("parse %s: must be > 0", field)
	}

	return value, nil
}
