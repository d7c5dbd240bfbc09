package telegram

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gotd/td/tg"
)

func TestParseScope(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		guildID  string
		wantType string
		wantErr  bool
	}{
		{name: "default", guildID: "", wantType: "*tg.BotCommandScopeDefault"},
		{name: "all private chats", guildID: "all_private_chats", wantType: "*tg.BotCommandScopeUsers"},
		{name: "all group chats", guildID: "all_group_chats", wantType: "*tg.BotCommandScopeChats"},
		{name: "all admins", guildID: "all_chat_administrators", wantType: "*tg.BotCommandScopeChatAdmins"},
		{name: "basic group", guildID: "chat:42", wantType: "*tg.BotCommandScopePeer"},
		{name: "supergroup", guildID: "channel:42:-99", wantType: "*tg.BotCommandScopePeer"},
		{name: "user", guildID: "user:7:77", wantType: "*tg.BotCommandScopePeer"},
		{name: "unknown kind", guildID: "guild:1", wantErr: true},
		{name: "chat with hash", guildID: "chat:1:2", wantErr: true},
		{name: "channel without hash", guildID: "channel:1", wantErr: true},
		{name: "non numeric id", guildID: "chat:abc", wantErr: true},
		{name: "zero id", guildID: "chat:0", wantErr: true},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			scope, err := parseScope(testCase.guildID)
			if testCase.wantErr {
				if !errors.Is(err, errInvalidScope) {
					t.Fatalf("parse error = %v, want errInvalidScope", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse scope failed: %v", err)
			}
			if got := fmt.Sprintf("%T", scope); got != testCase.wantType {
				t.Fatalf("scope type = %s, want %s", got, testCase.wantType)
			}
		})
	}
}

func TestParseScopePeers(t *testing.T) {
	t.Parallel()

	scope, err := parseScope("channel:42:-99")
	if err != nil {
		t.Fatalf("parse scope failed: %v", err)
	}
	peer, ok := scope.(*tg.BotCommandScopePeer).Peer.(*tg.InputPeerChannel)
	if !ok || peer.ChannelID != 42 || peer.AccessHash != -99 {
		t.Fatalf("peer = %#v, want channel 42/-99", scope)
	}

	scope, err = parseScope("user:7:77")
	if err != nil {
		t.Fatalf("parse scope failed: %v", err)
	}
	user, ok := scope.(*tg.BotCommandScopePeer).Peer.(*tg.InputPeerUser)
	if !ok || user.UserID != 7 || user.AccessHash != 77 {
		t.Fatalf("peer = %#v, want user 7/77", scope)
	}
}
