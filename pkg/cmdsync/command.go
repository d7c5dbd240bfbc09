package cmdsync

import (
	"fmt"
	"maps"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxCommandNameLength        = 32
	maxCommandDescriptionLength = 100
	maxCommandOptions           = 25
	maxOptionChoices            = 25
)

var chatInputNamePattern = regexp.MustCompile(`^[-_\p{L}\p{M}\p{N}]{1,32}$`)

// CommandKind identifies which remote command family a definition belongs to.
type CommandKind int

const (
	// CommandKindChatInput identifies slash commands.
	CommandKindChatInput CommandKind = 1
	// CommandKindUserContextMenu identifies commands shown on a user's context menu.
	CommandKindUserContextMenu CommandKind = 2
	// CommandKindMessageContextMenu identifies commands shown on a message's context menu.
	CommandKindMessageContextMenu CommandKind = 3
)

// Validate checks whether one command kind is supported.
func (k CommandKind) Validate() error {
	switch k {
	case CommandKindChatInput, CommandKindUserContextMenu, CommandKindMessageContextMenu:
		return nil
	default:
		return fmt.Errorf("validate command kind: unsupported kind %d", int(k))
	}
}

// IsContextMenu reports whether k is one of the context-menu subtypes.
func (k CommandKind) IsContextMenu() bool {
	return k == CommandKindUserContextMenu || k == CommandKindMessageContextMenu
}

// String returns the log token for k.
func (k CommandKind) String() string {
	switch k {
	case CommandKindChatInput:
		return "chat_input"
	case CommandKindUserContextMenu:
		return "user_context_menu"
	case CommandKindMessageContextMenu:
		return "message_context_menu"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// OptionType identifies the value type of one chat-input option.
type OptionType int

const (
	// OptionTypeSubcommand declares a nested subcommand.
	OptionTypeSubcommand OptionType = 1
	// OptionTypeSubcommandGroup declares a group of subcommands.
	OptionTypeSubcommandGroup OptionType = 2
	// OptionTypeString declares a string argument.
	OptionTypeString OptionType = 3
	// OptionTypeInteger declares an integer argument.
	OptionTypeInteger OptionType = 4
	// OptionTypeBoolean declares a boolean argument.
	OptionTypeBoolean OptionType = 5
	// OptionTypeUser declares a user argument.
	OptionTypeUser OptionType = 6
	// OptionTypeChannel declares a channel argument.
	OptionTypeChannel OptionType = 7
	// OptionTypeRole declares a role argument.
	OptionTypeRole OptionType = 8
	// OptionTypeMentionable declares a user-or-role argument.
	OptionTypeMentionable OptionType = 9
	// OptionTypeNumber declares a floating point argument.
	OptionTypeNumber OptionType = 10
	// OptionTypeAttachment declares an attachment argument.
	OptionTypeAttachment OptionType = 11
)

// InteractionContext identifies where a command can be invoked.
type InteractionContext int

const (
	// InteractionContextGuild allows invocation inside guilds.
	InteractionContextGuild InteractionContext = 0
	// InteractionContextBotDM allows invocation in direct messages with the bot.
	InteractionContextBotDM InteractionContext = 1
	// InteractionContextPrivateChannel allows invocation in group DMs and other private channels.
	InteractionContextPrivateChannel InteractionContext = 2
)

// IntegrationType identifies how an application must be installed to expose a command.
type IntegrationType int

const (
	// IntegrationTypeGuildInstall exposes the command to guild installs.
	IntegrationTypeGuildInstall IntegrationType = 0
	// IntegrationTypeUserInstall exposes the command to user installs.
	IntegrationTypeUserInstall IntegrationType = 1
)

// Localizations maps a locale token (for example "en-US") to localized text.
type Localizations map[string]string

// CommandOptionChoice is one predefined value of a chat-input option.
type CommandOptionChoice struct {
	// Name is the user-facing choice label.
	Name string
	// NameLocalizations carries per-locale labels.
	NameLocalizations Localizations
	// Value is a string, integer, or floating point choice payload.
	Value any
}

// CommandOption declares one chat-input option, subcommand, or subcommand group.
type CommandOption struct {
	Type                     OptionType
	Name                     string
	NameLocalizations        Localizations
	Description              string
	DescriptionLocalizations Localizations
	Required                 bool
	Autocomplete             bool
	Choices                  []CommandOptionChoice
	// Options holds nested options for subcommands and groups.
	Options      []CommandOption
	ChannelTypes []int
	MinValue     *float64
	MaxValue     *float64
	MinLength    *int
	MaxLength    *int
}

// CommandDefinition is the canonical locally declared command record.
//
// Definitions are immutable once queued: registries keep a deep clone.
type CommandDefinition struct {
	// Kind selects chat-input or one context-menu subtype.
	Kind CommandKind
	// Name is the remote command name.
	Name                     string
	NameLocalizations        Localizations
	Description              string
	DescriptionLocalizations Localizations
	// Options is only valid for chat-input commands.
	Options []CommandOption
	// DefaultMemberPermissions is the permission bit set required by default; nil means unset.
	DefaultMemberPermissions *int64
	// DMPermission is the legacy DM availability flag; nil is treated as true.
	DMPermission     *bool
	NSFW             bool
	Contexts         []InteractionContext
	IntegrationTypes []IntegrationType
}

// Validate checks command definition coherence against remote API limits.
func (d CommandDefinition) Validate() error {
	if err := d.Kind.Validate(); err != nil {
		return fmt.Errorf("validate command definition %q: %w", d.Name, err)
	}

	name := strings.TrimSpace(d.Name)
	if name == "" {
		return fmt.Errorf("validate command definition: missing name")
	}
	if utf8.RuneCountInString(name) > maxCommandNameLength {
		return fmt.Errorf("validate command definition %q: name longer than %d characters", d.Name, maxCommandNameLength)
	}

	if d.Kind.IsContextMenu() {
		if d.Description != "" {
			return fmt.Errorf("validate command definition %q: context menu commands have no description", d.Name)
		}
		if len(d.Options) > 0 {
			return fmt.Errorf("validate command definition %q: context menu commands have no options", d.Name)
		}
		return nil
	}

	if !chatInputNamePattern.MatchString(name) || strings.ToLower(name) != name {
		return fmt.Errorf("validate command definition %q: invalid chat input name", d.Name)
	}
	if err := validateDescription(d.Description); err != nil {
		return fmt.Errorf("validate command definition %q: %w", d.Name, err)
	}
	if err := validateOptions(d.Options, 0); err != nil {
		return fmt.Errorf("validate command definition %q: %w", d.Name, err)
	}

	return nil
}

func validateOptions(options []CommandOption, depth int) error {
	if len(options) > maxCommandOptions {
		return fmt.Errorf("more than %d options", maxCommandOptions)
	}

	seen := make(map[string]struct{}, len(options))
	sawOptional := false
	for index, option := range options {
		if option.Type < OptionTypeSubcommand || option.Type > OptionTypeAttachment {
			return fmt.Errorf("option[%d]: unsupported type %d", index, int(option.Type))
		}
		if !chatInputNamePattern.MatchString(option.Name) {
			return fmt.Errorf("option[%d]: invalid name %q", index, option.Name)
		}
		if _, exists := seen[option.Name]; exists {
			return fmt.Errorf("option[%d]: duplicate name %q", index, option.Name)
		}
		seen[option.Name] = struct{}{}
		if err := validateDescription(option.Description); err != nil {
			return fmt.Errorf("option %s: %w", option.Name, err)
		}
		if len(option.Choices) > maxOptionChoices {
			return fmt.Errorf("option %s: more than %d choices", option.Name, maxOptionChoices)
		}
		if option.Autocomplete && len(option.Choices) > 0 {
			return fmt.Errorf("option %s: autocomplete cannot declare choices", option.Name)
		}

		switch option.Type {
		case OptionTypeSubcommandGroup:
			if depth > 0 {
				return fmt.Errorf("option %s: subcommand groups cannot be nested", option.Name)
			}
			for _, nested := range option.Options {
				if nested.Type != OptionTypeSubcommand {
					return fmt.Errorf("option %s: groups may only contain subcommands", option.Name)
				}
			}
			if err := validateOptions(option.Options, depth+1); err != nil {
				return fmt.Errorf("option %s: %w", option.Name, err)
			}
		case OptionTypeSubcommand:
			if depth > 1 {
				return fmt.Errorf("option %s: subcommand nested too deep", option.Name)
			}
			if err := validateOptions(option.Options, 2); err != nil {
				return fmt.Errorf("option %s: %w", option.Name, err)
			}
		default:
			if len(option.Options) > 0 {
				return fmt.Errorf("option %s: only subcommands may nest options", option.Name)
			}
			if option.Required && sawOptional {
				return fmt.Errorf("option %s: required options must precede optional ones", option.Name)
			}
			if !option.Required {
				sawOptional = true
			}
		}
	}

	return nil
}

func validateDescription(description string) error {
	trimmed := strings.TrimSpace(description)
	if trimmed == "" {
		return fmt.Errorf("missing description")
	}
	if utf8.RuneCountInString(trimmed) > maxCommandDescriptionLength {
		return fmt.Errorf("description longer than %d characters", maxCommandDescriptionLength)
	}

	return nil
}

// Clone returns a deep copy of d so callers cannot mutate queued definitions.
func (d CommandDefinition) Clone() CommandDefinition {
	cloned := d
	cloned.NameLocalizations = cloneLocalizations(d.NameLocalizations)
	cloned.DescriptionLocalizations = cloneLocalizations(d.DescriptionLocalizations)
	cloned.Options = cloneOptions(d.Options)
	if d.DefaultMemberPermissions != nil {
		value := *d.DefaultMemberPermissions
		cloned.DefaultMemberPermissions = &value
	}
	if d.DMPermission != nil {
		value := *d.DMPermission
		cloned.DMPermission = &value
	}
	if d.Contexts != nil {
		cloned.Contexts = append([]InteractionContext(nil), d.Contexts...)
	}
	if d.IntegrationTypes != nil {
		cloned.IntegrationTypes = append([]IntegrationType(nil), d.IntegrationTypes...)
	}

	return cloned
}

func cloneOptions(options []CommandOption) []CommandOption {
	if options == nil {
		return nil
	}

	cloned := make([]CommandOption, len(options))
	for index, option := range options {
		copied := option
		copied.NameLocalizations = cloneLocalizations(option.NameLocalizations)
		copied.DescriptionLocalizations = cloneLocalizations(option.DescriptionLocalizations)
		copied.Options = cloneOptions(option.Options)
		if option.Choices != nil {
			copied.Choices = make([]CommandOptionChoice, len(option.Choices))
			for choiceIndex, choice := range option.Choices {
				copied.Choices[choiceIndex] = CommandOptionChoice{
					Name:              choice.Name,
					NameLocalizations: cloneLocalizations(choice.NameLocalizations),
					Value:             choice.Value,
				}
			}
		}
		if option.ChannelTypes != nil {
			copied.ChannelTypes = append([]int(nil), option.ChannelTypes...)
		}
		copied.MinValue = clonePointer(option.MinValue)
		copied.MaxValue = clonePointer(option.MaxValue)
		copied.MinLength = clonePointer(option.MinLength)
		copied.MaxLength = clonePointer(option.MaxLength)
		cloned[index] = copied
	}

	return cloned
}

func cloneLocalizations(values Localizations) Localizations {
	if values == nil {
		return nil
	}

	return maps.Clone(values)
}

func clonePointer[T any](value *T) *T {
	if value == nil {
		return nil
	}
	copied := *value

	return &copied
}
