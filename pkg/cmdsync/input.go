package cmdsync

import "fmt"

// CommandInput is one accepted shape for declaring a command.
//
// The set is closed: CommandDefinition (plain data), *CommandBuilder, and
// CommandConfigurer (a callback mutating a fresh builder).
type CommandInput interface {
	commandDefinition(kind CommandKind) (CommandDefinition, error)
}

func (d CommandDefinition) commandDefinition(CommandKind) (CommandDefinition, error) {
	return d, nil
}

// CommandConfigurer mutates a builder pre-seeded with the registered kind.
type CommandConfigurer func(builder *CommandBuilder)

func (f CommandConfigurer) commandDefinition(kind CommandKind) (CommandDefinition, error) {
	if f == nil {
		return CommandDefinition{}, fmt.Errorf("nil configurer")
	}
	builder := NewCommandBuilder(kind)
	f(builder)

	return builder.Definition(), nil
}

// Normalize converts one input into a validated canonical definition of kind.
//
// For context-menu registration kind may be either context-menu subtype: the
// input's own kind wins when it is a context-menu kind.
func Normalize(kind CommandKind, input CommandInput) (CommandDefinition, error) {
	if input == nil {
		return CommandDefinition{}, fmt.Errorf("normalize command: nil input")
	}

	definition, err := input.commandDefinition(kind)
	if err != nil {
		return CommandDefinition{}, fmt.Errorf("normalize command: %w", err)
	}
	if definition.Kind == 0 {
		definition.Kind = kind
	}
	if !kindCompatible(kind, definition.Kind) {
		return CommandDefinition{}, fmt.Errorf(
			"normalize command %s: got %s, want %s: %w",
			definition.Name,
			definition.Kind,
			kind,
			ErrKindMismatch,
		)
	}
	if err := definition.Validate(); err != nil {
		return CommandDefinition{}, fmt.Errorf("normalize command: %w: %w", ErrInvalidDefinition, err)
	}

	return definition.Clone(), nil
}

func kindCompatible(requested CommandKind, actual CommandKind) bool {
	if requested == actual {
		return true
	}

	return requested.IsContextMenu() && actual.IsContextMenu()
}

// CommandBuilder assembles a CommandDefinition fluently.
type CommandBuilder struct {
	definition CommandDefinition
}

// NewCommandBuilder creates a builder for kind.
func NewCommandBuilder(kind CommandKind) *CommandBuilder {
	return &CommandBuilder{definition: CommandDefinition{Kind: kind}}
}

func (b *CommandBuilder) commandDefinition(CommandKind) (CommandDefinition, error) {
	if b == nil {
		return CommandDefinition{}, fmt.Errorf("nil builder")
	}

	return b.Definition(), nil
}

// SetKind overrides the builder kind.
func (b *CommandBuilder) SetKind(kind CommandKind) *CommandBuilder {
	b.definition.Kind = kind
	return b
}

// SetName sets the command name.
func (b *CommandBuilder) SetName(name string) *CommandBuilder {
	b.definition.Name = name
	return b
}

// SetDescription sets the chat-input description.
func (b *CommandBuilder) SetDescription(description string) *CommandBuilder {
	b.definition.Description = description
	return b
}

// SetNameLocalization sets one localized name.
func (b *CommandBuilder) SetNameLocalization(locale string, name string) *CommandBuilder {
	if b.definition.NameLocalizations == nil {
		b.definition.NameLocalizations = make(Localizations)
	}
	b.definition.NameLocalizations[locale] = name
	return b
}

// SetDescriptionLocalization sets one localized description.
func (b *CommandBuilder) SetDescriptionLocalization(locale string, description string) *CommandBuilder {
	if b.definition.DescriptionLocalizations == nil {
		b.definition.DescriptionLocalizations = make(Localizations)
	}
	b.definition.DescriptionLocalizations[locale] = description
	return b
}

// AddOption appends one option.
func (b *CommandBuilder) AddOption(option CommandOption) *CommandBuilder {
	b.definition.Options = append(b.definition.Options, option)
	return b
}

// SetDefaultMemberPermissions sets the default permission bit set.
func (b *CommandBuilder) SetDefaultMemberPermissions(permissions int64) *CommandBuilder {
	b.definition.DefaultMemberPermissions = &permissions
	return b
}

// SetDMPermission sets the legacy DM availability flag.
func (b *CommandBuilder) SetDMPermission(allowed bool) *CommandBuilder {
	b.definition.DMPermission = &allowed
	return b
}

// SetNSFW marks the command age-restricted.
func (b *CommandBuilder) SetNSFW(nsfw bool) *CommandBuilder {
	b.definition.NSFW = nsfw
	return b
}

// SetContexts sets the interaction contexts.
func (b *CommandBuilder) SetContexts(contexts ...InteractionContext) *CommandBuilder {
	b.definition.Contexts = append([]InteractionContext(nil), contexts...)
	return b
}

// SetIntegrationTypes sets the installation contexts.
func (b *CommandBuilder) SetIntegrationTypes(types ...IntegrationType) *CommandBuilder {
	b.definition.IntegrationTypes = append([]IntegrationType(nil), types...)
	return b
}

// Definition returns a deep copy of the assembled definition.
func (b *CommandBuilder) Definition() CommandDefinition {
	return b.definition.Clone()
}

var (
	_ CommandInput = CommandDefinition{}
	_ CommandInput = (*CommandBuilder)(nil)
	_ CommandInput = CommandConfigurer(nil)
)
