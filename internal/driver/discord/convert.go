package discord

import (
	"ex-cmdsync/pkg/cmdsync"

	"github.com/bwmarrin/discordgo"
)

func toApplicationCommand(definition cmdsync.CommandDefinition) *discordgo.ApplicationCommand {
	command := &discordgo.ApplicationCommand{
		Type:                     discordgo.ApplicationCommandType(definition.Kind),
		Name:                     definition.Name,
		NameLocalizations:        toLocaleMapPointer(definition.NameLocalizations),
		DefaultMemberPermissions: definition.DefaultMemberPermissions,
		DMPermission:             definition.DMPermission,
		Options:                  toOptions(definition.Options),
	}
	if definition.NSFW {
		nsfw := true
		command.NSFW = &nsfw
	}
	if definition.Kind == cmdsync.CommandKindChatInput {
		command.Description = definition.Description
		command.DescriptionLocalizations = toLocaleMapPointer(definition.DescriptionLocalizations)
	}
	if definition.Contexts != nil {
		contexts := make([]discordgo.InteractionContextType, 0, len(definition.Contexts))
		for _, value := range definition.Contexts {
			contexts = append(contexts, discordgo.InteractionContextType(value))
		}
		command.Contexts = &contexts
	}
	if definition.IntegrationTypes != nil {
		integrationTypes := make([]discordgo.ApplicationIntegrationType, 0, len(definition.IntegrationTypes))
		for _, value := range definition.IntegrationTypes {
			integrationTypes = append(integrationTypes, discordgo.ApplicationIntegrationType(value))
		}
		command.IntegrationTypes = &integrationTypes
	}

	return command
}

func toOptions(options []cmdsync.CommandOption) []*discordgo.ApplicationCommandOption {
	if len(options) == 0 {
		return nil
	}

	converted := make([]*discordgo.ApplicationCommandOption, 0, len(options))
	for _, option := range options {
		next := &discordgo.ApplicationCommandOption{
			Type:                     discordgo.ApplicationCommandOptionType(option.Type),
			Name:                     option.Name,
			NameLocalizations:        toLocaleMap(option.NameLocalizations),
			Description:              option.Description,
			DescriptionLocalizations: toLocaleMap(option.DescriptionLocalizations),
			Required:                 option.Required,
			Autocomplete:             option.Autocomplete,
			Options:                  toOptions(option.Options),
			MinValue:                 option.MinValue,
			MinLength:                option.MinLength,
		}
		if option.MaxValue != nil {
			next.MaxValue = *option.MaxValue
		}
		if option.MaxLength != nil {
			next.MaxLength = *option.MaxLength
		}
		for _, channelType := range option.ChannelTypes {
			next.ChannelTypes = append(next.ChannelTypes, discordgo.ChannelType(channelType))
		}
		for _, choice := range option.Choices {
			next.Choices = append(next.Choices, &discordgo.ApplicationCommandOptionChoice{
				Name:              choice.Name,
				NameLocalizations: toLocaleMap(choice.NameLocalizations),
				Value:             choice.Value,
			})
		}
		converted = append(converted, next)
	}

	return converted
}

func fromApplicationCommand(command *discordgo.ApplicationCommand) cmdsync.RemoteCommand {
	kind := cmdsync.CommandKind(command.Type)
	if kind == 0 {
		kind = cmdsync.CommandKindChatInput
	}

	remote := cmdsync.RemoteCommand{
		ID:            command.ID,
		ApplicationID: command.ApplicationID,
		GuildID:       command.GuildID,
		Version:       command.Version,
		CommandDefinition: cmdsync.CommandDefinition{
			Kind:                     kind,
			Name:                     command.Name,
			Description:              command.Description,
			DefaultMemberPermissions: command.DefaultMemberPermissions,
			DMPermission:             command.DMPermission,
			Options:                  fromOptions(command.Options),
		},
	}
	if command.NameLocalizations != nil {
		remote.NameLocalizations = fromLocaleMap(*command.NameLocalizations)
	}
	if command.DescriptionLocalizations != nil {
		remote.DescriptionLocalizations = fromLocaleMap(*command.DescriptionLocalizations)
	}
	if command.NSFW != nil {
		remote.NSFW = *command.NSFW
	}
	if command.Contexts != nil {
		for _, value := range *command.Contexts {
			remote.Contexts = append(remote.Contexts, cmdsync.InteractionContext(value))
		}
	}
	if command.IntegrationTypes != nil {
		for _, value := range *command.IntegrationTypes {
			remote.IntegrationTypes = append(remote.IntegrationTypes, cmdsync.IntegrationType(value))
		}
	}

	return remote
}

func fromOptions(options []*discordgo.ApplicationCommandOption) []cmdsync.CommandOption {
	if len(options) == 0 {
		return nil
	}

	converted := make([]cmdsync.CommandOption, 0, len(options))
	for _, option := range options {
		if option == nil {
			continue
		}
		next := cmdsync.CommandOption{
			Type:                     cmdsync.OptionType(option.Type),
			Name:                     option.Name,
			NameLocalizations:        fromLocaleMap(option.NameLocalizations),
			Description:              option.Description,
			DescriptionLocalizations: fromLocaleMap(option.DescriptionLocalizations),
			Required:                 option.Required,
			Autocomplete:             option.Autocomplete,
			Options:                  fromOptions(option.Options),
			MinValue:                 option.MinValue,
			MinLength:                option.MinLength,
		}
		if option.MaxValue != 0 {
			maxValue := option.MaxValue
			next.MaxValue = &maxValue
		}
		if option.MaxLength != 0 {
			maxLength := option.MaxLength
			next.MaxLength = &maxLength
		}
		for _, channelType := range option.ChannelTypes {
			next.ChannelTypes = append(next.ChannelTypes, int(channelType))
		}
		for _, choice := range option.Choices {
			if choice == nil {
				continue
			}
			next.Choices = append(next.Choices, cmdsync.CommandOptionChoice{
				Name:              choice.Name,
				NameLocalizations: fromLocaleMap(choice.NameLocalizations),
				Value:             choice.Value,
			})
		}
		converted = append(converted, next)
	}

	return converted
}

func toLocaleMap(values cmdsync.Localizations) map[discordgo.Locale]string {
	if len(values) == 0 {
		return nil
	}

	converted := make(map[discordgo.Locale]string, len(values))
	for locale, value := range values {
		converted[discordgo.Locale(locale)] = value
	}

	return converted
}

func toLocaleMapPointer(values cmdsync.Localizations) *map[discordgo.Locale]string {
	converted := toLocaleMap(values)
	if converted == nil {
		return nil
	}

	return &converted
}

func fromLocaleMap(values map[discordgo.Locale]string) cmdsync.Localizations {
	if len(values) == 0 {
		return nil
	}

	converted := make(cmdsync.Localizations, len(values))
	for locale, value := range values {
		converted[string(locale)] = value
	}

	return converted
}
