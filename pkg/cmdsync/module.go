package cmdsync

import "fmt"

// Module is one application unit owning a set of commands.
//
// Each module is reconciled through its own registry named after Name.
type Module interface {
	// Name returns the stable module identifier.
	Name() string
	// Spec declares the commands the module owns.
	Spec() ModuleSpec
}

// ModuleSpec declares everything a module registers.
type ModuleSpec struct {
	// Commands lists command declarations in registration order.
	Commands []CommandSpec
}

// CommandSpec declares one command and its registration options.
type CommandSpec struct {
	// Kind selects the register path; zero means chat input.
	Kind CommandKind
	// Input is any accepted command input shape.
	Input CommandInput
	// Options are the module's own registration options.
	Options RegisterOptions
	// Platforms restricts the declaration to some platforms; empty means all.
	Platforms []Platform
}

// AppliesTo reports whether the declaration targets platform.
//
// An empty platform matches every declaration.
func (s CommandSpec) AppliesTo(platform Platform) bool {
	if platform == "" || len(s.Platforms) == 0 {
		return true
	}
	for _, candidate := range s.Platforms {
		if candidate == platform {
			return true
		}
	}

	return false
}

// Validate checks one command declaration before registration.
func (s CommandSpec) Validate() error {
	if s.Input == nil {
		return fmt.Errorf("validate command spec: nil input")
	}
	if s.Kind != 0 {
		if err := s.Kind.Validate(); err != nil {
			return fmt.Errorf("validate command spec: %w", err)
		}
	}

	return nil
}

// Override layers operator options over module-declared ones.
//
// Set fields in override win; IDHints are unioned.
func (o RegisterOptions) Override(override RegisterOptions) RegisterOptions {
	merged := o
	if len(override.GuildIDs) > 0 {
		merged.GuildIDs = append([]string(nil), override.GuildIDs...)
	}
	if override.RegisterIfMissing != nil {
		registerIfMissing := *override.RegisterIfMissing
		merged.RegisterIfMissing = &registerIfMissing
	}
	if override.Behavior != "" {
		merged.Behavior = override.Behavior
	}
	if len(override.IDHints) > 0 {
		merged.IDHints = append(append([]string(nil), o.IDHints...), override.IDHints...)
	}

	return merged
}
