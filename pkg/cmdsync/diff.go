package cmdsync

import (
	"fmt"
	"reflect"
	"sort"
)

// Difference is one mismatching field between a remote command and its local definition.
type Difference struct {
	// Path locates the field, for example "options[1].choices[0].value".
	Path string
	// Original is the remote value; nil when the remote side lacks the element.
	Original any
	// Expected is the locally declared value; nil when the local side lacks the element.
	Expected any
}

// String renders d for logs.
func (d Difference) String() string {
	return fmt.Sprintf("%s: %v -> %v", d.Path, d.Original, d.Expected)
}

// HasDifferences reports whether remote diverges from desired.
//
// It stops at the first mismatching field. HasDifferences returns false
// exactly when Differences returns no records.
func HasDifferences(remote RemoteCommand, desired CommandDefinition) bool {
	walker := diffWalker{firstOnly: true}
	walker.command(remote.CommandDefinition, desired)

	return len(walker.found) > 0
}

// Differences returns every mismatching field between remote and desired in
// a deterministic order.
func Differences(remote RemoteCommand, desired CommandDefinition) []Difference {
	walker := diffWalker{}
	walker.command(remote.CommandDefinition, desired)

	return walker.found
}

// diffWalker applies one set of equivalence rules for both diff entry points.
// In firstOnly mode every step becomes a no-op once one record exists.
type diffWalker struct {
	firstOnly bool
	found     []Difference
}

func (w *diffWalker) done() bool {
	return w.firstOnly && len(w.found) > 0
}

func (w *diffWalker) report(path string, original any, expected any) {
	w.found = append(w.found, Difference{Path: path, Original: original, Expected: expected})
}

func (w *diffWalker) value(path string, original any, expected any) {
	if w.done() {
		return
	}
	if !valuesEqual(original, expected) {
		w.report(path, original, expected)
	}
}

func (w *diffWalker) command(original CommandDefinition, expected CommandDefinition) {
	w.value("type", original.Kind, expected.Kind)
	w.value("name", original.Name, expected.Name)
	w.localizations("nameLocalizations", original.NameLocalizations, expected.NameLocalizations)

	if expected.Kind == CommandKindChatInput {
		w.value("description", original.Description, expected.Description)
		w.localizations(
			"descriptionLocalizations",
			original.DescriptionLocalizations,
			expected.DescriptionLocalizations,
		)
	}

	w.value(
		"defaultMemberPermissions",
		pointerValue(original.DefaultMemberPermissions),
		pointerValue(expected.DefaultMemberPermissions),
	)
	w.value("dmPermission", boolOrTrue(original.DMPermission), boolOrTrue(expected.DMPermission))
	w.value("nsfw", original.NSFW, expected.NSFW)
	diffList(w, "contexts", original.Contexts, expected.Contexts)
	diffList(w, "integrationTypes", original.IntegrationTypes, expected.IntegrationTypes)

	if expected.Kind == CommandKindChatInput {
		w.options("options", original.Options, expected.Options)
	}
}

func (w *diffWalker) options(path string, original []CommandOption, expected []CommandOption) {
	for index := 0; index < max(len(original), len(expected)); index++ {
		if w.done() {
			return
		}

		elementPath := fmt.Sprintf("%s[%d]", path, index)
		switch {
		case index >= len(original):
			w.report(elementPath, nil, expected[index])
		case index >= len(expected):
			w.report(elementPath, original[index], nil)
		default:
			w.option(elementPath, original[index], expected[index])
		}
	}
}

func (w *diffWalker) option(path string, original CommandOption, expected CommandOption) {
	w.value(path+".type", original.Type, expected.Type)
	w.value(path+".name", original.Name, expected.Name)
	w.localizations(path+".nameLocalizations", original.NameLocalizations, expected.NameLocalizations)
	w.value(path+".description", original.Description, expected.Description)
	w.localizations(
		path+".descriptionLocalizations",
		original.DescriptionLocalizations,
		expected.DescriptionLocalizations,
	)
	w.value(path+".required", original.Required, expected.Required)
	w.value(path+".autocomplete", original.Autocomplete, expected.Autocomplete)
	diffList(w, path+".channelTypes", original.ChannelTypes, expected.ChannelTypes)
	w.value(path+".minValue", pointerValue(original.MinValue), pointerValue(expected.MinValue))
	w.value(path+".maxValue", zeroAsNil(original.MaxValue), zeroAsNil(expected.MaxValue))
	w.value(path+".minLength", pointerValue(original.MinLength), pointerValue(expected.MinLength))
	w.value(path+".maxLength", zeroAsNil(original.MaxLength), zeroAsNil(expected.MaxLength))
	w.choices(path+".choices", original.Choices, expected.Choices)
	w.options(path+".options", original.Options, expected.Options)
}

func (w *diffWalker) choices(path string, original []CommandOptionChoice, expected []CommandOptionChoice) {
	for index := 0; index < max(len(original), len(expected)); index++ {
		if w.done() {
			return
		}

		elementPath := fmt.Sprintf("%s[%d]", path, index)
		switch {
		case index >= len(original):
			w.report(elementPath, nil, expected[index])
		case index >= len(expected):
			w.report(elementPath, original[index], nil)
		default:
			w.value(elementPath+".name", original[index].Name, expected[index].Name)
			w.localizations(
				elementPath+".nameLocalizations",
				original[index].NameLocalizations,
				expected[index].NameLocalizations,
			)
			w.value(elementPath+".value", original[index].Value, expected[index].Value)
		}
	}
}

// localizations compares per locale; a missing map equals an empty one.
func (w *diffWalker) localizations(path string, original Localizations, expected Localizations) {
	if w.done() {
		return
	}

	locales := make([]string, 0, len(original)+len(expected))
	for locale := range original {
		locales = append(locales, locale)
	}
	for locale := range expected {
		if _, exists := original[locale]; !exists {
			locales = append(locales, locale)
		}
	}
	sort.Strings(locales)

	for _, locale := range locales {
		w.value(path+"."+locale, localizedValue(original, locale), localizedValue(expected, locale))
	}
}

// diffList compares ordered lists position by position; nil equals empty.
func diffList[T comparable](w *diffWalker, path string, original []T, expected []T) {
	for index := 0; index < max(len(original), len(expected)); index++ {
		if w.done() {
			return
		}

		elementPath := fmt.Sprintf("%s[%d]", path, index)
		switch {
		case index >= len(original):
			w.report(elementPath, nil, expected[index])
		case index >= len(expected):
			w.report(elementPath, original[index], nil)
		case original[index] != expected[index]:
			w.report(elementPath, original[index], expected[index])
		}
	}
}

func localizedValue(values Localizations, locale string) any {
	value, exists := values[locale]
	if !exists {
		return nil
	}

	return value
}

func pointerValue[T any](value *T) any {
	if value == nil {
		return nil
	}

	return *value
}

// zeroAsNil folds a zero upper bound into unset; remotes drop zero maxima on the wire.
func zeroAsNil[T int | float64](value *T) any {
	if value == nil || *value == 0 {
		return nil
	}

	return *value
}

func boolOrTrue(value *bool) bool {
	if value == nil {
		return true
	}

	return *value
}

// valuesEqual compares by value; numbers compare across integer and float representations.
func valuesEqual(original any, expected any) bool {
	originalNumber, originalIsNumber := asFloat(original)
	expectedNumber, expectedIsNumber := asFloat(expected)
	if originalIsNumber && expectedIsNumber {
		return originalNumber == expectedNumber
	}

	return reflect.DeepEqual(original, expected)
}

func asFloat(value any) (float64, bool) {
	if value == nil {
		return 0, false
	}

	reflected := reflect.ValueOf(value)
	switch reflected.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(reflected.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(reflected.Uint()), true
	case reflect.Float32, reflect.Float64:
		return reflected.Float(), true
	default:
		return 0, false
	}
}
