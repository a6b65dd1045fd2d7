// Package assets embeds the data files shipped with the binary.
package assets

import _ "embed"

// DefaultShortcuts is the built-in binding list, one record per binding.
//
//go:embed default_shortcuts.json
var DefaultShortcuts []byte

// Preselection holds the built-in grouping rules keyed by main command.
//
//go:embed preselection.json
var Preselection []byte

// KeyMappings maps binding key names to event key codes and display glyphs.
//
//go:embed key_mappings.json
var KeyMappings []byte
