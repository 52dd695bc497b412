// Package file provides file-based implementations of driven port interfaces.
//
// ConfigStore persists configuration as TOML under the hirelens config
// directory, layers HIRELENS_* environment overrides on top, and can watch
// the file for edits so a running daemon picks up changes without a restart.
package file
