// Package config provides configuration structures and utilities for pheonix.
// It defines the runtime options of a command, the layout of the .pheonix
// YAML file holding API keys, data file paths and limits, and the lookup
// of that file.
package config
