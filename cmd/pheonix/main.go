// Package main provides the entry point for the pheonix CLI.
//
// pheonix gathers public information about a phone number, an email
// address, a username or an IPv4 address from several providers and merges
// the answers into one report.
//
// Usage:
//
//	pheonix analyze <kind> <input>...
//	pheonix phone +14155552671
//	pheonix serve --addr :8080
//
// See --help for all available options.
package main

// main is the entry point for pheonix.
func main() {
	Execute()
}
