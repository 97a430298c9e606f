// Package report renders aggregate reports.
//
// This package contains writers for different output formats:
//   - SimpleWriter: plain text for terminal display, with tables for
//     breaches, site hits and username platforms
//   - JSONWriter and FullJSONWriter: structured JSON for tool integration
//   - MarkdownWriter: Markdown with GitHub alerts for failures
//
// Every writer renders a failed provider result as one labeled line of
// the form "[Label] provider: error".
package report
