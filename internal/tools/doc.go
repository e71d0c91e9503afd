// Package tools exposes the audit operations as named tools with JSON
// parameters and results. A Registry dispatches tool calls; Server
// speaks newline-delimited JSON over a reader/writer pair.
package tools
