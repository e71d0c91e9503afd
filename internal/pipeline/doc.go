// Package pipeline orchestrates audit steps into full site audits.
// A Pipeline runs steps in sequence against one report; a
// BatchProcessor runs pipelines for many sites concurrently.
package pipeline
