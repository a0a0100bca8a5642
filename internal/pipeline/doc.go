// Package pipeline orchestrates audit execution.
// A Pipeline runs check steps in sequence against one policy, folding
// control results and findings into an audit report. A BatchProcessor runs
// one pipeline per policy concurrently with a bounded worker count.
package pipeline
