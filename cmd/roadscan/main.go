// Package main is the entry point for roadscan, which turns road photographs
// into encrypted, entropy-scored safety assessments.
//
// Subcommands:
//   - scan: process a directory once and print every assessment
//   - serve: HTTP API, event stream and scheduled maintenance
//   - records: list or export stored ciphertext
//   - backup: upload a snapshot of the results database to R2
package main

func main() {
	Execute()
}
