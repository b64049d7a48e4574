// Package cli implements the mockscope command line: serve runs a
// standalone engine, verify applies the unmatched-request check to a
// running one, config prints the effective settings and version prints
// build information.
package cli
