// Package common provides shared constants, types, utilities, and interfaces
// used throughout the VPN profile generator.
//
// This package holds the cross-cutting concerns:
//
//   - Constants: file names, deployment defaults, timeouts, exit codes
//   - Errors: the build error taxonomy (ErrArgument, ErrResolution, ErrIO)
//   - Interfaces: address resolution, identifier generation, credential storage
//   - Logger: leveled logging to stderr with optional file output
//   - Utils: config and data directory helpers
//
// # Usage
//
//	// Check which build step failed
//	if errors.Is(err, common.ErrResolution) {
//	    // public address lookup failed
//	}
//	os.Exit(common.ExitCode(err))
package common
