// Package common provides shared constants, types, and utilities
// used across the VPN profile generator.
package common

import "time"

// Application metadata.
const (
	// AppName is the command name of the application.
	AppName = "vpn-profile"
	// KeyringService is the service name used in the system keyring.
	KeyringService = "vpn-profile"
	// ConfigDirName is the name of the configuration directory.
	ConfigDirName = "vpn-profile"
)

// File names used by the application.
const (
	ProfileFileName     = "vpn.mobileconfig"
	ConfigFileName      = "config.yaml"
	CredentialsFileName = ".credentials"
	HistoryFileName     = "history.db"
	LogFileName         = "vpn-profile.log"
)

// Deployment defaults. These are the values baked into every profile
// unless a config file overrides them.
const (
	DefaultOrganization   = "My Company"
	DefaultDisplayName    = "VPN Configuration"
	DefaultConnectionName = "vpn.domain.com"
	DefaultOutputDir      = "."
)

// Address resolution defaults.
const (
	// DefaultResolverURL is the public IP-echo service.
	DefaultResolverURL = "https://checkip.amazonaws.com"
	// ResolveTimeout bounds the single outbound resolution call.
	ResolveTimeout = 10 * time.Second
	// MaxResolveBody caps how much of the echo response is read.
	MaxResolveBody = 64 * 1024
)

// Exit codes.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitArgument   = 2
	ExitResolution = 3
	ExitIO         = 4
)
