// Package common provides shared constants, types, and utilities
// used across the VPN profile generator.
package common

import "context"

// AddressResolver discovers the caller's public network address.
// Implementations make a single attempt and never retry.
type AddressResolver interface {
	// Resolve returns the trimmed public address or an ErrResolution error.
	Resolve(ctx context.Context) (string, error)
}

// IDGenerator produces unique identifiers drawn from a 128-bit random space.
type IDGenerator interface {
	// NewID returns a fresh identifier.
	NewID() string
}

// CredentialStore defines the interface for pre-shared key storage.
// Implementations may use system keyring, encrypted files, etc.
type CredentialStore interface {
	// Save stores the key for the given network and account.
	Save(ssid, username, key string) error
	// Load retrieves the key for the given network and account.
	Load(ssid, username string) (string, error)
	// Delete removes the key for the given network and account.
	Delete(ssid, username string) error
}

// Notifier defines the interface for sending desktop notifications.
type Notifier interface {
	// Notify sends a notification with the given title and message.
	Notify(title, message string) error
}
