// Package vpn provides configuration profile generation.
// This file contains the Profile record and the pure Build step.
package vpn

import (
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/yllada/vpn-profile/common"
)

// Fixed payload values understood by the consuming OS.
const (
	ProfilePayloadType = "Configuration"
	VPNPayloadType     = "com.apple.vpn.managed"
	PayloadVersion     = 1

	VPNTypeL2TP              = "L2TP"
	AuthMethodSharedSecret   = "SharedSecret"
	LocalIdentifierTypeKeyID = "KeyID"
	InterfaceTypeWiFi        = "WiFi"

	ActionConnect    = "Connect"
	ActionDisconnect = "Disconnect"
)

// Profile is the top level of a configuration profile.
// Field tags are the plist keys; the encoder sorts them on output.
type Profile struct {
	PayloadContent           []VPNPayload `plist:"PayloadContent"`
	PayloadDisplayName       string       `plist:"PayloadDisplayName"`
	PayloadIdentifier        string       `plist:"PayloadIdentifier"`
	PayloadOrganization      string       `plist:"PayloadOrganization"`
	PayloadRemovalDisallowed bool         `plist:"PayloadRemovalDisallowed"`
	PayloadType              string       `plist:"PayloadType"`
	PayloadUUID              string       `plist:"PayloadUUID"`
	PayloadVersion           int          `plist:"PayloadVersion"`
}

// VPNPayload describes one managed VPN connection.
type VPNPayload struct {
	IPSec               IPSec          `plist:"IPSec"`
	IPv4                IPv4           `plist:"IPv4"`
	OnDemandEnabled     int            `plist:"OnDemandEnabled"`
	OnDemandRules       []OnDemandRule `plist:"OnDemandRules"`
	PayloadDescription  string         `plist:"PayloadDescription"`
	PayloadDisplayName  string         `plist:"PayloadDisplayName"`
	PayloadIdentifier   string         `plist:"PayloadIdentifier"`
	PayloadOrganization string         `plist:"PayloadOrganization"`
	PayloadType         string         `plist:"PayloadType"`
	PayloadUUID         string         `plist:"PayloadUUID"`
	PayloadVersion      int            `plist:"PayloadVersion"`
	PPP                 PPP            `plist:"PPP"`
	UserDefinedName     string         `plist:"UserDefinedName"`
	VPNType             string         `plist:"VPNType"`
}

// IPSec holds the machine authentication settings.
type IPSec struct {
	AuthenticationMethod string `plist:"AuthenticationMethod"`
	LocalIdentifierType  string `plist:"LocalIdentifierType"`
	SharedSecret         []byte `plist:"SharedSecret"`
}

// IPv4 holds routing settings.
type IPv4 struct {
	OverridePrimary int `plist:"OverridePrimary"`
}

// OnDemandRule is evaluated in order; the first match wins.
type OnDemandRule struct {
	Action             string   `plist:"Action"`
	InterfaceTypeMatch string   `plist:"InterfaceTypeMatch,omitempty"`
	SSIDMatch          []string `plist:"SSIDMatch,omitempty"`
}

// PPP holds the user authentication and server address.
type PPP struct {
	AuthName          string `plist:"AuthName"`
	CommRemoteAddress string `plist:"CommRemoteAddress"`
}

// Organization carries the per-deployment names baked into every profile.
type Organization struct {
	// Name is written to PayloadOrganization.
	Name string
	// DisplayName is the profile's name in Settings.
	DisplayName string
	// ConnectionName is the VPN service name.
	ConnectionName string
}

// DefaultOrganization returns the built-in deployment names.
func DefaultOrganization() Organization {
	return Organization{
		Name:           common.DefaultOrganization,
		DisplayName:    common.DefaultDisplayName,
		ConnectionName: common.DefaultConnectionName,
	}
}

// Input is everything Build needs besides identifiers.
type Input struct {
	Key           string
	SSID          string
	Username      string
	RemoteAddress string
	Organization  Organization
}

// CheckText reports whether s can be carried by a property list unchanged:
// valid UTF-8 made only of characters XML 1.0 allows.
func CheckText(s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%q is not valid UTF-8", s)
	}
	for i, r := range s {
		if !isXMLChar(r) {
			return fmt.Errorf("%q contains character %U at byte %d, which XML cannot represent", s, r, i)
		}
	}
	return nil
}

// isXMLChar matches the Char production of XML 1.0.
func isXMLChar(r rune) bool {
	switch {
	case r == 0x09 || r == 0x0A || r == 0x0D:
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}

// UUIDGenerator produces random (version 4) UUID strings.
type UUIDGenerator struct{}

// NewID returns a fresh lowercase UUIDv4.
func (UUIDGenerator) NewID() string {
	return uuid.New().String()
}

// Build assembles a profile from in. It performs no I/O; ids is called
// exactly three times, for the VPN payload UUID, the profile identifier,
// and the profile UUID in that order.
func Build(in Input, ids common.IDGenerator) *Profile {
	if ids == nil {
		ids = UUIDGenerator{}
	}
	org := in.Organization
	if org == (Organization{}) {
		org = DefaultOrganization()
	}

	payloadUUID := ids.NewID()
	profileIdentifier := ids.NewID()
	profileUUID := ids.NewID()

	payload := VPNPayload{
		IPSec: IPSec{
			AuthenticationMethod: AuthMethodSharedSecret,
			LocalIdentifierType:  LocalIdentifierTypeKeyID,
			SharedSecret:         []byte(in.Key),
		},
		IPv4: IPv4{
			OverridePrimary: 1,
		},
		OnDemandEnabled: 1,
		OnDemandRules: []OnDemandRule{
			{
				Action:             ActionDisconnect,
				InterfaceTypeMatch: InterfaceTypeWiFi,
				SSIDMatch:          []string{in.SSID},
			},
			{
				Action: ActionConnect,
			},
		},
		PayloadDescription:  fmt.Sprintf("%s VPN profile configuration.", org.Name),
		PayloadDisplayName:  org.ConnectionName,
		PayloadIdentifier:   VPNPayloadType + "." + payloadUUID,
		PayloadOrganization: org.Name,
		PayloadType:         VPNPayloadType,
		PayloadUUID:         payloadUUID,
		PayloadVersion:      PayloadVersion,
		PPP: PPP{
			AuthName:          in.Username,
			CommRemoteAddress: in.RemoteAddress,
		},
		UserDefinedName: org.ConnectionName,
		VPNType:         VPNTypeL2TP,
	}

	return &Profile{
		PayloadContent:           []VPNPayload{payload},
		PayloadDisplayName:       org.DisplayName,
		PayloadIdentifier:        profileIdentifier,
		PayloadOrganization:      org.Name,
		PayloadRemovalDisallowed: false,
		PayloadType:              ProfilePayloadType,
		PayloadUUID:              profileUUID,
		PayloadVersion:           PayloadVersion,
	}
}

// VPN returns the profile's single VPN payload.
func (p *Profile) VPN() *VPNPayload {
	if len(p.PayloadContent) == 0 {
		return nil
	}
	return &p.PayloadContent[0]
}

// SharedSecretText returns the pre-shared key as text.
func (p *Profile) SharedSecretText() string {
	if v := p.VPN(); v != nil {
		return string(v.IPSec.SharedSecret)
	}
	return ""
}
