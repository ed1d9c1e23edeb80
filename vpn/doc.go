// Package vpn builds and serializes L2TP/IPSec configuration profiles.
//
// A build is three explicit steps:
//
//  1. Resolve: HTTPResolver asks an IP-echo service for the caller's
//     public address (the only network call).
//  2. Build: a pure function from key, SSID, username, address and the
//     deployment names to a Profile, drawing three identifiers from an
//     injected common.IDGenerator.
//  3. Write: the Profile is encoded as an XML property list with sorted
//     keys and atomically renamed into <dir>/vpn.mobileconfig.
//
// Builder.Construct combines steps 1 and 2.
//
// # On-demand rules
//
// The VPN payload always carries two rules, evaluated first-match:
// disconnect while joined to the home SSID over Wi-Fi, otherwise connect.
package vpn
