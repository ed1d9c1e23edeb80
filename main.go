// Package main provides the entry point for vpn-profile.
// vpn-profile generates an Apple configuration profile (vpn.mobileconfig)
// for an L2TP/IPSec VPN that connects on demand everywhere except on the
// home WiFi network.
//
// Usage:
//
//	vpn-profile -k KEY -s SSID -u USERNAME [-o DIR]
//
// Exit status is 0 on success, 2 for invalid arguments, 3 when the public
// address cannot be resolved, and 4 when the profile cannot be written.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/yllada/vpn-profile/cli"
	"github.com/yllada/vpn-profile/common"
)

// Build-time variables injected via ldflags (-X main.appVersion=x.y.z)
// Default values are used for local development builds
var (
	appVersion = "dev"
	buildTime  = "unknown"
	commitSHA  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// SIGINT/SIGTERM cancel the address lookup
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer common.CloseLogger()

	deps := cli.DefaultDeps(cli.BuildInfo{
		Version: appVersion,
		Time:    buildTime,
		Commit:  commitSHA,
	})
	return cli.Execute(ctx, deps, os.Args[1:])
}
