// Package cli provides the command-line interface of the VPN profile
// generator. The root command builds vpn.mobileconfig; subcommands inspect
// build history and manage the config file.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yllada/vpn-profile/common"
	"github.com/yllada/vpn-profile/config"
	"github.com/yllada/vpn-profile/keyring"
	"github.com/yllada/vpn-profile/ui"
	"github.com/yllada/vpn-profile/vpn"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version string
	Time    string
	Commit  string
}

// Deps are the collaborators a command run uses.
type Deps struct {
	// NewResolver creates the public address resolver from config.
	NewResolver func(url string, timeout time.Duration) common.AddressResolver
	// IDs generates profile identifiers.
	IDs common.IDGenerator
	// Credentials opens the pre-shared key store.
	Credentials func() (common.CredentialStore, error)
	// Notifier sends the desktop notification, when enabled.
	Notifier common.Notifier
	// Now timestamps history entries.
	Now func() time.Time

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Build BuildInfo
}

// DefaultDeps returns the production collaborators.
func DefaultDeps(build BuildInfo) Deps {
	return Deps{
		NewResolver: func(url string, timeout time.Duration) common.AddressResolver {
			return vpn.NewHTTPResolver(url, timeout)
		},
		IDs: vpn.UUIDGenerator{},
		Credentials: func() (common.CredentialStore, error) {
			return keyring.New()
		},
		Notifier: ui.NewDBusNotifier(),
		Now:      time.Now,
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Build:    build,
	}
}

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	verbose    bool
}

// loadConfig reads the config file and applies logging settings.
func (g *globalOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}

	level, _ := common.ParseLogLevel(cfg.Log.Level)
	if g.verbose {
		level = common.LevelDebug
	}
	if err := common.InitLogger(common.LogConfig{Level: level, EnableFile: cfg.Log.File}); err != nil {
		common.LogWarn("Could not initialize file logging: %v", err)
	}
	return cfg, nil
}

// NewRootCommand assembles the command tree.
func NewRootCommand(deps Deps) *cobra.Command {
	g := &globalOptions{}
	b := &buildOptions{}

	root := &cobra.Command{
		Use:   common.AppName + " -k KEY -s SSID -u USERNAME",
		Short: "Generate an Apple VPN profile",
		Long: `Generate vpn.mobileconfig, an L2TP/IPSec configuration profile that
connects on demand everywhere except on your home Wi-Fi network.

The server address is the public IP address of the machine running the
build, discovered through an IP-echo service.`,
		Example: `  vpn-profile -k 's3cr3t' -s HomeNet -u alice
  vpn-profile -k - -s HomeNet -u alice -o build/ --save-key
  vpn-profile --key-from-keyring -s HomeNet -u alice`,
		Args:          noArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, deps, g, b)
		},
	}
	root.Version = deps.Build.Version
	root.SetVersionTemplate("{{printf \"%s\\n\" .Version}}")
	root.SetIn(deps.Stdin)
	root.SetOut(deps.Stdout)
	root.SetErr(deps.Stderr)

	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file (default ~/.config/vpn-profile/config.yaml)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Enable verbose logging")

	flags := root.Flags()
	flags.StringVarP(&b.key, "key", "k", "", "Pre-shared secret key ('-' to read it from stdin)")
	flags.StringVarP(&b.ssid, "ssid", "s", "", "WiFi SSID")
	flags.StringVarP(&b.username, "username", "u", "", "Account username")
	flags.StringVarP(&b.outputDir, "output-dir", "o", "", "Directory for vpn.mobileconfig (default from config, else current directory)")
	flags.BoolVar(&b.saveKey, "save-key", false, "Store the key in the system keyring after a successful build")
	flags.BoolVar(&b.keyFromKeyring, "key-from-keyring", false, "Read the key from the system keyring instead of --key")

	root.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return argumentError(c, err.Error())
	})

	root.AddCommand(
		newHistoryCommand(deps, g),
		newConfigCommand(deps, g),
		newVersionCommand(deps),
	)
	return root
}

// Execute runs the command tree with args and returns the exit code.
// Errors are reported on deps.Stderr.
func Execute(ctx context.Context, deps Deps, args []string) int {
	root := NewRootCommand(deps)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(deps.Stderr, ui.Failure(err.Error()))
		return common.ExitCode(err)
	}
	return common.ExitOK
}

// noArgs rejects positional arguments, including unknown subcommands, as
// argument errors.
func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return argumentError(cmd, err.Error())
	}
	return nil
}

// argumentError prints usage and returns an ErrArgument error.
func argumentError(cmd *cobra.Command, msg string) error {
	fmt.Fprintln(cmd.ErrOrStderr(), cmd.UsageString())
	return common.NewError(common.ErrArgument, msg, nil)
}

func newVersionCommand(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", common.AppName, deps.Build.Version)
			if deps.Build.Time != "" && deps.Build.Time != "unknown" {
				fmt.Fprintf(out, "  Build:  %s\n", deps.Build.Time)
				fmt.Fprintf(out, "  Commit: %s\n", deps.Build.Commit)
			}
			return nil
		},
	}
}
