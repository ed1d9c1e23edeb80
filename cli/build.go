package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yllada/vpn-profile/common"
	"github.com/yllada/vpn-profile/config"
	"github.com/yllada/vpn-profile/history"
	"github.com/yllada/vpn-profile/ui"
	"github.com/yllada/vpn-profile/vpn"
)

// readKeyFromStdin is the --key value that asks for the key on stdin.
const readKeyFromStdin = "-"

type buildOptions struct {
	key            string
	ssid           string
	username       string
	outputDir      string
	saveKey        bool
	keyFromKeyring bool
}

// validate checks the required inputs. It runs before any file or
// network access.
func (b *buildOptions) validate() error {
	var missing []string
	if b.key == "" && !b.keyFromKeyring {
		missing = append(missing, "--key")
	}
	if b.ssid == "" {
		missing = append(missing, "--ssid")
	}
	if b.username == "" {
		missing = append(missing, "--username")
	}
	if len(missing) > 0 {
		return fmt.Errorf("required flag(s) %s not set", strings.Join(missing, ", "))
	}
	if b.key != "" && b.keyFromKeyring {
		return errors.New("--key and --key-from-keyring are mutually exclusive")
	}
	if b.saveKey && b.keyFromKeyring {
		return errors.New("--save-key has no effect with --key-from-keyring")
	}
	if err := vpn.CheckText(b.ssid); err != nil {
		return fmt.Errorf("--ssid: %w", err)
	}
	if err := vpn.CheckText(b.username); err != nil {
		return fmt.Errorf("--username: %w", err)
	}
	return nil
}

// spinnerResolver shows a spinner on out while the inner resolver runs.
type spinnerResolver struct {
	inner common.AddressResolver
	out   io.Writer
	title string
}

func (s spinnerResolver) Resolve(ctx context.Context) (string, error) {
	return ui.RunWithSpinner(ctx, s.out, s.title, s.inner.Resolve)
}

func runBuild(cmd *cobra.Command, deps Deps, g *globalOptions, b *buildOptions) error {
	if err := b.validate(); err != nil {
		return argumentError(cmd, err.Error())
	}

	key, err := resolveKey(deps, b)
	if err != nil {
		return argumentError(cmd, err.Error())
	}

	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}

	outputDir := b.outputDir
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// 1. resolve and build
	builder := &vpn.Builder{
		Resolver: spinnerResolver{
			inner: deps.NewResolver(cfg.Resolver.URL, cfg.Resolver.Timeout),
			out:   deps.Stdout,
			title: "Resolving public address...",
		},
		IDs:          deps.IDs,
		Organization: organization(cfg),
	}
	profile, err := builder.Construct(ctx, key, b.ssid, b.username)
	if err != nil {
		common.LogError("Address resolution failed: %v", err)
		return err
	}
	address := profile.VPN().PPP.CommRemoteAddress
	common.LogInfo("Public address: %s", address)

	// 2. write
	path, err := vpn.Write(profile, outputDir)
	if err != nil {
		common.LogError("Writing profile failed: %v", err)
		return err
	}

	afterBuild(ctx, deps, cfg, b, key, profile, path)

	out := deps.Stdout
	fmt.Fprintln(out, ui.Success("Configuration created."))
	fmt.Fprintln(out, ui.Field("Path", path))
	fmt.Fprintln(out, ui.Field("Server", address))
	fmt.Fprintln(out, ui.Field("SSID", b.ssid))
	return nil
}

// afterBuild runs the optional steps. Their failures are warnings; the
// profile is already on disk.
func afterBuild(ctx context.Context, deps Deps, cfg *config.Config, b *buildOptions, key string, p *vpn.Profile, path string) {
	if b.saveKey {
		if err := saveKey(deps, b.ssid, b.username, key); err != nil {
			common.LogWarn("Could not save key: %v", err)
			fmt.Fprintln(deps.Stderr, ui.Warning("key not saved: "+err.Error()))
		}
	}

	if cfg.History.Enabled {
		if err := recordHistory(ctx, deps, cfg, p, path); err != nil {
			common.LogWarn("Could not record build history: %v", err)
			fmt.Fprintln(deps.Stderr, ui.Warning(err.Error()))
		}
	}

	if cfg.Notifications && deps.Notifier != nil {
		ui.NotifyBuilt(deps.Notifier, path)
	}
}

func organization(cfg *config.Config) vpn.Organization {
	return vpn.Organization{
		Name:           cfg.Organization,
		DisplayName:    cfg.DisplayName,
		ConnectionName: cfg.ConnectionName,
	}
}

// resolveKey returns the pre-shared key from the flag, stdin, or keyring.
func resolveKey(deps Deps, b *buildOptions) (string, error) {
	switch {
	case b.keyFromKeyring:
		store, err := deps.Credentials()
		if err != nil {
			return "", err
		}
		key, err := store.Load(b.ssid, b.username)
		if err != nil {
			return "", fmt.Errorf("no saved key for %s on %s: %w", b.username, b.ssid, err)
		}
		return key, nil
	case b.key == readKeyFromStdin:
		key, err := readKey(deps.Stdin, deps.Stderr)
		if err != nil {
			return "", fmt.Errorf("read key: %w", err)
		}
		if key == "" {
			return "", errors.New("empty key on stdin")
		}
		return key, nil
	default:
		return b.key, nil
	}
}

// readKey prompts without echo on a terminal, otherwise reads one line.
func readKey(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Pre-shared key: ")
		data, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func saveKey(deps Deps, ssid, username, key string) error {
	store, err := deps.Credentials()
	if err != nil {
		return err
	}
	return store.Save(ssid, username, key)
}

func recordHistory(ctx context.Context, deps Deps, cfg *config.Config, p *vpn.Profile, path string) error {
	dbPath, err := cfg.HistoryPath()
	if err != nil {
		return err
	}

	store, err := history.Open(ctx, dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.Record(ctx, history.EntryFromProfile(p, path, deps.Now()))
	if err != nil {
		return err
	}
	common.LogDebug("Recorded build #%d in %s", id, store.Path())
	return nil
}
