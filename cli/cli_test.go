package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yllada/vpn-profile/common"
	"github.com/yllada/vpn-profile/vpn"
)

type stubResolver struct {
	address string
	err     error
	calls   int
	url     string
	timeout time.Duration
}

func (s *stubResolver) Resolve(context.Context) (string, error) {
	s.calls++
	return s.address, s.err
}

type memoryCredentials struct {
	keys map[string]string
}

func (m *memoryCredentials) Save(ssid, username, key string) error {
	m.keys[username+"@"+ssid] = key
	return nil
}

func (m *memoryCredentials) Load(ssid, username string) (string, error) {
	key, ok := m.keys[username+"@"+ssid]
	if !ok {
		return "", common.ErrCredentialsNotFound
	}
	return key, nil
}

func (m *memoryCredentials) Delete(ssid, username string) error {
	delete(m.keys, username+"@"+ssid)
	return nil
}

type countingNotifier struct {
	messages []string
}

func (c *countingNotifier) Notify(_, message string) error {
	c.messages = append(c.messages, message)
	return nil
}

type sequenceIDs struct{ n int }

func (s *sequenceIDs) NewID() string {
	s.n++
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", s.n)
}

type harness struct {
	deps       Deps
	resolver   *stubResolver
	creds      *memoryCredentials
	notifier   *countingNotifier
	stdout     *bytes.Buffer
	stderr     *bytes.Buffer
	stdin      *bytes.Buffer
	dir        string
	configPath string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		resolver: &stubResolver{address: "203.0.113.7"},
		creds:    &memoryCredentials{keys: map[string]string{}},
		notifier: &countingNotifier{},
		stdout:   &bytes.Buffer{},
		stderr:   &bytes.Buffer{},
		stdin:    &bytes.Buffer{},
		dir:      t.TempDir(),
	}
	h.configPath = filepath.Join(h.dir, "config.yaml")
	h.deps = Deps{
		NewResolver: func(url string, timeout time.Duration) common.AddressResolver {
			h.resolver.url = url
			h.resolver.timeout = timeout
			return h.resolver
		},
		IDs:         &sequenceIDs{},
		Credentials: func() (common.CredentialStore, error) { return h.creds, nil },
		Notifier:    h.notifier,
		Now:         func() time.Time { return time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC) },
		Stdin:       h.stdin,
		Stdout:      h.stdout,
		Stderr:      h.stderr,
		Build:       BuildInfo{Version: "1.2.3", Time: "2026-10-19", Commit: "abc123"},
	}
	return h
}

func (h *harness) writeConfig(t *testing.T, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(h.configPath, []byte(body), 0600))
}

func (h *harness) run(args ...string) int {
	return Execute(context.Background(), h.deps, append([]string{"--config", h.configPath}, args...))
}

func (h *harness) profilePath() string {
	return filepath.Join(h.dir, common.ProfileFileName)
}

func TestBuild_Success(t *testing.T) {
	h := newHarness(t)

	code := h.run("-k", "secret123", "-s", "HomeNet", "-u", "alice", "-o", h.dir)
	require.Equal(t, common.ExitOK, code, h.stderr.String())

	assert.Equal(t, 1, h.resolver.calls)
	assert.Equal(t, common.DefaultResolverURL, h.resolver.url)
	assert.Equal(t, common.ResolveTimeout, h.resolver.timeout)
	assert.Contains(t, h.stdout.String(), "Configuration created.")
	assert.Contains(t, h.stdout.String(), h.profilePath())

	p, err := vpn.Read(h.profilePath())
	require.NoError(t, err)
	assert.Equal(t, "HomeNet", p.VPN().OnDemandRules[0].SSIDMatch[0])
	assert.Equal(t, "alice", p.VPN().PPP.AuthName)
	assert.Equal(t, "203.0.113.7", p.VPN().PPP.CommRemoteAddress)
	assert.Equal(t, "secret123", p.SharedSecretText())
	assert.Equal(t, "00000000-0000-4000-8000-000000000003", p.PayloadUUID)
	assert.Empty(t, h.notifier.messages, "notifications are off by default")
}

func TestBuild_LongFlags(t *testing.T) {
	h := newHarness(t)

	code := h.run("--key", "k", "--ssid", "Cafe", "--username", "bob", "--output-dir", h.dir)
	require.Equal(t, common.ExitOK, code, h.stderr.String())
	assert.FileExists(t, h.profilePath())
}

func TestBuild_DefaultOutputDirFromConfig(t *testing.T) {
	h := newHarness(t)
	out := filepath.Join(h.dir, "out")
	require.NoError(t, os.Mkdir(out, 0755))
	h.writeConfig(t, "output_dir: "+out+"\norganization: Acme\n")

	code := h.run("-k", "k", "-s", "HomeNet", "-u", "alice")
	require.Equal(t, common.ExitOK, code, h.stderr.String())

	p, err := vpn.Read(filepath.Join(out, common.ProfileFileName))
	require.NoError(t, err)
	assert.Equal(t, "Acme", p.PayloadOrganization)
}

func TestBuild_MissingArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no key", []string{"-s", "HomeNet", "-u", "alice"}},
		{"no ssid", []string{"-k", "secret123", "-u", "alice"}},
		{"no username", []string{"-k", "secret123", "-s", "HomeNet"}},
		{"empty ssid", []string{"-k", "secret123", "-s", "", "-u", "alice"}},
		{"nothing", nil},
		{"unknown flag", []string{"-k", "k", "-s", "s", "-u", "u", "--bogus"}},
		{"positional argument", []string{"-k", "k", "-s", "s", "-u", "u", "extra"}},
		{"key and keyring", []string{"-k", "k", "--key-from-keyring", "-s", "s", "-u", "u"}},
		{"ssid not utf-8", []string{"-k", "k", "-s", "Home\xffNet", "-u", "alice"}},
		{"ssid control character", []string{"-k", "k", "-s", "Home\x01Net", "-u", "alice"}},
		{"username control character", []string{"-k", "k", "-s", "HomeNet", "-u", "al\x00ice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			args := append(tt.args, "-o", h.dir)

			code := h.run(args...)
			assert.Equal(t, common.ExitArgument, code)
			assert.Zero(t, h.resolver.calls, "no resolution before arguments are valid")
			assert.NoFileExists(t, h.profilePath())
			assert.Contains(t, h.stderr.String(), "Usage:")
			assert.Contains(t, h.stderr.String(), "invalid arguments")
		})
	}
}

func TestBuild_ResolutionFailure(t *testing.T) {
	h := newHarness(t)
	h.resolver.err = common.NewError(common.ErrResolution, "GET https://checkip.amazonaws.com", errors.New("network unreachable"))

	code := h.run("-k", "k", "-s", "HomeNet", "-u", "alice", "-o", h.dir)
	assert.Equal(t, common.ExitResolution, code)
	assert.Equal(t, 1, h.resolver.calls)
	assert.NoFileExists(t, h.profilePath())
	assert.Contains(t, h.stderr.String(), "address resolution failed")
	assert.NotContains(t, h.stdout.String(), "Configuration created.")
}

func TestBuild_UnclassifiedResolverErrorIsResolutionError(t *testing.T) {
	h := newHarness(t)
	h.resolver.err = errors.New("dial tcp: i/o timeout")

	code := h.run("-k", "k", "-s", "HomeNet", "-u", "alice", "-o", h.dir)
	assert.Equal(t, common.ExitResolution, code)
	assert.NoFileExists(t, h.profilePath())
}

func TestBuild_MissingOutputDir(t *testing.T) {
	h := newHarness(t)

	code := h.run("-k", "k", "-s", "HomeNet", "-u", "alice", "-o", filepath.Join(h.dir, "missing"))
	assert.Equal(t, common.ExitIO, code)
	assert.Contains(t, h.stderr.String(), "write failed")
}

func TestBuild_InvalidConfig(t *testing.T) {
	h := newHarness(t)
	h.writeConfig(t, "resolver:\n  timeout: -1s\n")

	code := h.run("-k", "k", "-s", "HomeNet", "-u", "alice", "-o", h.dir)
	assert.Equal(t, common.ExitFailure, code)
	assert.Zero(t, h.resolver.calls)
	assert.Contains(t, h.stderr.String(), "failed to load configuration")
}

func TestBuild_KeyErrorReportedBeforeConfig(t *testing.T) {
	h := newHarness(t)
	h.writeConfig(t, "resolver:\n  timeout: -1s\n")

	code := h.run("--key-from-keyring", "-s", "HomeNet", "-u", "alice", "-o", h.dir)
	assert.Equal(t, common.ExitArgument, code)
	assert.NotContains(t, h.stderr.String(), "failed to load configuration")
}

func TestBuild_KeyFromStdin(t *testing.T) {
	h := newHarness(t)
	h.stdin.WriteString("from-stdin\n")

	code := h.run("-k", "-", "-s", "HomeNet", "-u", "alice", "-o", h.dir)
	require.Equal(t, common.ExitOK, code, h.stderr.String())

	p, err := vpn.Read(h.profilePath())
	require.NoError(t, err)
	assert.Equal(t, "from-stdin", p.SharedSecretText())
}

func TestBuild_EmptyKeyFromStdin(t *testing.T) {
	h := newHarness(t)

	code := h.run("-k", "-", "-s", "HomeNet", "-u", "alice", "-o", h.dir)
	assert.Equal(t, common.ExitArgument, code)
	assert.Zero(t, h.resolver.calls)
}

func TestBuild_SaveAndReuseKey(t *testing.T) {
	h := newHarness(t)

	code := h.run("-k", "secret123", "-s", "HomeNet", "-u", "alice", "-o", h.dir, "--save-key")
	require.Equal(t, common.ExitOK, code, h.stderr.String())
	assert.Equal(t, "secret123", h.creds.keys["alice@HomeNet"])

	require.NoError(t, os.Remove(h.profilePath()))
	code = h.run("--key-from-keyring", "-s", "HomeNet", "-u", "alice", "-o", h.dir)
	require.Equal(t, common.ExitOK, code, h.stderr.String())

	p, err := vpn.Read(h.profilePath())
	require.NoError(t, err)
	assert.Equal(t, "secret123", p.SharedSecretText())
}

func TestBuild_KeyFromKeyringMissing(t *testing.T) {
	h := newHarness(t)

	code := h.run("--key-from-keyring", "-s", "HomeNet", "-u", "alice", "-o", h.dir)
	assert.Equal(t, common.ExitArgument, code)
	assert.Zero(t, h.resolver.calls)
	assert.Contains(t, h.stderr.String(), "no saved key")
}

func TestBuild_HistoryAndNotifications(t *testing.T) {
	h := newHarness(t)
	dbPath := filepath.Join(h.dir, "state", "history.db")
	h.writeConfig(t, fmt.Sprintf("history:\n  enabled: true\n  path: %s\nnotifications: true\n", dbPath))

	code := h.run("-k", "topsecret", "-s", "HomeNet", "-u", "alice", "-o", h.dir)
	require.Equal(t, common.ExitOK, code, h.stderr.String())
	assert.FileExists(t, dbPath)
	assert.Equal(t, []string{h.profilePath()}, h.notifier.messages)

	h.stdout.Reset()
	code = h.run("history")
	require.Equal(t, common.ExitOK, code, h.stderr.String())

	out := h.stdout.String()
	assert.Contains(t, out, "SSID")
	assert.Contains(t, out, "HomeNet")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "203.0.113.7")
	assert.NotContains(t, out, "topsecret")
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestHistory_OutputFailureIsNotArgumentError(t *testing.T) {
	h := newHarness(t)
	h.writeConfig(t, fmt.Sprintf("history:\n  enabled: true\n  path: %s\n", filepath.Join(h.dir, "history.db")))
	require.Equal(t, common.ExitOK, h.run("-k", "k", "-s", "HomeNet", "-u", "alice", "-o", h.dir), h.stderr.String())

	h.deps.Stdout = brokenWriter{}
	h.stderr.Reset()

	code := h.run("history")
	assert.Equal(t, common.ExitFailure, code)
	assert.Contains(t, h.stderr.String(), "broken pipe")
	assert.NotContains(t, h.stderr.String(), "Usage:")
}

func TestHistory_Empty(t *testing.T) {
	h := newHarness(t)
	h.writeConfig(t, fmt.Sprintf("history:\n  path: %s\n", filepath.Join(h.dir, "none.db")))

	code := h.run("history")
	require.Equal(t, common.ExitOK, code, h.stderr.String())
	assert.Contains(t, h.stdout.String(), "No builds recorded.")
	assert.NoFileExists(t, filepath.Join(h.dir, "none.db"))
}

func TestHistory_NegativeLimit(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, common.ExitArgument, h.run("history", "--limit", "-1"))
}

func TestConfigInit(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, common.ExitOK, h.run("config", "init"), h.stderr.String())
	data, err := os.ReadFile(h.configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "organization: My Company")
	assert.Contains(t, string(data), "https://checkip.amazonaws.com")

	assert.Equal(t, common.ExitFailure, h.run("config", "init"))
	assert.Contains(t, h.stderr.String(), "already exists")

	assert.Equal(t, common.ExitOK, h.run("config", "init", "--force"))
}

func TestVersion(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, common.ExitOK, h.run("version"))
	assert.Contains(t, h.stdout.String(), "vpn-profile 1.2.3")
	assert.Contains(t, h.stdout.String(), "abc123")
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, common.ExitArgument, h.run("frobnicate"))
	assert.Zero(t, h.resolver.calls)

	for _, args := range [][]string{{"history", "extra"}, {"version", "extra"}, {"config", "init", "extra"}} {
		h.stderr.Reset()
		assert.Equal(t, common.ExitArgument, h.run(args...), args)
		assert.Contains(t, h.stderr.String(), "Usage:")
	}
}

func TestBuildOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    buildOptions
		wantErr string
	}{
		{"complete", buildOptions{key: "k", ssid: "s", username: "u"}, ""},
		{"keyring", buildOptions{keyFromKeyring: true, ssid: "s", username: "u"}, ""},
		{"all missing", buildOptions{}, "--key, --ssid, --username"},
		{"save with keyring", buildOptions{keyFromKeyring: true, saveKey: true, ssid: "s", username: "u"}, "--save-key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
