// Package keyring provides secure storage for pre-shared keys.
// It uses the system keyring when available, falling back to
// encrypted local file storage when not.
package keyring

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/yllada/vpn-profile/common"
)

const hkdfInfo = "vpn-profile credentials v1"

// Store keeps one pre-shared key per (SSID, username) pair.
// It implements common.CredentialStore.
type Store struct {
	service  string
	filePath string
	secret   []byte

	mu      sync.Mutex
	useFile bool
}

// New creates a Store backed by the system keyring, with the fallback file
// in the application config directory keyed from machine identity.
func New() (*Store, error) {
	dir, err := common.GetConfigDir()
	if err != nil {
		return nil, err
	}
	return NewWithFile(filepath.Join(dir, common.CredentialsFileName), machineSecret()), nil
}

// NewWithFile creates a Store whose fallback file lives at path and is
// sealed with a key derived from secret.
func NewWithFile(path string, secret []byte) *Store {
	return &Store{
		service:  common.KeyringService,
		filePath: path,
		secret:   secret,
	}
}

func account(ssid, username string) string {
	return username + "@" + ssid
}

func machineSecret() []byte {
	hostname, _ := os.Hostname()
	return []byte(fmt.Sprintf("%s-%s-%s-%d", common.AppName, hostname, getMachineID(), os.Getuid()))
}

func getMachineID() string {
	data, err := os.ReadFile("/etc/machine-id")
	if err == nil {
		return strings.TrimSpace(string(data))
	}
	return "default-machine-id"
}

// Save stores key for the given network and account.
func (s *Store) Save(ssid, username, key string) error {
	if ssid == "" || username == "" {
		return common.NewError(common.ErrCredentialStorage, "ssid and username are required", nil)
	}
	if key == "" {
		return common.NewError(common.ErrCredentialStorage, "key cannot be empty", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.useFile {
		err := keyring.Set(s.service, account(ssid, username), key)
		if err == nil {
			return nil
		}
		common.LogWarn("System keyring unavailable, using encrypted file: %v", err)
		s.useFile = true
	}

	store, err := s.loadFile()
	if err != nil {
		return err
	}
	store[account(ssid, username)] = key
	return s.saveFile(store)
}

// Load retrieves the key for the given network and account.
func (s *Store) Load(ssid, username string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := account(ssid, username)
	if !s.useFile {
		key, err := keyring.Get(s.service, name)
		if err == nil {
			return key, nil
		}
		if !errors.Is(err, keyring.ErrNotFound) {
			common.LogDebug("System keyring lookup failed: %v", err)
		}
	}

	store, err := s.loadFile()
	if err != nil {
		return "", err
	}
	key, ok := store[name]
	if !ok {
		return "", common.NewError(common.ErrCredentialsNotFound, name, nil)
	}
	return key, nil
}

// Delete removes the key for the given network and account from both
// the system keyring and the fallback file.
func (s *Store) Delete(ssid, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := account(ssid, username)
	if !s.useFile {
		if err := keyring.Delete(s.service, name); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			common.LogWarn("System keyring delete failed: %v", err)
		}
	}

	store, err := s.loadFile()
	if err != nil {
		return err
	}
	if _, ok := store[name]; !ok {
		return nil
	}
	delete(store, name)
	return s.saveFile(store)
}

func (s *Store) loadFile() (map[string]string, error) {
	store := make(map[string]string)

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return store, nil
		}
		return nil, common.NewError(common.ErrCredentialStorage, "read credentials file", err)
	}

	plaintext, err := s.decrypt(data)
	if err != nil {
		return nil, common.NewError(common.ErrDecryption, s.filePath, err)
	}
	if err := json.Unmarshal(plaintext, &store); err != nil {
		return nil, common.NewError(common.ErrDecryption, "credentials file is corrupt", err)
	}
	return store, nil
}

func (s *Store) saveFile(store map[string]string) error {
	data, err := json.Marshal(store)
	if err != nil {
		return common.NewError(common.ErrCredentialStorage, "", err)
	}

	sealed, err := s.encrypt(data)
	if err != nil {
		return common.NewError(common.ErrEncryption, "", err)
	}

	if err := common.EnsureDir(filepath.Dir(s.filePath)); err != nil {
		return common.NewError(common.ErrCredentialStorage, "create credentials directory", err)
	}
	if err := os.WriteFile(s.filePath, sealed, 0600); err != nil {
		return common.NewError(common.ErrCredentialStorage, "write credentials file", err)
	}
	return nil
}

func (s *Store) aead() (cipher.AEAD, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, s.secret, nil, []byte(hkdfInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, err
	}
	return chacha20poly1305.NewX(key)
}

func (s *Store) encrypt(plaintext []byte) ([]byte, error) {
	aead, err := s.aead()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	return []byte(base64.StdEncoding.EncodeToString(sealed)), nil
}

func (s *Store) decrypt(data []byte) ([]byte, error) {
	sealed, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, err
	}

	aead, err := s.aead()
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	return aead.Open(nil, nonce, ciphertext, nil)
}
