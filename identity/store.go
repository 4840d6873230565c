package identity

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Store is a simple local-first home for node identity seeds.
//
// Features:
// - Ed25519 seeds only, stored hex-encoded with 0600 permissions
// - one directory per named identity
// - no external dependencies
//
// This is deliberately straightforward and explicit; it exists so the CLI
// can sign reproducibly, not as a protocol surface.
type Store struct {
	Directory string
}

func DefaultDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".sectormesh", "identities"), nil
}

func OpenStore(directory string) (*Store, error) {
	if directory == "" {
		var err error
		directory, err = DefaultDirectory()
		if err != nil {
			return nil, err
		}
	}
	return &Store{Directory: directory}, nil
}

func (s *Store) seedPath(name string) string {
	return filepath.Join(s.Directory, name, "node.key")
}

// CheckName restricts identity names to filesystem-safe characters.
func CheckName(name string) error {
	if name == "" {
		return errors.New("identity: name cannot be empty")
	}
	for _, char := range name {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			continue
		}
		return fmt.Errorf("identity: invalid character %q in name", char)
	}
	return nil
}

// ParseSeedHex parses a 32-byte Ed25519 seed from hex, accepting an
// optional 0x prefix.
func ParseSeedHex(seedHex string) ([]byte, error) {
	seedHex = strings.TrimSpace(seedHex)
	seedHex = strings.TrimPrefix(seedHex, "0x")
	data, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, err
	}
	if len(data) != ed25519.SeedSize {
		return nil, fmt.Errorf("identity: expected seed length of %d bytes, got %d", ed25519.SeedSize, len(data))
	}
	return data, nil
}

func (s *Store) saveSeed(path string, seed []byte, overwrite bool) error {
	if len(seed) != ed25519.SeedSize {
		return fmt.Errorf("identity: expected seed length of %d bytes", ed25519.SeedSize)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	file, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := file.WriteString(hex.EncodeToString(seed) + "\n"); err != nil {
		return err
	}
	return file.Close()
}

func (s *Store) loadSeed(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSeedHex(strings.TrimSpace(string(data)))
}

// Init stores a seed under name and returns the resulting identity.
func (s *Store) Init(name string, seed []byte, overwrite bool) (*FullID, error) {
	if err := CheckName(name); err != nil {
		return nil, err
	}
	if err := s.saveSeed(s.seedPath(name), seed, overwrite); err != nil {
		return nil, err
	}
	return FromSeed(seed)
}

// Load loads the identity stored under name.
func (s *Store) Load(name string) (*FullID, error) {
	if err := CheckName(name); err != nil {
		return nil, err
	}
	seed, err := s.loadSeed(s.seedPath(name))
	if err != nil {
		return nil, err
	}
	return FromSeed(seed)
}

// List returns the stored identity names, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
