package keys

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"xdao.co/nostrwire/hexutil"
)

// KeyStore is a local-first key store.
//
// EXPERIMENTAL: this filesystem-backed storage surface is not part of the
// stable protocol API and may change in MINOR releases.
//
// Layout:
//
//	<Directory>/<name>/root.key          hex secret key, mode 0600
//	<Directory>/<name>/roles/<role>.key  derived role secret key
type KeyStore struct {
	Directory string
}

type KeyEntry struct {
	Identifier string
	PublicKey  string
	Roles      []string
}

func GetDefaultDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".nostrwire", "keys"), nil
}

func CreateKeyStore(directory string) (*KeyStore, error) {
	if directory == "" {
		var err error
		directory, err = GetDefaultDirectory()
		if err != nil {
			return nil, err
		}
	}
	return &KeyStore{Directory: directory}, nil
}

func (ks *KeyStore) rootKeyPath(identifier string) string {
	return filepath.Join(ks.Directory, identifier, "root.key")
}

func (ks *KeyStore) roleKeyPath(identifier, role string) string {
	return filepath.Join(ks.Directory, identifier, "roles", role+".key")
}

func checkName(what, s string) error {
	if s == "" {
		return fmt.Errorf("%s cannot be empty", what)
	}
	for _, char := range s {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in %s", char, what)
	}
	return nil
}

func CheckKeyName(identifier string) error { return checkName("identifier", identifier) }

func CheckRole(role string) error { return checkName("role", role) }

func (ks *KeyStore) saveSecret(filePath string, sk SecretKey, overwrite bool) error {
	if !sk.Valid() {
		return ErrInvalidSecretKey
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o700); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	file, err := os.OpenFile(filePath, flags, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := file.WriteString(sk.Hex() + "\n"); err != nil {
		return err
	}
	return file.Close()
}

func (ks *KeyStore) loadSecret(filePath string) (SecretKey, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return SecretKey{}, err
	}
	return ParseSecretKeyHex(string(data))
}

// InitializeRootKey stores sk as the root key for identifier and returns the
// hex public key.
func (ks *KeyStore) InitializeRootKey(identifier string, sk SecretKey, overwrite bool) (pubHex string, filePath string, err error) {
	if err := CheckKeyName(identifier); err != nil {
		return "", "", err
	}
	filePath = ks.rootKeyPath(identifier)
	if err := ks.saveSecret(filePath, sk, overwrite); err != nil {
		return "", "", err
	}
	pub := sk.PublicKey()
	return hexutil.Encode(pub[:]), filePath, nil
}

// DeriveKeyFromRole derives and stores a role key under the root key named from.
func (ks *KeyStore) DeriveKeyFromRole(from, role string, overwrite bool) (pubHex string, filePath string, err error) {
	if err := CheckKeyName(from); err != nil {
		return "", "", err
	}
	if err := CheckRole(role); err != nil {
		return "", "", err
	}
	root, err := ks.loadSecret(ks.rootKeyPath(from))
	if err != nil {
		return "", "", err
	}
	derived, err := DeriveRoleSecret(root, role)
	if err != nil {
		return "", "", err
	}
	filePath = ks.roleKeyPath(from, role)
	if err := ks.saveSecret(filePath, derived, overwrite); err != nil {
		return "", "", err
	}
	pub := derived.PublicKey()
	return hexutil.Encode(pub[:]), filePath, nil
}

// ExportPublicKey returns the hex x-only public key for a stored key.
// An empty role selects the root key.
func (ks *KeyStore) ExportPublicKey(identifier, role string) (string, error) {
	sk, err := ks.LoadSecret("", identifier, role, "")
	if err != nil {
		return "", err
	}
	pub := sk.PublicKey()
	return hexutil.Encode(pub[:]), nil
}

// LoadSecret resolves a signer from, in order of precedence, an explicit hex
// secret, a key file, or a stored name (with optional role).
func (ks *KeyStore) LoadSecret(secretHex, signerName, signerRole, keyFile string) (SecretKey, error) {
	if secretHex != "" {
		return ParseSecretKeyHex(secretHex)
	}
	if keyFile != "" {
		return ks.loadSecret(keyFile)
	}
	if signerName != "" {
		if err := CheckKeyName(signerName); err != nil {
			return SecretKey{}, err
		}
		if signerRole == "" {
			return ks.loadSecret(ks.rootKeyPath(signerName))
		}
		if err := CheckRole(signerRole); err != nil {
			return SecretKey{}, err
		}
		return ks.loadSecret(ks.roleKeyPath(signerName, signerRole))
	}
	return SecretKey{}, errors.New("no signer provided")
}

func (ks *KeyStore) ListKeys() ([]KeyEntry, error) {
	entries, err := os.ReadDir(ks.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var identifiers []string
	for _, entry := range entries {
		if entry.IsDir() {
			identifiers = append(identifiers, entry.Name())
		}
	}
	sort.Strings(identifiers)

	var result []KeyEntry
	for _, identifier := range identifiers {
		entry := KeyEntry{Identifier: identifier}
		if root, err := ks.loadSecret(ks.rootKeyPath(identifier)); err == nil {
			pub := root.PublicKey()
			entry.PublicKey = hexutil.Encode(pub[:])
		}
		roleEntries, rerr := os.ReadDir(filepath.Join(ks.Directory, identifier, "roles"))
		if rerr == nil {
			for _, roleEntry := range roleEntries {
				if roleEntry.IsDir() {
					continue
				}
				if strings.HasSuffix(roleEntry.Name(), ".key") {
					entry.Roles = append(entry.Roles, strings.TrimSuffix(roleEntry.Name(), ".key"))
				}
			}
			sort.Strings(entry.Roles)
		}
		result = append(result, entry)
	}
	return result, nil
}
