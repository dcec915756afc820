package keygen

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
)

// DefaultBits is the RSA key size used for cluster access keys.
const DefaultBits = 4096

// File names inside the key directory.
const (
	PrivateKeyFile = "id_rsa"
	PublicKeyFile  = "id_rsa.pub"
)

// KeyPair holds an RSA key pair in ready-to-use formats.
type KeyPair struct {
	// PrivateKey is the RSA private key in PEM-encoded PKCS#1 format.
	PrivateKey []byte
	// PublicKey is the public key in OpenSSH authorized_keys format.
	PublicKey []byte
}

// GenerateRSAKeyPair generates a new RSA key pair with the specified bit size.
func GenerateRSAKeyPair(bits int) (*KeyPair, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA private key: %w", err)
	}
	if err := privateKey.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate RSA private key: %w", err)
	}

	privateKeyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})

	publicKey, err := ssh.NewPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH public key: %w", err)
	}

	return &KeyPair{
		PrivateKey: privateKeyPEM,
		PublicKey:  ssh.MarshalAuthorizedKey(publicKey),
	}, nil
}

// Write stores the pair in dir, creating it with owner-only permissions.
func (k *KeyPair) Write(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create key directory %s: %w", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, PrivateKeyFile), k.PrivateKey, 0o600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}
	// #nosec G306 - public keys are meant to be readable
	if err := os.WriteFile(filepath.Join(dir, PublicKeyFile), k.PublicKey, 0o644); err != nil {
		return fmt.Errorf("failed to write public key: %w", err)
	}
	return nil
}

// LoadOrGenerate returns the pair stored in dir, generating and writing a
// new one when dir holds none. Re-running an installation therefore keeps
// the key the cluster was created with.
func LoadOrGenerate(dir string, bits int) (*KeyPair, error) {
	priv, privErr := os.ReadFile(filepath.Join(dir, PrivateKeyFile))
	pub, pubErr := os.ReadFile(filepath.Join(dir, PublicKeyFile))
	if privErr == nil && pubErr == nil {
		if _, _, _, _, err := ssh.ParseAuthorizedKey(pub); err != nil {
			return nil, fmt.Errorf("invalid public key in %s: %w", dir, err)
		}
		return &KeyPair{PrivateKey: priv, PublicKey: pub}, nil
	}
	for _, err := range []error{privErr, pubErr} {
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read key pair from %s: %w", dir, err)
		}
	}

	pair, err := GenerateRSAKeyPair(bits)
	if err != nil {
		return nil, err
	}
	if err := pair.Write(dir); err != nil {
		return nil, err
	}
	return pair, nil
}

// PublicKey reads an authorized_keys formatted public key from path.
func PublicKey(path string) ([]byte, error) {
	// #nosec G304 - the key path comes from the run configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read SSH public key: %w", err)
	}
	if _, _, _, _, err := ssh.ParseAuthorizedKey(data); err != nil {
		return nil, fmt.Errorf("invalid SSH public key %s: %w", path, err)
	}
	return data, nil
}
