package util

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/sha3"
)

// 2048 bits keeps signature generation cheap enough for per-request
// signing while staying acceptable to the large fediverse servers.
const rsaKeyBits = 2048

// ErrNoKeys signals that the keyring directory is missing required key
// material and generation was not permitted.
var ErrNoKeys = errors.New("keyring is missing signing keys")

// Keypair holds one RSA keypair both parsed and in the PEM forms that
// go on the wire.
type Keypair struct {
	Private    *rsa.PrivateKey
	Public     *rsa.PublicKey
	PrivatePEM string
	PublicPEM  string
}

// Keyring bundles the per-user keypair and the instance-level keypair
// used by the application actor.
type Keyring struct {
	User *Keypair
	Site *Keypair
}

// KeyFragment derives the stable fragment appended to an actor id to
// form a keyId. It is a function of the public key PEM alone, so both
// ends of a federation exchange can compute it independently.
func KeyFragment(publicPEM string) string {
	sum := sha3.Sum256([]byte(publicPEM))
	return "key-" + hex.EncodeToString(sum[:12])
}

// GenerateKeypair creates a fresh RSA keypair in PKCS#8/PKIX PEM form.
func GenerateKeypair() (*Keypair, error) {
	key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, fmt.Errorf("could not generate rsa key: %w", err)
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("could not marshal private key: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("could not marshal public key: %w", err)
	}

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	return &Keypair{
		Private:    key,
		Public:     &key.PublicKey,
		PrivatePEM: string(privPEM),
		PublicPEM:  string(pubPEM),
	}, nil
}

// ParsePrivateKey decodes a PEM private key, accepting both PKCS#8 and
// the older PKCS#1 encoding.
func ParsePrivateKey(pemStr string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, fmt.Errorf("no PEM block in private key")
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("private key is not RSA")
		}
		return rsaKey, nil
	}

	return x509.ParsePKCS1PrivateKey(block.Bytes)
}

// ParsePublicKey decodes a PEM public key, accepting both PKIX and the
// older PKCS#1 encoding.
func ParsePublicKey(pemStr string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, fmt.Errorf("no PEM block in public key")
	}

	if key, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("public key is not RSA")
		}
		return rsaKey, nil
	}

	return x509.ParsePKCS1PublicKey(block.Bytes)
}

// LoadKeyring reads the user and site keypairs from dir. When generate
// is true, missing pairs are created and written with private keys at
// mode 0600; otherwise missing key material yields ErrNoKeys.
func LoadKeyring(dir string, generate bool) (*Keyring, error) {
	user, err := loadOrCreateKeypair(dir, "user", generate)
	if err != nil {
		return nil, err
	}
	site, err := loadOrCreateKeypair(dir, "site", generate)
	if err != nil {
		return nil, err
	}
	return &Keyring{User: user, Site: site}, nil
}

func loadOrCreateKeypair(dir, name string, generate bool) (*Keypair, error) {
	pubPath := filepath.Join(dir, name+".pem")
	privPath := filepath.Join(dir, name+".key")

	pubBytes, pubErr := os.ReadFile(pubPath)
	privBytes, privErr := os.ReadFile(privPath)

	if pubErr == nil && privErr == nil {
		priv, err := ParsePrivateKey(string(privBytes))
		if err != nil {
			return nil, fmt.Errorf("keyring %s: %w", privPath, err)
		}
		pub, err := ParsePublicKey(string(pubBytes))
		if err != nil {
			return nil, fmt.Errorf("keyring %s: %w", pubPath, err)
		}
		return &Keypair{
			Private:    priv,
			Public:     pub,
			PrivatePEM: string(privBytes),
			PublicPEM:  string(pubBytes),
		}, nil
	}

	if !generate {
		return nil, fmt.Errorf("%w: %s", ErrNoKeys, pubPath)
	}

	kp, err := GenerateKeypair()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("could not create keyring dir: %w", err)
	}
	if err := os.WriteFile(privPath, []byte(kp.PrivatePEM), 0600); err != nil {
		return nil, fmt.Errorf("could not write %s: %w", privPath, err)
	}
	if err := os.WriteFile(pubPath, []byte(kp.PublicPEM), 0644); err != nil {
		return nil, fmt.Errorf("could not write %s: %w", pubPath, err)
	}

	return kp, nil
}
