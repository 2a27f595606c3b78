// Copyright 2026 The smsbot Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"filippo.io/age"
	"filippo.io/age/armor"

	"github.com/smsbot-matrix/smsbot/lib/secret"
)

// Identity is an age X25519 keypair. The caller must Close it.
type Identity struct {
	privateKey *secret.Buffer
	recipient  string
}

// GenerateIdentity creates a fresh keypair.
func GenerateIdentity() (*Identity, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating age identity: %w", err)
	}
	return newIdentity(identity)
}

// ParseIdentity reads an identity in age-keygen format from r. Exactly
// one X25519 identity is expected.
func ParseIdentity(r io.Reader) (*Identity, error) {
	identities, err := age.ParseIdentities(r)
	if err != nil {
		return nil, fmt.Errorf("parsing age identity: %w", err)
	}
	if len(identities) != 1 {
		return nil, fmt.Errorf("expected one age identity, found %d", len(identities))
	}
	x25519, ok := identities[0].(*age.X25519Identity)
	if !ok {
		return nil, fmt.Errorf("unsupported age identity type %T", identities[0])
	}
	return newIdentity(x25519)
}

// LoadIdentityFile reads an identity file written by WriteIdentityFile
// or age-keygen.
func LoadIdentityFile(path string) (*Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading identity file %s: %w", path, err)
	}
	defer secret.Zero(data)

	identity, err := ParseIdentity(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("identity file %s: %w", path, err)
	}
	return identity, nil
}

// WriteIdentityFile writes the identity to path with mode 0600. An
// existing file is never overwritten.
func WriteIdentityFile(path string, identity *Identity) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("creating identity file: %w", err)
	}

	content := []byte("# public key: " + identity.recipient + "\n" + identity.privateKey.String() + "\n")
	_, writeError := file.Write(content)
	secret.Zero(content)
	closeError := file.Close()
	if writeError != nil {
		return fmt.Errorf("writing identity file %s: %w", path, writeError)
	}
	if closeError != nil {
		return fmt.Errorf("closing identity file %s: %w", path, closeError)
	}
	return nil
}

func newIdentity(identity *age.X25519Identity) (*Identity, error) {
	privateKey, err := secret.NewFromString(identity.String())
	if err != nil {
		return nil, fmt.Errorf("protecting age identity: %w", err)
	}
	return &Identity{
		privateKey: privateKey,
		recipient:  identity.Recipient().String(),
	}, nil
}

// Recipient returns the public key ("age1...").
func (i *Identity) Recipient() string { return i.recipient }

// Close releases the private key memory.
func (i *Identity) Close() error { return i.privateKey.Close() }

// Seal encrypts plaintext to this identity and returns armored text.
func (i *Identity) Seal(plaintext []byte) ([]byte, error) {
	recipient, err := age.ParseX25519Recipient(i.recipient)
	if err != nil {
		return nil, fmt.Errorf("parsing recipient: %w", err)
	}

	var output bytes.Buffer
	armorWriter := armor.NewWriter(&output)
	encryptWriter, err := age.Encrypt(armorWriter, recipient)
	if err != nil {
		return nil, fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := encryptWriter.Write(plaintext); err != nil {
		return nil, fmt.Errorf("encrypting: %w", err)
	}
	if err := encryptWriter.Close(); err != nil {
		return nil, fmt.Errorf("finalizing age encryption: %w", err)
	}
	if err := armorWriter.Close(); err != nil {
		return nil, fmt.Errorf("finalizing armor: %w", err)
	}
	return output.Bytes(), nil
}

// Open decrypts armored ciphertext produced by Seal. The caller should
// secret.Zero the result once it has been parsed.
func (i *Identity) Open(ciphertext []byte) ([]byte, error) {
	if !IsArmored(ciphertext) {
		return nil, errors.New("not an armored age file")
	}
	identity, err := age.ParseX25519Identity(i.privateKey.String())
	if err != nil {
		return nil, fmt.Errorf("parsing age identity: %w", err)
	}

	reader, err := age.Decrypt(armor.NewReader(bytes.NewReader(ciphertext)), identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted content: %w", err)
	}
	return plaintext, nil
}

// IsArmored reports whether data starts with the age armor header.
func IsArmored(data []byte) bool {
	return strings.HasPrefix(strings.TrimLeft(string(data), " \t\r\n"), armor.Header)
}
