package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/aretw0/brokerdesk/pkg/ports"
)

// ErrKeySize is returned for keys that are not 32 bytes.
var ErrKeySize = errors.New("encryption key must be 32 bytes (AES-256)")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte

	// AllowPlaintext accepts records written before encryption was enabled.
	// They are sealed on their next write.
	AllowPlaintext bool
}

type encryptionMiddleware struct {
	next   ports.ClientStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that seals each client's
// PersonalInfo using AES-GCM before it reaches the store.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, ErrKeySize
	}
	for _, k := range config.FallbackKeys {
		if len(k) != 32 {
			return nil, fmt.Errorf("fallback key: %w", ErrKeySize)
		}
	}
	return func(next ports.ClientStore) ports.ClientStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}, nil
}

func (m *encryptionMiddleware) Get(ctx context.Context, orgID, clientID string) (*domain.Client, error) {
	c, err := m.next.Get(ctx, orgID, clientID)
	if err != nil {
		return nil, err
	}
	if err := m.open(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (m *encryptionMiddleware) Put(ctx context.Context, client *domain.Client) error {
	plainText, err := json.Marshal(client.PersonalInfo)
	if err != nil {
		return fmt.Errorf("failed to marshal personal info: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt personal info: %w", err)
	}

	// The envelope hides every personal field; the caller's copy stays intact.
	envelope := client.Clone()
	envelope.PersonalInfo = domain.PersonalInfo{}
	envelope.SealedPersonalInfo = base64.StdEncoding.EncodeToString(ciphertext)

	if err := m.next.Put(ctx, envelope); err != nil {
		return err
	}
	client.Version = envelope.Version
	return nil
}

func (m *encryptionMiddleware) ListByOrganization(ctx context.Context, orgID string) ([]*domain.Client, error) {
	list, err := m.next.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	for _, c := range list {
		if err := m.open(c); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (m *encryptionMiddleware) open(c *domain.Client) error {
	if c.SealedPersonalInfo == "" {
		if m.config.AllowPlaintext {
			return nil
		}
		return fmt.Errorf("client %s is missing encrypted data envelope", c.ID)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(c.SealedPersonalInfo)
	if err != nil {
		return fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return fmt.Errorf("failed to decrypt client %s: %w", c.ID, err)
	}

	var info domain.PersonalInfo
	if err := json.Unmarshal(plainText, &info); err != nil {
		return fmt.Errorf("failed to unmarshal decrypted personal info: %w", err)
	}

	c.PersonalInfo = info
	c.SealedPersonalInfo = ""
	return nil
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	ciphertextBytes := ciphertext[gcm.NonceSize():]

	return gcm.Open(nil, nonce, ciphertextBytes, nil)
}
