package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/concord/pkg/domain"
	"github.com/aretw0/concord/pkg/ports"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// ErrNotSealed is returned when a stored version carries no encrypted payload.
var ErrNotSealed = errors.New("stored preference is missing its sealed payload")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

// ParseKey decodes a key given as base64, hex or 32 raw bytes.
func ParseKey(s string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(s); err == nil && len(b) == KeySize {
		return b, nil
	}
	if b, err := hex.DecodeString(s); err == nil && len(b) == KeySize {
		return b, nil
	}
	if len(s) == KeySize {
		return []byte(s), nil
	}
	return nil, fmt.Errorf("encryption key must be %d bytes (raw, hex or base64)", KeySize)
}

type encryptionMiddleware struct {
	next   ports.PreferenceStore
	config EncryptionConfig
}

// sealedPayload is the part of a submission hidden inside the envelope.
type sealedPayload struct {
	Rejected []string               `json:"rejected"`
	Ranking  []domain.RankedVariant `json:"ranking"`
	Metadata map[string]string      `json:"metadata,omitempty"`
}

// NewEncryptionMiddleware creates a middleware that seals rankings, rejections
// and metadata with AES-GCM. The addressing fields stay in clear so the
// underlying store can still index versions.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != KeySize {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.PreferenceStore) ports.PreferenceStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, pref domain.StoredPreference) error {
	plainText, err := json.Marshal(sealedPayload{
		Rejected: pref.Rejected,
		Ranking:  pref.Ranking,
		Metadata: pref.Metadata,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal preference: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt preference: %w", err)
	}

	envelope := domain.StoredPreference{
		PartyPreference: domain.PartyPreference{
			TemplateID: pref.TemplateID,
			GroupID:    pref.GroupID,
			Party:      pref.Party,
		},
		Version:     pref.Version,
		SubmittedAt: pref.SubmittedAt,
		Sealed:      base64.StdEncoding.EncodeToString(ciphertext),
	}
	return m.next.Save(ctx, envelope)
}

func (m *encryptionMiddleware) Latest(ctx context.Context, templateID, groupID string, party domain.Party) (domain.StoredPreference, error) {
	envelope, err := m.next.Latest(ctx, templateID, groupID, party)
	if err != nil {
		return domain.StoredPreference{}, err
	}
	return m.open(envelope)
}

func (m *encryptionMiddleware) History(ctx context.Context, templateID, groupID string, party domain.Party) ([]domain.StoredPreference, error) {
	envelopes, err := m.next.History(ctx, templateID, groupID, party)
	if err != nil {
		return nil, err
	}
	return m.openAll(envelopes)
}

func (m *encryptionMiddleware) ListLatest(ctx context.Context, templateID string) ([]domain.StoredPreference, error) {
	envelopes, err := m.next.ListLatest(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return m.openAll(envelopes)
}

func (m *encryptionMiddleware) openAll(envelopes []domain.StoredPreference) ([]domain.StoredPreference, error) {
	out := make([]domain.StoredPreference, 0, len(envelopes))
	for _, e := range envelopes {
		p, err := m.open(e)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *encryptionMiddleware) open(envelope domain.StoredPreference) (domain.StoredPreference, error) {
	if envelope.Sealed == "" {
		return domain.StoredPreference{}, fmt.Errorf("%w: %s/%s/%s@%s", ErrNotSealed, envelope.TemplateID, envelope.GroupID, envelope.Party, envelope.Version)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(envelope.Sealed)
	if err != nil {
		return domain.StoredPreference{}, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return domain.StoredPreference{}, fmt.Errorf("failed to decrypt preference: %w", err)
	}

	var payload sealedPayload
	if err := json.Unmarshal(plainText, &payload); err != nil {
		return domain.StoredPreference{}, fmt.Errorf("failed to unmarshal decrypted preference: %w", err)
	}

	out := envelope
	out.Sealed = ""
	out.Rejected = payload.Rejected
	out.Ranking = payload.Ranking
	out.Metadata = payload.Metadata
	return out, nil
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
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}
