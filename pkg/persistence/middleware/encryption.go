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

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
)

// envelopeKey marks a record whose payload has been sealed.
const envelopeKey = "__encrypted__"

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new records.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.CommitLog
	config EncryptionConfig
}

// recordPayload is the sensitive part of a record: everything a reader
// would need to reproduce the element's content. Structural fields (doc,
// seq, node, parent, role) stay in the clear so sinks can index them.
type recordPayload struct {
	Title string            `json:"title,omitempty"`
	Attrs map[string]string `json:"attrs,omitempty"`
	Kids  []domain.KidRef   `json:"kids,omitempty"`
}

// NewEncryptionMiddleware creates a middleware that seals record payloads
// using AES-GCM (Envelope Encryption).
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.CommitLog) ports.CommitLog {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Commit(ctx context.Context, rec *domain.CommitRecord) error {
	// 1. Serialize the sensitive payload
	plainText, err := json.Marshal(recordPayload{
		Title: rec.Title,
		Attrs: rec.Attrs,
		Kids:  rec.Kids,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal record payload: %w", err)
	}

	// 2. Encrypt
	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt record payload: %w", err)
	}

	// 3. Create envelope
	// The envelope keeps the structural fields readable (sinks key and
	// order on them) and hides title, attributes and the child list.
	envelope := &domain.CommitRecord{
		DocID:       rec.DocID,
		Seq:         rec.Seq,
		NodeID:      rec.NodeID,
		ParentID:    rec.ParentID,
		Role:        rec.Role,
		CommittedAt: rec.CommittedAt,
		Attrs: map[string]string{
			envelopeKey: base64.StdEncoding.EncodeToString(ciphertext),
		},
	}

	return m.next.Commit(ctx, envelope)
}

func (m *encryptionMiddleware) Committed(ctx context.Context, docID string) ([]domain.CommitRecord, error) {
	envelopes, err := m.next.Committed(ctx, docID)
	if err != nil {
		return nil, err
	}

	records := make([]domain.CommitRecord, len(envelopes))
	for i := range envelopes {
		rec, err := m.open(&envelopes[i])
		if err != nil {
			return nil, fmt.Errorf("record seq %d: %w", envelopes[i].Seq, err)
		}
		records[i] = *rec
	}
	return records, nil
}

// open unseals one envelope back into the original record. A record
// without an envelope fails: once encryption is configured, plain records
// in the log mean something went wrong.
func (m *encryptionMiddleware) open(envelope *domain.CommitRecord) (*domain.CommitRecord, error) {
	encryptedStr, ok := envelope.Attrs[envelopeKey]
	if !ok {
		return nil, errors.New("record is missing encrypted data envelope")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encryptedStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt record payload: %w", err)
	}

	var payload recordPayload
	if err := json.Unmarshal(plainText, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted payload: %w", err)
	}

	rec := *envelope
	rec.Title = payload.Title
	rec.Attrs = payload.Attrs
	rec.Kids = payload.Kids
	return &rec, nil
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
	// Try active key first
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	// Try fallbacks in order
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
