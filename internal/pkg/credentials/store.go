package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	"github.com/donorops/donorops/app/repository"
	"golang.org/x/crypto/pbkdf2"
	"gorm.io/gorm"
)

// keySalt is fixed: the derived key must be stable across restarts so that
// credentials encrypted by one process can be read by the next.
const keySalt = "donorops.processor-credentials.v1"

const keyIterations = 4096

// Store decrypts processor credentials on demand. Credentials are stored as
// AES-256-GCM blobs (base64 of nonce||ciphertext) in the processor row; the
// key is derived from the application secret.
type Store struct {
	processors repository.ProcessorRepository
	key        []byte
}

func NewStore(processors repository.ProcessorRepository, secret string) (*Store, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("secret is required for credential decryption")
	}
	key := pbkdf2.Key([]byte(secret), []byte(keySalt), keyIterations, 32, sha256.New)
	return &Store{processors: processors, key: key}, nil
}

// GetProcessorConfig returns the decrypted credential fields for a processor.
// An unknown processor yields an empty map, not an error, so callers can
// treat "not configured" and "not found" the same way.
func (s *Store) GetProcessorConfig(processorID uint) (map[string]string, error) {
	p, err := s.processors.GetByID(processorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	if strings.TrimSpace(p.CredentialsEnc) == "" {
		return map[string]string{}, nil
	}
	return s.Decode(p.CredentialsEnc)
}

// Encode encrypts credential fields for at-rest storage.
func (s *Store) Encode(fields map[string]string) (string, error) {
	plaintext, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.RawStdEncoding.EncodeToString(sealed), nil
}

// Decode decrypts a stored credential blob. Plain JSON is accepted as-is for
// development setups where rows are seeded by hand.
func (s *Store) Decode(blob string) (map[string]string, error) {
	blob = strings.TrimSpace(blob)
	if strings.HasPrefix(blob, "{") {
		return parseFields([]byte(blob))
	}

	raw, err := base64.RawStdEncoding.DecodeString(blob)
	if err != nil {
		return nil, errors.New("invalid credential blob encoding")
	}
	gcm, err := s.gcm()
	if err != nil {
		return nil, err
	}
	if len(raw) < gcm.NonceSize() {
		return nil, errors.New("credential blob too short")
	}
	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.New("credential decryption failed")
	}
	return parseFields(plaintext)
}

func (s *Store) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func parseFields(raw []byte) (map[string]string, error) {
	fields := map[string]string{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, errors.New("credential payload is not a flat JSON object")
	}
	return fields, nil
}
