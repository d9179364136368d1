package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/donorops/donorops/app/models"
)

type fakeProcessorRepo struct {
	processors map[uint]*models.PaymentProcessor
}

func (f *fakeProcessorRepo) Create(p *models.PaymentProcessor) error { return nil }

func (f *fakeProcessorRepo) GetByID(id uint) (*models.PaymentProcessor, error) {
	if p, ok := f.processors[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProcessorRepo) GetActive(paymentType string) ([]models.PaymentProcessor, error) {
	return nil, nil
}

func (f *fakeProcessorRepo) GetPreferred() (*models.PaymentProcessor, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProcessorRepo) Count() (int64, error) { return int64(len(f.processors)), nil }

func TestNewStoreRequiresSecret(t *testing.T) {
	_, err := NewStore(&fakeProcessorRepo{}, "  ")
	require.Error(t, err)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	store, err := NewStore(&fakeProcessorRepo{}, "test-app-secret")
	require.NoError(t, err)

	fields := map[string]string{
		"secret_key":     "sk_test_abc",
		"webhook_secret": "whsec_xyz",
	}
	blob, err := store.Encode(fields)
	require.NoError(t, err)
	assert.NotContains(t, blob, "sk_test_abc")

	decoded, err := store.Decode(blob)
	require.NoError(t, err)
	assert.Equal(t, fields, decoded)
}

func TestDecodeRejectsWrongKey(t *testing.T) {
	store, err := NewStore(&fakeProcessorRepo{}, "test-app-secret")
	require.NoError(t, err)
	blob, err := store.Encode(map[string]string{"secret_key": "sk_test_abc"})
	require.NoError(t, err)

	other, err := NewStore(&fakeProcessorRepo{}, "different-secret")
	require.NoError(t, err)
	_, err = other.Decode(blob)
	require.Error(t, err)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	store, err := NewStore(&fakeProcessorRepo{}, "test-app-secret")
	require.NoError(t, err)

	for _, blob := range []string{"%%%", "c2hvcnQ", ""} {
		if _, err := store.Decode(blob); err == nil {
			t.Fatalf("blob %q decoded without error", blob)
		}
	}
}

func TestDecodeAcceptsPlainJSON(t *testing.T) {
	store, err := NewStore(&fakeProcessorRepo{}, "test-app-secret")
	require.NoError(t, err)

	decoded, err := store.Decode(`{"secret_key": "sk_dev_123"}`)
	require.NoError(t, err)
	assert.Equal(t, "sk_dev_123", decoded["secret_key"])
}

func TestGetProcessorConfig(t *testing.T) {
	repo := &fakeProcessorRepo{processors: map[uint]*models.PaymentProcessor{}}
	store, err := NewStore(repo, "test-app-secret")
	require.NoError(t, err)

	blob, err := store.Encode(map[string]string{"client_id": "paypal-client"})
	require.NoError(t, err)
	repo.processors[1] = &models.PaymentProcessor{ID: 1, CredentialsEnc: blob}
	repo.processors[2] = &models.PaymentProcessor{ID: 2}

	creds, err := store.GetProcessorConfig(1)
	require.NoError(t, err)
	assert.Equal(t, "paypal-client", creds["client_id"])

	// A configured processor without credentials and an unknown processor
	// both come back as empty, not as errors.
	creds, err = store.GetProcessorConfig(2)
	require.NoError(t, err)
	assert.Empty(t, creds)

	creds, err = store.GetProcessorConfig(99)
	require.NoError(t, err)
	assert.Empty(t, creds)
}
