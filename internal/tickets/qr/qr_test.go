package qr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fest-engine/internal/models"
)

func testRegistration() *models.Registration {
	return &models.Registration{
		ID:       "reg-1",
		UserID:   "user-1",
		EventID:  "evt-1",
		TicketID: "TKT-AB12CD34",
	}
}

func TestGenerateEncryptedQR(t *testing.T) {
	g := NewGenerator("test-secret")

	png, err := g.GenerateEncryptedQR(testRegistration())
	require.NoError(t, err)
	assert.NotEmpty(t, png)
	// PNG magic bytes.
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	g := NewGenerator("test-secret")

	encrypted, err := encryptAES([]byte(`{"ticket_id":"TKT-AB12CD34"}`), g.secret)
	require.NoError(t, err)

	payload, err := g.DecryptPayload(encrypted)
	require.NoError(t, err)
	assert.Equal(t, "TKT-AB12CD34", payload.TicketID)
}

// The same plaintext encrypts differently each time because of the
// random IV, but both decrypt back.
func TestEncryptIsRandomized(t *testing.T) {
	g := NewGenerator("test-secret")
	plain := []byte(`{"ticket_id":"TKT-AB12CD34"}`)

	first, err := encryptAES(plain, g.secret)
	require.NoError(t, err)
	second, err := encryptAES(plain, g.secret)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestDecryptWithWrongSecretFails(t *testing.T) {
	encrypted, err := encryptAES([]byte(`{"ticket_id":"TKT-AB12CD34"}`), NewGenerator("right-secret").secret)
	require.NoError(t, err)

	payload, err := NewGenerator("wrong-secret").DecryptPayload(encrypted)
	if err == nil {
		// A wrong key yields garbage plaintext; JSON decoding usually
		// rejects it, and if it somehow parses the fields are wrong.
		assert.NotEqual(t, "TKT-AB12CD34", payload.TicketID)
	}
}

func TestDecryptRejectsShortCiphertext(t *testing.T) {
	g := NewGenerator("test-secret")

	_, err := g.DecryptPayload("dG9vc2hvcnQ=")
	assert.Error(t, err)
}

func TestDecryptRejectsBadEncoding(t *testing.T) {
	g := NewGenerator("test-secret")

	_, err := g.DecryptPayload("not base64!!!")
	assert.Error(t, err)
}
