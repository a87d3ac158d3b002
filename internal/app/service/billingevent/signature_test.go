package billingevent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lojinha-pet/billing/pkg/types"
)

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"invoice.paid"}`)
	sig := Sign("secret", payload)

	require.NoError(t, VerifySignature("secret", payload, sig))

	// surrounding whitespace from proxies must not matter
	require.NoError(t, VerifySignature("secret", payload, " "+sig+" "))

	assert.ErrorIs(t, VerifySignature("secret", payload, "0000"), types.ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature("other", payload, sig), types.ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature("secret", payload, ""), types.ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature("", payload, sig), types.ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature("secret", []byte(`tampered`), sig), types.ErrInvalidSignature)
}
