package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"io"
	"testing"
	"time"

	"github.com/aretw0/concord/pkg/adapters/memory"
	"github.com/aretw0/concord/pkg/domain"
	"github.com/aretw0/concord/pkg/persistence/middleware"
	"github.com/aretw0/concord/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func submission(version string) domain.StoredPreference {
	return domain.StoredPreference{
		PartyPreference: domain.PartyPreference{
			TemplateID: "nda",
			GroupID:    "liability",
			Party:      domain.PartyA,
			Rejected:   []string{"Z"},
			Ranking:    domain.RankingFromOrder([]string{"X", "Y"}),
		},
		Version:     version,
		SubmittedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Metadata:    map[string]string{"note": "walk-away is Z"},
	}
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunPreferenceStoreContract(t, mw(memory.NewStore()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := memory.NewStore()
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	secureStore := mw(underlyingStore)
	ctx := context.Background()

	original := submission("v1")
	require.NoError(t, secureStore.Save(ctx, original))

	// The underlying store only sees the envelope.
	stored, err := underlyingStore.Latest(ctx, "nda", "liability", domain.PartyA)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.Sealed)
	assert.Empty(t, stored.Ranking)
	assert.Empty(t, stored.Rejected)
	assert.Empty(t, stored.Metadata)
	assert.Equal(t, "v1", stored.Version)

	loaded, err := secureStore.Latest(ctx, "nda", "liability", domain.PartyA)
	require.NoError(t, err)
	assert.Empty(t, loaded.Sealed)
	assert.Equal(t, original.Ranking, loaded.Ranking)
	assert.Equal(t, original.Rejected, loaded.Rejected)
	assert.Equal(t, original.Metadata, loaded.Metadata)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	secureStoreOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlyingStore)
	require.NoError(t, secureStoreOld.Save(ctx, submission("v1")))

	secureStoreNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlyingStore)

	loaded, err := secureStoreNew.Latest(ctx, "nda", "liability", domain.PartyA)
	require.NoError(t, err)
	assert.Equal(t, "v1", loaded.Version)

	require.NoError(t, secureStoreNew.Save(ctx, submission("v2")))

	history, err := secureStoreNew.History(ctx, "nda", "liability", domain.PartyA)
	require.NoError(t, err)
	require.Len(t, history, 2)

	// v2 was sealed with the new key only.
	_, err = secureStoreOld.Latest(ctx, "nda", "liability", domain.PartyA)
	assert.Error(t, err)
}

func TestEncryptionMiddleware_RefusesPlainVersions(t *testing.T) {
	underlyingStore := memory.NewStore()
	require.NoError(t, underlyingStore.Save(context.Background(), submission("plain")))

	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)
	_, err := secureStore.ListLatest(context.Background(), "nda")
	assert.ErrorIs(t, err, middleware.ErrNotSealed)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for invalid key size")
		}
	}()
	middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)

	for name, input := range map[string]string{
		"base64": base64.StdEncoding.EncodeToString(key),
		"hex":    hex.EncodeToString(key),
	} {
		t.Run(name, func(t *testing.T) {
			got, err := middleware.ParseKey(input)
			require.NoError(t, err)
			assert.Equal(t, key, got)
		})
	}

	raw, err := middleware.ParseKey("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	assert.Len(t, raw, 32)

	_, err = middleware.ParseKey("too-short")
	assert.Error(t, err)
}
