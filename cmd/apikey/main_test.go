package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/compass/internal/store"
	"github.com/kiranshivaraju/compass/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memKeys struct {
	keys []*models.APIKey
}

func (m *memKeys) CreateAPIKey(_ context.Context, key *models.APIKey) error {
	m.keys = append(m.keys, key)
	return nil
}

func (m *memKeys) ListAPIKeys(_ context.Context) ([]*models.APIKey, error) {
	return m.keys, nil
}

func (m *memKeys) RevokeAPIKey(_ context.Context, id uuid.UUID) error {
	for i, k := range m.keys {
		if k.ID == id {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func TestExecute_CreateListRevoke(t *testing.T) {
	ctx := context.Background()
	keys := &memKeys{}

	var out bytes.Buffer
	require.NoError(t, execute(ctx, keys, []string{"create", "-name", "ops"}, &out))
	require.Len(t, keys.keys, 1)

	created := keys.keys[0]
	assert.Equal(t, []string{"admin"}, created.Scopes)

	var raw string
	for _, line := range strings.Split(out.String(), "\n") {
		if strings.HasPrefix(line, "key:") {
			raw = strings.TrimSpace(strings.TrimPrefix(line, "key:"))
		}
	}
	require.NotEmpty(t, raw)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.KeyHash), []byte(raw)))

	out.Reset()
	require.NoError(t, execute(ctx, keys, []string{"list"}, &out))
	assert.Contains(t, out.String(), created.KeyPrefix)
	assert.Contains(t, out.String(), "never")

	out.Reset()
	require.NoError(t, execute(ctx, keys, []string{"revoke", "-id", created.ID.String()}, &out))
	assert.Empty(t, keys.keys)
}

func TestExecute_CreateCustomScopes(t *testing.T) {
	keys := &memKeys{}
	var out bytes.Buffer
	require.NoError(t, execute(context.Background(), keys, []string{"create", "-name", "ci", "-scopes", "read, admin,"}, &out))
	assert.Equal(t, []string{"read", "admin"}, keys.keys[0].Scopes)
}

func TestExecute_Errors(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer

	assert.ErrorContains(t, execute(ctx, &memKeys{}, []string{"create"}, &out), "-name is required")
	assert.ErrorContains(t, execute(ctx, &memKeys{}, []string{"revoke", "-id", "nope"}, &out), "invalid -id")
	assert.ErrorIs(t, execute(ctx, &memKeys{}, []string{"revoke", "-id", uuid.NewString()}, &out), store.ErrNotFound)
	assert.ErrorContains(t, execute(ctx, &memKeys{}, []string{"rotate"}, &out), "unknown command")
}
