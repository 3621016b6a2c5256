//go:build integration

package otp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investgate/pkg/platform/sentinel"
	"investgate/pkg/testutil/containers"
)

func TestRedisStore_RoundTrip(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := NewRedisStore(rc.Client)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	challenge := Challenge{
		Identifier: "email:a@b.co",
		Channel:    ChannelEmail,
		CodeHash:   "$2a$10$fakehashforroundtrip",
		Attempts:   1,
		CreatedAt:  now,
		LastSentAt: now,
		ExpiresAt:  now.Add(5 * time.Minute),
	}
	require.NoError(t, store.Save(ctx, challenge))

	got, err := store.Find(ctx, "email:a@b.co")
	require.NoError(t, err)
	assert.Equal(t, challenge.CodeHash, got.CodeHash)
	assert.Equal(t, challenge.Attempts, got.Attempts)
	assert.Equal(t, ChannelEmail, got.Channel)

	require.NoError(t, store.Delete(ctx, "email:a@b.co"))
	_, err = store.Find(ctx, "email:a@b.co")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestRedisStore_ExpiryEvictsChallenge(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := NewRedisStore(rc.Client)
	ctx := context.Background()

	now := time.Now().UTC()
	challenge := Challenge{
		Identifier: "phone:9876543210",
		Channel:    ChannelPhone,
		CodeHash:   "$2a$10$fakehashforexpiry",
		CreatedAt:  now,
		LastSentAt: now,
		ExpiresAt:  now.Add(time.Second),
	}
	require.NoError(t, store.Save(ctx, challenge))

	require.Eventually(t, func() bool {
		_, err := store.Find(ctx, "phone:9876543210")
		return err != nil
	}, 5*time.Second, 100*time.Millisecond, "challenge should expire with its TTL")
}

func TestRedisStore_SaveReplaces(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := NewRedisStore(rc.Client)
	ctx := context.Background()

	now := time.Now().UTC()
	first := Challenge{
		Identifier: "email:a@b.co",
		Channel:    ChannelEmail,
		CodeHash:   "hash-one",
		CreatedAt:  now,
		LastSentAt: now,
		ExpiresAt:  now.Add(5 * time.Minute),
	}
	require.NoError(t, store.Save(ctx, first))

	second := first
	second.CodeHash = "hash-two"
	require.NoError(t, store.Save(ctx, second))

	got, err := store.Find(ctx, "email:a@b.co")
	require.NoError(t, err)
	assert.Equal(t, "hash-two", got.CodeHash)
}
