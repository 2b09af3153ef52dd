package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func createTestUser(t *testing.T, id, username string) {
	t.Helper()
	err := testStore.CreateUser(context.Background(), CreateUserParams{
		ID:       id,
		Username: username,
		Password: "bcrypt-hash-placeholder",
		Mail:     username + "@example.com",
	})
	require.NoError(t, err)
}

func TestCreateUserAndGetProfile(t *testing.T) {
	before := time.Now().Unix()
	createTestUser(t, "user-roundtrip", "roundtrip")

	profile, err := testStore.GetProfile(context.Background(), UserSelector{ID: "user-roundtrip"})
	require.NoError(t, err)
	require.NotNil(t, profile)
	require.Equal(t, "user-roundtrip", profile.ID)
	require.Equal(t, "roundtrip", profile.Username)
	require.Equal(t, "roundtrip@example.com", profile.Mail)
	require.Equal(t, 0, profile.TrustLevel)

	byName, err := testStore.GetProfile(context.Background(), UserSelector{Username: "roundtrip"})
	require.NoError(t, err)
	require.NotNil(t, byName)
	require.Equal(t, profile.ID, byName.ID)

	creds, err := testStore.GetCredentials(context.Background(), UserSelector{ID: "user-roundtrip"})
	require.NoError(t, err)
	require.NotNil(t, creds)
	require.Equal(t, "bcrypt-hash-placeholder", creds.Password)
	require.GreaterOrEqual(t, creds.LastRevokeTime, before)
}

func TestGetProfileNoMatch(t *testing.T) {
	profile, err := testStore.GetProfile(context.Background(), UserSelector{ID: "no-such-user"})
	require.NoError(t, err)
	require.Nil(t, profile)

	profile, err = testStore.GetProfile(context.Background(), UserSelector{})
	require.NoError(t, err, "an empty selector is a lookup miss, not an error")
	require.Nil(t, profile)

	creds, err := testStore.GetCredentials(context.Background(), UserSelector{Username: "no-such-user"})
	require.NoError(t, err)
	require.Nil(t, creds)
}

func TestCreateUserUpsertRefreshesOnlyRevokeTime(t *testing.T) {
	createTestUser(t, "user-upsert", "upsert")

	first, err := testStore.GetCredentials(context.Background(), UserSelector{ID: "user-upsert"})
	require.NoError(t, err)
	require.NotNil(t, first)

	time.Sleep(1100 * time.Millisecond)

	// Same id again, with different field values: the row must not duplicate
	// and nothing but last_revoke_time may change.
	err = testStore.CreateUser(context.Background(), CreateUserParams{
		ID:       "user-upsert",
		Username: "upsert-renamed",
		Password: "another-hash",
		Mail:     "other@example.com",
	})
	require.NoError(t, err)

	var count int
	err = testStore.GetPool().QueryRow(context.Background(),
		`SELECT count(*) FROM users WHERE id = $1`, "user-upsert").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	second, err := testStore.GetCredentials(context.Background(), UserSelector{ID: "user-upsert"})
	require.NoError(t, err)
	require.NotNil(t, second)
	require.Equal(t, first.Username, second.Username)
	require.Equal(t, first.Password, second.Password)
	require.Equal(t, first.Mail, second.Mail)
	require.Greater(t, second.LastRevokeTime, first.LastRevokeTime)
}

func TestCreateUserUsernameTaken(t *testing.T) {
	createTestUser(t, "user-conflict-a", "conflicted")

	err := testStore.CreateUser(context.Background(), CreateUserParams{
		ID:       "user-conflict-b",
		Username: "conflicted",
	})
	require.ErrorIs(t, err, ErrUsernameTaken)
}

func TestUpdateUser(t *testing.T) {
	createTestUser(t, "user-update", "updatable")

	mail := "new-mail@example.com"
	trustLevel := 2
	err := testStore.UpdateUser(context.Background(), "user-update", UpdateUserParams{
		Mail:       &mail,
		TrustLevel: &trustLevel,
	})
	require.NoError(t, err)

	profile, err := testStore.GetProfile(context.Background(), UserSelector{ID: "user-update"})
	require.NoError(t, err)
	require.NotNil(t, profile)
	require.Equal(t, mail, profile.Mail)
	require.Equal(t, trustLevel, profile.TrustLevel)
	require.Equal(t, "updatable", profile.Username, "untouched fields must survive a partial update")

	err = testStore.UpdateUser(context.Background(), "no-such-user", UpdateUserParams{Mail: &mail})
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateUserRevokeTimeOnlyMovesForward(t *testing.T) {
	createTestUser(t, "user-clock", "clockuser")

	future := time.Now().Unix() + 3600
	err := testStore.UpdateUser(context.Background(), "user-clock", UpdateUserParams{
		LastRevokeTime: &future,
	})
	require.NoError(t, err)

	past := future - 1800
	err = testStore.UpdateUser(context.Background(), "user-clock", UpdateUserParams{
		LastRevokeTime: &past,
	})
	require.NoError(t, err)

	creds, err := testStore.GetCredentials(context.Background(), UserSelector{ID: "user-clock"})
	require.NoError(t, err)
	require.Equal(t, future, creds.LastRevokeTime, "a stale update must not rewind the revocation clock")
}

func TestDeleteUser(t *testing.T) {
	createTestUser(t, "user-delete", "deletable")

	session, err := testStore.CreateSession(context.Background(), CreateSessionParams{UserID: "user-delete"})
	require.NoError(t, err)

	err = testStore.DeleteUser(context.Background(), "user-delete")
	require.NoError(t, err)

	profile, err := testStore.GetProfile(context.Background(), UserSelector{ID: "user-delete"})
	require.NoError(t, err)
	require.Nil(t, profile)

	mail := "x@example.com"
	err = testStore.UpdateUser(context.Background(), "user-delete", UpdateUserParams{Mail: &mail})
	require.ErrorIs(t, err, ErrUserNotFound)

	err = testStore.DeleteUser(context.Background(), "user-delete")
	require.ErrorIs(t, err, ErrUserNotFound)

	gone, err := testStore.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	require.Nil(t, gone, "session rows cascade with their user")
}
