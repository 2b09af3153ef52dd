package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/lixiang810/HV-Com/internal/models"
)

func doJSON(t *testing.T, method, target, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	testRouter.ServeHTTP(rr, req)
	return rr
}

func TestAPI_Register(t *testing.T) {
	rr := doJSON(t, "POST", "/api/v1/auth/register", "", RegisterRequest{
		Username: "reg_user",
		Password: "password123",
		Mail:     "reg@example.com",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	var profile models.Profile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &profile))
	require.NotEmpty(t, profile.ID)
	require.Equal(t, "reg_user", profile.Username)

	// Same username under a different id must surface the store conflict.
	rr = doJSON(t, "POST", "/api/v1/auth/register", "", RegisterRequest{
		Username: "reg_user",
		Password: "password456",
	})
	require.Equal(t, http.StatusConflict, rr.Code)

	rr = doJSON(t, "POST", "/api/v1/auth/register", "", RegisterRequest{Username: "no_password"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAPI_LoginAndMe(t *testing.T) {
	_, _, err := seedUser("login-user", "login_user", "password123")
	require.NoError(t, err)

	rr := doJSON(t, "POST", "/api/v1/auth/login", "", LoginRequest{
		Username: "login_user",
		Password: "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doJSON(t, "POST", "/api/v1/auth/login", "", LoginRequest{
		Username: "login_user",
		Password: "password123",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var tokens TokenResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tokens))
	require.NotEmpty(t, tokens.AccessToken)
	_, err = uuid.Parse(tokens.SessionToken)
	require.NoError(t, err, "the session token is the session row's id")

	rr = doJSON(t, "GET", "/api/v1/me", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var profile models.Profile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &profile))
	require.Equal(t, "login-user", profile.ID)

	rr = doJSON(t, "GET", "/api/v1/me", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAPI_RevokeInvalidatesEverything(t *testing.T) {
	_, token, err := seedUser("revoke-api-user", "revoke_api_user", "password123")
	require.NoError(t, err)

	rr := doJSON(t, "POST", "/api/v1/auth/login", "", LoginRequest{
		Username: "revoke_api_user",
		Password: "password123",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	var tokens TokenResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tokens))

	rr = doJSON(t, "GET", "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, "POST", "/api/v1/auth/revoke", token, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	// The very next attempt with either credential must fail; there is no
	// propagation window.
	rr = doJSON(t, "GET", "/api/v1/me", token, nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doJSON(t, "POST", "/api/v1/auth/refresh", "", RefreshRequest{SessionToken: tokens.SessionToken})
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAPI_RefreshRotatesSession(t *testing.T) {
	_, _, err := seedUser("refresh-user", "refresh_user", "password123")
	require.NoError(t, err)

	rr := doJSON(t, "POST", "/api/v1/auth/login", "", LoginRequest{
		Username: "refresh_user",
		Password: "password123",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	var tokens TokenResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tokens))

	rr = doJSON(t, "POST", "/api/v1/auth/refresh", "", RefreshRequest{SessionToken: tokens.SessionToken})
	require.Equal(t, http.StatusOK, rr.Code)
	var rotated TokenResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rotated))
	require.NotEqual(t, tokens.SessionToken, rotated.SessionToken)

	// The consumed session token is gone.
	rr = doJSON(t, "POST", "/api/v1/auth/refresh", "", RefreshRequest{SessionToken: tokens.SessionToken})
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doJSON(t, "POST", "/api/v1/auth/refresh", "", RefreshRequest{SessionToken: "not-a-uuid"})
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAPI_UpdateProfileAndLookup(t *testing.T) {
	_, token, err := seedUser("update-api-user", "update_api_user", "password123")
	require.NoError(t, err)

	mail := "updated@example.com"
	rr := doJSON(t, "PATCH", "/api/v1/me", token, UpdateUserRequest{Mail: &mail})
	require.Equal(t, http.StatusOK, rr.Code)

	var profile models.Profile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &profile))
	require.Equal(t, mail, profile.Mail)

	rr = doJSON(t, "GET", "/api/v1/users?username=update_api_user", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &profile))
	require.Equal(t, "update-api-user", profile.ID)
	require.Equal(t, mail, profile.Mail)

	rr = doJSON(t, "GET", "/api/v1/users/update-api-user", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, "GET", "/api/v1/users/nope", "", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, "GET", "/api/v1/users", "", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAPI_SessionManagement(t *testing.T) {
	_, token, err := seedUser("sessions-api-user", "sessions_api_user", "password123")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		rr := doJSON(t, "POST", "/api/v1/auth/login", "", LoginRequest{
			Username: "sessions_api_user",
			Password: "password123",
		})
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := doJSON(t, "GET", "/api/v1/sessions", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var sessions []models.Session
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sessions))
	require.Len(t, sessions, 2)

	rr = doJSON(t, "DELETE", "/api/v1/sessions/"+sessions[0].ID.String(), token, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = doJSON(t, "DELETE", "/api/v1/sessions/not-a-uuid", token, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, "GET", "/api/v1/sessions", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sessions))
	require.Len(t, sessions, 1)
}

func TestAPI_DeleteAccount(t *testing.T) {
	_, token, err := seedUser("delete-api-user", "delete_api_user", "password123")
	require.NoError(t, err)

	rr := doJSON(t, "DELETE", "/api/v1/me", token, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	// The account is gone, so the still-valid JWT no longer resolves.
	rr = doJSON(t, "GET", "/api/v1/me", token, nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doJSON(t, "GET", "/api/v1/users/delete-api-user", "", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
}
