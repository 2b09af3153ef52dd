package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jaevor/go-nanoid"

	"github.com/lixiang810/HV-Com/internal/auth"
	"github.com/lixiang810/HV-Com/internal/database"
	"github.com/lixiang810/HV-Com/internal/models"
)

type RegisterRequest struct {
	Username string `json:"username" example:"alice"`
	Password string `json:"password" example:"password123"`
	Mail     string `json:"mail" example:"alice@example.com"`
	Website  string `json:"website" example:"https://alice.example.com"`
	Avatar   string `json:"avatar" example:"https://example.com/avatar.png"`
}

type LoginRequest struct {
	Username string `json:"username" example:"alice"`
	Password string `json:"password" example:"password123"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJ1c2VyX2lkIjoiVTFTdEdYUjgiLCJleHAiOjE2MTY0MjY3NjZ9...."`
	SessionToken string `json:"session_token" example:"a1b2c3d4-e5f6-7890-1234-567890abcdef"`
}

// @Summary      Register a new account
// @Description  Creates a user with a freshly generated id and a bcrypt-hashed password.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        registerRequest  body      RegisterRequest  true  "New account"
// @Success      201              {object}  models.Profile
// @Failure      400              {string}  string "Invalid request body"
// @Failure      409              {string}  string "Username is already taken"
// @Failure      500              {string}  string "Internal Server Error"
// @Router       /auth/register [post]
func (s *Server) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	generateID, err := nanoid.Standard(21)
	if err != nil {
		log.Printf("CRITICAL: Failed to initialize nanoid generator: %v", err)
		http.Error(w, "Internal server error (id generation)", http.StatusInternalServerError)
		return
	}

	params := database.CreateUserParams{
		ID:       generateID(),
		Username: req.Username,
		Password: hashedPassword,
		Avatar:   req.Avatar,
		Mail:     req.Mail,
		Website:  req.Website,
	}

	if err := s.store.CreateUser(r.Context(), params); err != nil {
		if errors.Is(err, database.ErrUsernameTaken) {
			http.Error(w, "Username is already taken", http.StatusConflict)
			return
		}
		log.Printf("ERROR: Failed to create user %s: %v", req.Username, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(models.Profile{
		ID:       params.ID,
		Username: params.Username,
		Avatar:   params.Avatar,
		Mail:     params.Mail,
		Website:  params.Website,
	})
}

// @Summary      Logs a user in
// @Description  Authenticates a user and returns a short-lived access token plus a session token bound to this login.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        loginRequest   body      LoginRequest  true  "Login Credentials"
// @Success      200            {object}  TokenResponse
// @Failure      400            {string}  string "Invalid request body"
// @Failure      401            {string}  string "Invalid username or password"
// @Failure      500            {string}  string "Internal Server Error"
// @Router       /auth/login [post]
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := s.store.GetCredentials(r.Context(), database.UserSelector{Username: req.Username})
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if user == nil || !auth.CheckPasswordHash(req.Password, user.Password) {
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	accessToken, err := auth.GenerateJWT(user, s.config.JWT.Secret)
	if err != nil {
		http.Error(w, "Failed to generate access token", http.StatusInternalServerError)
		return
	}

	session, err := s.store.CreateSession(r.Context(), database.CreateSessionParams{
		UserID:    user.ID,
		UserAgent: r.UserAgent(),
		ClientIP:  r.RemoteAddr,
	})
	if err != nil {
		log.Printf("ERROR: Failed to create session for user %s: %v", user.ID, err)
		http.Error(w, "Failed to process login session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(TokenResponse{
		AccessToken:  accessToken,
		SessionToken: session.ID.String(),
	})
}

type RefreshRequest struct {
	SessionToken string `json:"session_token" example:"a1b2c3d4-e5f6-7890-1234-567890abcdef"`
}

var errInvalidSession = errors.New("invalid or revoked session")

// @Summary      Refresh access token
// @Description  Exchanges a session token for a fresh access token, rotating the session row. Sessions issued before the user's last revocation are rejected even though the row may still exist.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        refreshRequest   body      RefreshRequest  true  "Session Token"
// @Success      200              {object}  TokenResponse
// @Failure      400              {string}  string "Invalid request body or missing token"
// @Failure      401              {string}  string "Invalid or revoked session"
// @Failure      500              {string}  string "Internal Server Error"
// @Router       /auth/refresh [post]
func (s *Server) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.SessionToken == "" {
		http.Error(w, "Session token is required", http.StatusBadRequest)
		return
	}

	sessionID, err := uuid.Parse(req.SessionToken)
	if err != nil {
		http.Error(w, "Invalid or revoked session", http.StatusUnauthorized)
		return
	}

	var newAccessToken string
	var newSession *models.Session

	txErr := s.store.ExecTx(r.Context(), func(q *database.Queries) error {
		session, err := q.GetSession(r.Context(), sessionID)
		if err != nil {
			return err
		}
		if session == nil {
			return errInvalidSession
		}

		user, err := q.GetUserBySession(r.Context(), sessionID)
		if err != nil {
			return err
		}
		if user == nil {
			return errInvalidSession
		}

		if auth.Revoked(session.CreatedAt.Unix(), user.LastRevokeTime) {
			// The row is logically dead; drop it while we are here.
			if err := q.DeleteSession(r.Context(), sessionID, user.ID); err != nil {
				return err
			}
			return errInvalidSession
		}

		if err := q.DeleteSession(r.Context(), sessionID, user.ID); err != nil {
			return err
		}

		newAccessToken, err = auth.GenerateJWT(user, s.config.JWT.Secret)
		if err != nil {
			return err
		}

		newSession, err = q.CreateSession(r.Context(), database.CreateSessionParams{
			UserID:    user.ID,
			UserAgent: r.UserAgent(),
			ClientIP:  r.RemoteAddr,
		})
		return err
	})

	if txErr != nil {
		if errors.Is(txErr, errInvalidSession) {
			http.Error(w, "Invalid or revoked session", http.StatusUnauthorized)
		} else {
			log.Printf("ERROR: Session refresh transaction failed: %v", txErr)
			http.Error(w, "Failed to refresh session", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(TokenResponse{
		AccessToken:  newAccessToken,
		SessionToken: newSession.ID.String(),
	})
}

// @Summary      Log out everywhere
// @Description  Advances the account's revocation clock, invalidating every outstanding access and session token in one write, and garbage-collects the dead session rows.
// @Tags         auth
// @Security     BearerAuth
// @Success      204  {null}    nil "No Content"
// @Failure      401  {string}  string "Unauthorized"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /auth/revoke [post]
func (s *Server) RevokeAllHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	now := time.Now().Unix()
	err := s.store.UpdateUser(r.Context(), claims.UserID, database.UpdateUserParams{
		LastRevokeTime: &now,
	})
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		log.Printf("ERROR: Failed to advance revocation clock for user %s: %v", claims.UserID, err)
		http.Error(w, "Failed to revoke sessions", http.StatusInternalServerError)
		return
	}

	// Cleanup is best-effort; the timestamp alone already invalidates everything.
	if _, err := s.store.PurgeSessionsBefore(r.Context(), claims.UserID, now); err != nil {
		log.Printf("WARN: Failed to purge sessions for user %s: %v", claims.UserID, err)
	}

	s.store.PublishAccountEvent(claims.UserID, database.EventSessionsRevoked, nil)

	w.WriteHeader(http.StatusNoContent)
}
