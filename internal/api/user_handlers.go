package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lixiang810/HV-Com/internal/database"
)

// @Summary      Get current user profile
// @Description  Retrieves the public profile of the currently authenticated user.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.Profile
// @Failure      401  {string}  string "Unauthorized"
// @Failure      404  {string}  string "User not found"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /me [get]
func (s *Server) GetCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	profile, err := s.store.GetProfile(r.Context(), database.UserSelector{ID: claims.UserID})
	if err != nil {
		http.Error(w, "Failed to retrieve user data", http.StatusInternalServerError)
		return
	}
	if profile == nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profile)
}

type UpdateUserRequest struct {
	Avatar     *string `json:"avatar,omitempty" example:"https://example.com/avatar.png"`
	Mail       *string `json:"mail,omitempty" example:"alice@example.com"`
	Website    *string `json:"website,omitempty" example:"https://alice.example.com"`
	TrustLevel *int    `json:"trustLevel,omitempty" example:"1"`
}

// @Summary      Update current user profile
// @Description  Applies a partial update to the authenticated user's mutable profile fields. Omitted fields are left untouched.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        updateRequest  body      UpdateUserRequest  true  "Fields to update"
// @Success      200            {object}  models.Profile
// @Failure      400            {string}  string "Invalid request body"
// @Failure      401            {string}  string "Unauthorized"
// @Failure      404            {string}  string "User not found"
// @Failure      500            {string}  string "Internal Server Error"
// @Router       /me [patch]
func (s *Server) UpdateCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err := s.store.UpdateUser(r.Context(), claims.UserID, database.UpdateUserParams{
		Avatar:     req.Avatar,
		Mail:       req.Mail,
		Website:    req.Website,
		TrustLevel: req.TrustLevel,
	})
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		log.Printf("ERROR: Failed to update user %s: %v", claims.UserID, err)
		http.Error(w, "Failed to update user", http.StatusInternalServerError)
		return
	}

	s.store.PublishAccountEvent(claims.UserID, database.EventProfileUpdated, req)

	profile, err := s.store.GetProfile(r.Context(), database.UserSelector{ID: claims.UserID})
	if err != nil || profile == nil {
		http.Error(w, "Failed to retrieve user data", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profile)
}

// @Summary      Delete current account
// @Description  Permanently removes the authenticated user's account. Session rows cascade with it.
// @Tags         users
// @Security     BearerAuth
// @Success      204  {null}    nil "No Content"
// @Failure      401  {string}  string "Unauthorized"
// @Failure      404  {string}  string "User not found"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /me [delete]
func (s *Server) DeleteCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	if err := s.store.DeleteUser(r.Context(), claims.UserID); err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		log.Printf("ERROR: Failed to delete user %s: %v", claims.UserID, err)
		http.Error(w, "Failed to delete user", http.StatusInternalServerError)
		return
	}

	s.store.PublishAccountEvent(claims.UserID, database.EventUserDeleted, nil)

	w.WriteHeader(http.StatusNoContent)
}

// @Summary      Get a user's public profile
// @Description  Retrieves the public profile of any user by id.
// @Tags         users
// @Produce      json
// @Param        userId  path      string  true  "User id"
// @Success      200     {object}  models.Profile
// @Failure      404     {string}  string "User not found"
// @Failure      500     {string}  string "Internal Server Error"
// @Router       /users/{userId} [get]
func (s *Server) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	profile, err := s.store.GetProfile(r.Context(), database.UserSelector{ID: userID})
	if err != nil {
		http.Error(w, "Failed to retrieve user data", http.StatusInternalServerError)
		return
	}
	if profile == nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profile)
}

// @Summary      Look up a user by username
// @Description  Retrieves the public profile of a user by exact (case-sensitive) username.
// @Tags         users
// @Produce      json
// @Param        username  query     string  true  "Username"
// @Success      200       {object}  models.Profile
// @Failure      400       {string}  string "Missing username"
// @Failure      404       {string}  string "User not found"
// @Failure      500       {string}  string "Internal Server Error"
// @Router       /users [get]
func (s *Server) LookupUserHandler(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		http.Error(w, "Missing username", http.StatusBadRequest)
		return
	}

	profile, err := s.store.GetProfile(r.Context(), database.UserSelector{Username: username})
	if err != nil {
		http.Error(w, "Failed to retrieve user data", http.StatusInternalServerError)
		return
	}
	if profile == nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profile)
}
