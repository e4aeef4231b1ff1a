package api

import (
	"log"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"edms/m/domain"
)

type registerRequest struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// register creates a user account. The very first account becomes the
// admin; after that only admins may create users.
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.UserID = strings.ToUpper(strings.TrimSpace(req.UserID))
	if req.UserID == "" || req.UserName == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "user_id, user_name and password are required")
		return
	}
	if len(req.UserID) > 20 {
		respondError(w, http.StatusBadRequest, "user_id cannot exceed 20 characters")
		return
	}

	var userCount int64
	if err := h.db.Get(&userCount, `SELECT COUNT(*) FROM users`); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to check existing users")
		return
	}

	if userCount == 0 {
		req.Role = RoleAdmin
	} else {
		claims, err := h.parseToken(r)
		if err != nil || claims.Role != RoleAdmin {
			respondError(w, http.StatusForbidden, "only admins can create users")
			return
		}
		if req.Role != RoleAdmin && req.Role != RoleStaff && req.Role != RoleVet {
			respondError(w, http.StatusBadRequest, "role must be admin, staff or vet")
			return
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to secure password")
		return
	}

	_, err = h.db.Exec(`INSERT INTO users (user_id, password_hash, user_name, email, role, created_by, modified_by) VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		req.UserID, string(hashed), strings.TrimSpace(req.UserName), nullIfEmpty(strings.ToLower(req.Email)), req.Role, req.UserID)
	if err != nil {
		respondError(w, http.StatusConflict, "user_id or email already exists")
		return
	}

	token, err := h.generateToken(req.UserID, req.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}

	respondJSON(w, http.StatusCreated, authResponse{
		Token: token,
		User: domain.User{
			UserID:   req.UserID,
			UserName: req.UserName,
			Email:    nullIfEmpty(strings.ToLower(req.Email)),
			Role:     req.Role,
			IsActive: true,
		},
	})
}

type loginRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var user domain.User
	err := h.db.Get(&user, `SELECT user_id, password_hash, user_name, email, role, is_active, last_login, created_date, modified_date, created_by, modified_by FROM users WHERE user_id = $1`,
		strings.ToUpper(strings.TrimSpace(req.UserID)))
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !user.IsActive {
		respondError(w, http.StatusUnauthorized, "account is inactive")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.generateToken(user.UserID, user.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}

	if _, err := h.db.Exec(`UPDATE users SET last_login = CURRENT_TIMESTAMP WHERE user_id = $1`, user.UserID); err != nil {
		log.Printf("login: unable to record last_login for %s: %v", user.UserID, err)
	}

	user.PasswordHash = ""
	respondJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		NewPassword string `json:"new_password"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.NewPassword == "" {
		respondError(w, http.StatusBadRequest, "new_password is required")
		return
	}
	uid := currentUser(r)
	hashed, err := bcrypt.GenerateFromPassword([]byte(payload.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to secure password")
		return
	}
	if _, err := h.db.Exec(`UPDATE users SET password_hash = $1, modified_date = CURRENT_TIMESTAMP, modified_by = $2 WHERE user_id = $2`, string(hashed), uid); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update password")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}
