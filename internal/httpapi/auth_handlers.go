package httpapi

import (
	"database/sql"
	"errors"
	"net/http"

	"sfcars-engine/internal/auth"
	"sfcars-engine/internal/domain"
	"sfcars-engine/internal/store"
)

type AuthHandler struct {
	DB     *sql.DB
	Secret []byte
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, false)
}

func (h AuthHandler) RegisterAdmin(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, true)
}

func (h AuthHandler) register(w http.ResponseWriter, r *http.Request, admin bool) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		fieldError(w, 400, "Email is required")
		return
	}

	if !auth.IsValidEmail(req.Email) {
		fieldError(w, 400, "Email is required")
		return
	}
	taken, err := store.EmailTaken(r.Context(), h.DB, req.Email)
	if err != nil {
		WriteError(w, r, 500, "store_error", err.Error())
		return
	}
	if taken {
		fieldError(w, 400, "Email already registered")
		return
	}
	if req.Password == "" {
		fieldError(w, 400, "Password is required")
		return
	}
	if err := auth.CheckPassword(req.Password); err != nil {
		fieldError(w, 400, err.Error())
		return
	}
	if req.FirstName == "" || req.LastName == "" {
		fieldError(w, 400, "Name is required")
		return
	}
	if !auth.IsValidPhoneNumber(req.PhoneNumber) {
		fieldError(w, 400, "Phone number is required")
		return
	}

	id, err := store.CreateUser(r.Context(), h.DB, domain.User{
		Email:        req.Email,
		PasswordHash: auth.HashPassword(req.Password),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PhoneNumber:  req.PhoneNumber,
		IsAdmin:      admin,
	})
	if err != nil {
		WriteError(w, r, 500, "store_error", err.Error())
		return
	}

	h.issue(w, r, id)
}

func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		fieldError(w, 400, "Invalid email or password")
		return
	}

	u, err := store.GetUserByCredentials(r.Context(), h.DB, req.Email, auth.HashPassword(req.Password))
	if errors.Is(err, store.ErrNotFound) {
		fieldError(w, 400, "Invalid email or password")
		return
	}
	if err != nil {
		WriteError(w, r, 500, "store_error", err.Error())
		return
	}

	h.issue(w, r, u.ID)
}

func (h AuthHandler) issue(w http.ResponseWriter, r *http.Request, userID string) {
	token, err := auth.IssueToken(h.Secret, userID)
	if err != nil {
		WriteError(w, r, 500, "token_error", err.Error())
		return
	}
	writeJSON(w, map[string]string{"token": token})
}
