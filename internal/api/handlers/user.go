package handlers

import (
	"net/http"

	"github.com/cantetik/hepsiemlak-todo-case/internal/api/middleware"
	"github.com/cantetik/hepsiemlak-todo-case/internal/api/response"
	"github.com/cantetik/hepsiemlak-todo-case/internal/domain"
	"github.com/cantetik/hepsiemlak-todo-case/internal/logging"
	"github.com/cantetik/hepsiemlak-todo-case/internal/service"
)

const (
	HeaderUserID       = "User-Id"
	HeaderAccessToken  = "Access-Token"
	HeaderRefreshToken = "Refresh-Token"
)

type UserHandler struct {
	identity *service.IdentityService
	log      logging.Logger
}

func NewUserHandler(identity *service.IdentityService, log logging.Logger) *UserHandler {
	return &UserHandler{identity: identity, log: log}
}

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (req CredentialsRequest) validate() error {
	v := &response.ValidationError{}
	email(v, "username", req.Username)
	notBlank(v, "password", req.Password)
	return v.Err()
}

type RefreshTokenRequest struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (req RefreshTokenRequest) validate() error {
	v := &response.ValidationError{}
	notBlank(v, "accessToken", req.AccessToken)
	notBlank(v, "refreshToken", req.RefreshToken)
	return v.Err()
}

type ChangePasswordRequest struct {
	Username    string `json:"username"`
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (req ChangePasswordRequest) validate() error {
	v := &response.ValidationError{}
	email(v, "username", req.Username)
	notBlank(v, "oldPassword", req.OldPassword)
	notBlank(v, "newPassword", req.NewPassword)
	return v.Err()
}

type RegisterResponse struct {
	ID string `json:"id"`
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decode(w, r, &req); err != nil {
		response.Error(w, r, h.log, err)
		return
	}
	if err := req.validate(); err != nil {
		response.Error(w, r, h.log, err)
		return
	}

	id, err := h.identity.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		response.Error(w, r, h.log, err)
		return
	}

	w.Header().Set(HeaderUserID, id.String())
	response.JSON(w, http.StatusCreated, RegisterResponse{ID: id.String()})
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decode(w, r, &req); err != nil {
		response.Error(w, r, h.log, err)
		return
	}
	if err := req.validate(); err != nil {
		response.Error(w, r, h.log, err)
		return
	}

	pair, err := h.identity.Login(r.Context(), service.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		response.Error(w, r, h.log, err)
		return
	}
	writeTokens(w, pair)
}

func (h *UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if err := decode(w, r, &req); err != nil {
		response.Error(w, r, h.log, err)
		return
	}
	if err := req.validate(); err != nil {
		response.Error(w, r, h.log, err)
		return
	}

	pair, err := h.identity.Refresh(r.Context(), req.AccessToken, req.RefreshToken)
	if err != nil {
		response.Error(w, r, h.log, err)
		return
	}
	writeTokens(w, pair)
}

// ChangePassword only accepts a body naming the bearer's own account.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := decode(w, r, &req); err != nil {
		response.Error(w, r, h.log, err)
		return
	}
	if err := req.validate(); err != nil {
		response.Error(w, r, h.log, err)
		return
	}

	username, _ := middleware.GetUsername(r.Context())
	if username != req.Username {
		response.Error(w, r, h.log, domain.ErrSubjectMismatch)
		return
	}

	err := h.identity.ChangePassword(r.Context(), service.ChangePasswordInput{
		Username:    req.Username,
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		response.Error(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	token, _ := middleware.GetAccessToken(r.Context())
	if err := h.identity.DeleteAccount(r.Context(), token); err != nil {
		response.Error(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func writeTokens(w http.ResponseWriter, pair *domain.TokenPair) {
	w.Header().Set(HeaderAccessToken, pair.AccessToken)
	w.Header().Set(HeaderRefreshToken, pair.RefreshToken)
	response.JSON(w, http.StatusOK, pair)
}
