package http

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/reportd/internal/authn"
)

// SignupRequest is the request body for POST /api/auth/signup.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the request body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

func (s *Server) handleSignup(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	token, err := s.auth.Signup(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if mapped := storeError(err); mapped != err {
			return mapped
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, TokenResponse{Token: token})
}

func (s *Server) handleLogin(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	token, err := s.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, authn.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
		}
		return storeError(err)
	}
	return c.JSON(http.StatusOK, TokenResponse{Token: token})
}

// ForgotPasswordRequest is the request body for POST /api/auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPasswordResponse acknowledges the request. ResetLink is only
// set when the server runs with reset link exposure enabled.
type ForgotPasswordResponse struct {
	Status    string `json:"status"`
	ResetLink string `json:"resetLink,omitempty"`
}

func (s *Server) handleForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	link, err := s.auth.ForgotPassword(c.Request().Context(), req.Email, s.config.ExposeResetLinks)
	if err != nil {
		s.logger.Error("forgot password failed", zap.Error(err))
		return storeError(err)
	}
	return c.JSON(http.StatusOK, ForgotPasswordResponse{Status: "ok", ResetLink: link})
}

// ResetPasswordRequest is the request body for POST /api/auth/reset-password.
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (s *Server) handleResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	err := s.auth.ResetPassword(c.Request().Context(), req.Token, req.Password)
	if err != nil {
		if errors.Is(err, authn.ErrBadToken) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid or expired reset token")
		}
		if mapped := storeError(err); mapped != err {
			return mapped
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// GoogleStatusResponse reports whether Google sign-in is available.
type GoogleStatusResponse struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) handleGoogleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, GoogleStatusResponse{Enabled: s.google != nil})
}

func (s *Server) handleGoogleStart(c echo.Context) error {
	if s.google == nil {
		return echo.NewHTTPError(http.StatusNotFound, "google sign-in is not configured")
	}
	url, err := s.google.AuthURL()
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, url)
}

// handleGoogleCallback finishes the OAuth flow and hands the bearer
// token to the frontend in the URL fragment, which browsers never send
// back to servers.
func (s *Server) handleGoogleCallback(c echo.Context) error {
	if s.google == nil {
		return echo.NewHTTPError(http.StatusNotFound, "google sign-in is not configured")
	}

	token, err := s.google.HandleCallback(c.Request().Context(), c.QueryParam("state"), c.QueryParam("code"))
	if err != nil {
		if errors.Is(err, authn.ErrBadState) {
			return echo.NewHTTPError(http.StatusBadRequest, "login expired, start over")
		}
		s.logger.Error("google callback failed", zap.Error(err))
		if mapped := storeError(err); mapped != err {
			return mapped
		}
		return echo.NewHTTPError(http.StatusUnauthorized, "google sign-in failed")
	}
	return c.Redirect(http.StatusFound, "/#token="+url.QueryEscape(token))
}
