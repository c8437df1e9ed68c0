package devserver

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/MrEthical07/parkauth/internal/rate"
	"github.com/MrEthical07/parkauth/middleware"
	"github.com/MrEthical07/parkauth/password"
	"github.com/MrEthical07/parkauth/session"
)

const (
	msgInvalidCredentials = "Unauthorized: Invalid email or password."
	msgEmailTaken         = "Conflict: An account with this email already exists."
	msgUsernameTaken      = "This username is already taken."
	msgValidationFailed   = "Input payload validation failed"
	msgLoggedOut          = "Successfully logged out"
	msgTooManyLogins      = "Too many failed login attempts. Try again later."
	msgTooManyRefreshes   = "Too many refresh attempts. Try again later."
)

var errBadPassword = errors.New("password mismatch")

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	Username    string `json:"username"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
	Pincode     string `json:"pincode"`
}

func (r registerRequest) missing() map[string]string {
	errs := map[string]string{}
	for field, value := range map[string]string{
		"email":     r.Email,
		"password":  r.Password,
		"full_name": r.FullName,
		"username":  r.Username,
	} {
		if strings.TrimSpace(value) == "" {
			errs[field] = "'" + field + "' is a required property"
		}
	}
	return errs
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginUser struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type loginResponse struct {
	AccessToken string    `json:"access_token"`
	User        loginUser `json:"user"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body registerRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, msgValidationFailed)
		return
	}
	if errs := body.missing(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message": msgValidationFailed,
			"errors":  errs,
		})
		return
	}

	user, err := s.createAccount(r.Context(), body, session.RoleUser)
	switch {
	case errors.Is(err, ErrEmailTaken):
		writeMessage(w, http.StatusConflict, msgEmailTaken)
		return
	case errors.Is(err, ErrUsernameTaken):
		writeMessage(w, http.StatusConflict, msgUsernameTaken)
		return
	case errors.Is(err, password.ErrPasswordTooShort), errors.Is(err, password.ErrPasswordTooLong):
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Error("register failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "An internal error occurred while creating the user.")
		return
	}

	s.logger.Info("user registered", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email == "" || body.Password == "" {
		writeMessage(w, http.StatusBadRequest, msgValidationFailed)
		return
	}

	ip := clientIP(r)
	if err := s.limiter.CheckLogin(r.Context(), body.Email, ip); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			writeMessage(w, http.StatusTooManyRequests, msgTooManyLogins)
			return
		}
		s.logger.Warn("login throttle unavailable", "error", err)
	}

	acct, err := s.users.ByEmail(r.Context(), body.Email)
	if err == nil {
		var ok bool
		ok, err = s.hasher.Verify(body.Password, acct.PasswordHash)
		if err == nil && !ok {
			err = errBadPassword
		}
	}
	if err != nil {
		if rerr := s.limiter.RecordLoginFailure(r.Context(), body.Email, ip); rerr != nil && !errors.Is(rerr, rate.ErrRateLimited) {
			s.logger.Warn("record login failure", "error", rerr)
		}
		writeMessage(w, http.StatusUnauthorized, msgInvalidCredentials)
		return
	}
	if err := s.limiter.ResetLogin(r.Context(), body.Email); err != nil {
		s.logger.Warn("reset login throttle", "error", err)
	}

	access, err := s.tokens.CreateAccess(acct.ID, acct.Role)
	if err != nil {
		s.internalError(w, "sign access token", err)
		return
	}
	refresh, csrf, err := s.tokens.CreateRefresh(acct.ID)
	if err != nil {
		s.internalError(w, "sign refresh token", err)
		return
	}

	s.setRefreshCookies(w, r, refresh, csrf)
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: access,
		User: loginUser{
			Username: acct.Username,
			Email:    acct.Email,
			Role:     acct.Role,
		},
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Missing refresh token"})
		return
	}

	if err := s.limiter.AllowRefresh(r.Context(), claims.Subject); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			writeMessage(w, http.StatusTooManyRequests, msgTooManyRefreshes)
			return
		}
		s.logger.Warn("refresh throttle unavailable", "error", err)
	}

	acct, err := s.users.ByID(r.Context(), claims.Subject)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Error loading the user " + claims.Subject})
		return
	}

	access, err := s.tokens.CreateAccess(acct.ID, acct.Role)
	if err != nil {
		s.internalError(w, "sign access token", err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: access})
}

// handleLogout revokes the presented refresh token. A revocation failure is
// logged and the cookies are cleared regardless.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		var ttl = s.cfg.RefreshTTL
		if claims.ExpiresAt != nil {
			ttl = claims.ExpiresAt.Sub(s.cfg.Now())
		}
		if err := s.revocations.Revoke(r.Context(), claims.ID, ttl); err != nil {
			s.logger.Error("revoke refresh token failed", "jti", claims.ID, "error", err)
		}
	}

	s.clearCookies(w, r)
	writeMessage(w, http.StatusOK, msgLoggedOut)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Missing Authorization Header"})
		return
	}

	acct, err := s.users.ByID(r.Context(), claims.Subject)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Error loading the user " + claims.Subject})
		return
	}
	writeJSON(w, http.StatusOK, acct.User)
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.logger.Error(op+" failed", "error", err)
	writeMessage(w, http.StatusInternalServerError, "Internal Server Error")
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
