package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/MrEthical07/parkauth/session"
)

// Paths of the auth endpoints.
const (
	PathLogin    = "/auth/login"
	PathRegister = "/auth/register"
	PathRefresh  = "/auth/refresh"
	PathLogout   = "/auth/logout"
	PathMe       = "/users/me"
)

// ErrEmptyAccessToken is returned when the backend answers 2xx without a token.
var ErrEmptyAccessToken = errors.New("backend returned no access token")

// Requester is the gateway surface the API needs.
type Requester interface {
	Do(ctx context.Context, method, path string, body, out any) error
}

// Paths lets a deployment mount the endpoints elsewhere. Empty fields use the
// defaults.
type Paths struct {
	Login    string
	Register string
	Refresh  string
	Logout   string
	Me       string
}

func (p Paths) withDefaults() Paths {
	if p.Login == "" {
		p.Login = PathLogin
	}
	if p.Register == "" {
		p.Register = PathRegister
	}
	if p.Refresh == "" {
		p.Refresh = PathRefresh
	}
	if p.Logout == "" {
		p.Logout = PathLogout
	}
	if p.Me == "" {
		p.Me = PathMe
	}
	return p
}

// LoginRequest is the credential payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the login response body. The refresh token arrives as a
// cookie and is never visible here.
type LoginResult struct {
	AccessToken string       `json:"access_token"`
	User        session.User `json:"user"`
}

// RegisterRequest is the account creation payload.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	Username    string `json:"username"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Address     string `json:"address,omitempty"`
	Pincode     string `json:"pincode,omitempty"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// Auth calls the /auth endpoints. It satisfies session.Backend.
type Auth struct {
	req   Requester
	paths Paths
}

// NewAuth binds the auth endpoints to req.
func NewAuth(req Requester, paths Paths) *Auth {
	return &Auth{req: req, paths: paths.withDefaults()}
}

// Login posts credentials to the login endpoint.
func (a *Auth) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var out LoginResult
	if err := a.req.Do(ctx, http.MethodPost, a.paths.Login, LoginRequest{Email: email, Password: password}, &out); err != nil {
		return LoginResult{}, err
	}
	if out.AccessToken == "" {
		return LoginResult{}, ErrEmptyAccessToken
	}
	return out, nil
}

// Register creates an account; it does not sign in.
func (a *Auth) Register(ctx context.Context, in RegisterRequest) (session.User, error) {
	var out session.User
	if err := a.req.Do(ctx, http.MethodPost, a.paths.Register, in, &out); err != nil {
		return session.User{}, err
	}
	return out, nil
}

// Refresh exchanges the refresh cookie for a new access token.
func (a *Auth) Refresh(ctx context.Context) (string, error) {
	var out tokenResponse
	if err := a.req.Do(ctx, http.MethodPost, a.paths.Refresh, nil, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", ErrEmptyAccessToken
	}
	return out.AccessToken, nil
}

// Logout asks the backend to revoke the refresh token.
func (a *Auth) Logout(ctx context.Context) error {
	return a.req.Do(ctx, http.MethodPost, a.paths.Logout, nil, nil)
}

// Users calls the /users endpoints.
type Users struct {
	req   Requester
	paths Paths
}

// NewUsers binds the user endpoints to req.
func NewUsers(req Requester, paths Paths) *Users {
	return &Users{req: req, paths: paths.withDefaults()}
}

// Me fetches the signed-in user's full profile.
func (u *Users) Me(ctx context.Context) (session.User, error) {
	var out session.User
	if err := u.req.Do(ctx, http.MethodGet, u.paths.Me, nil, &out); err != nil {
		return session.User{}, err
	}
	return out, nil
}
