package api

import (
	"context"
	"log/slog"
	"sync"

	"github.com/MrEthical07/parkauth/internal/logging"
	"github.com/MrEthical07/parkauth/metrics"
	"github.com/MrEthical07/parkauth/session"
)

// ProfileData is the editable profile form.
type ProfileData struct {
	FullName    string
	Username    string
	Email       string
	PhoneNumber string
	Address     string
	Pincode     string
}

// Profile is the profile view model backed by GET /users/me. A failed fetch
// leaves the data and the session untouched.
type Profile struct {
	users   *Users
	log     *slog.Logger
	metrics *metrics.Metrics

	mu   sync.RWMutex
	data ProfileData
}

// NewProfile builds an empty profile view backed by users.
func NewProfile(users *Users, m *metrics.Metrics, logger *slog.Logger) *Profile {
	return &Profile{
		users:   users,
		metrics: m,
		log:     logging.OrDiscard(logger).With("component", "profile"),
	}
}

// Fetch loads the profile. The error is returned to the caller for display.
func (p *Profile) Fetch(ctx context.Context) (ProfileData, error) {
	u, err := p.users.Me(ctx)
	if err != nil {
		p.metrics.Inc(metrics.ProfileFetchFailure)
		p.log.Error("fetch user data failed", "error", err)
		return p.Data(), err
	}

	data := fromUser(u)
	p.mu.Lock()
	p.data = data
	p.mu.Unlock()
	return data, nil
}

// Reset blanks every field.
func (p *Profile) Reset() {
	p.mu.Lock()
	p.data = ProfileData{}
	p.mu.Unlock()
}

// Data returns the last fetched profile.
func (p *Profile) Data() ProfileData {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.data
}

func fromUser(u session.User) ProfileData {
	return ProfileData{
		FullName:    u.FullName,
		Username:    u.Username,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Address:     u.Address,
		Pincode:     u.Pincode,
	}
}
