/*
Package chat contains the core logic of the relay.

This file defines the UserRegistry, the authoritative table of registered users:
their IP address, presence status, and last-activity timestamp. A username exists
here exactly while a connection in the ConnRegistry is bound to it; the dispatcher
establishes and tears down both together.
*/
package chat

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"chatrelay/internal/pkg/logx"
)

// userRecord is the registry's record for one registered user.
type userRecord struct {
	ip           string
	status       Status
	lastActivity time.Time
}

// UserRegistry maps usernames to identity, status, and activity data.
// It is guarded independently from the ConnRegistry; the two locks are never
// held at the same time, so the monitor (which only needs this registry) can
// never deadlock against a worker that needs both.
type UserRegistry struct {
	// mu protects users.
	mu sync.Mutex

	// users maps username (case-sensitive) to its record.
	users map[string]*userRecord

	// timeout is the idle duration after which a user is considered inactive.
	timeout time.Duration

	// structured logger with registry context.
	logger zerolog.Logger
}

// NewUserRegistry constructs an empty user registry with the given inactivity timeout.
func NewUserRegistry(timeout time.Duration) *UserRegistry {
	return &UserRegistry{
		users:   make(map[string]*userRecord),
		timeout: timeout,
		logger:  logx.Component("UserRegistry"),
	}
}

// Register atomically checks for and inserts a new user. It returns false,
// without mutating anything, if the username is already taken. New users
// start ACTIVE with last activity set to now.
func (ur *UserRegistry) Register(username, ip string) bool {
	ur.mu.Lock()
	defer ur.mu.Unlock()

	if _, exists := ur.users[username]; exists {
		return false
	}

	ur.users[username] = &userRecord{
		ip:           ip,
		status:       StatusActive,
		lastActivity: time.Now(),
	}

	ur.logger.Info().Str("username", username).Str("ip", ip).Int("total_users", len(ur.users)).Msg("User registered.")
	return true
}

// ChangeStatus sets the user's status to one of the enum values. It returns
// false if the user is unknown or the status is not valid.
func (ur *UserRegistry) ChangeStatus(username string, newStatus Status) bool {
	if _, ok := ParseStatus(string(newStatus)); !ok {
		return false
	}

	ur.mu.Lock()
	defer ur.mu.Unlock()

	record, ok := ur.users[username]
	if !ok {
		return false
	}

	record.status = newStatus
	ur.logger.Info().Str("username", username).Str("status", string(newStatus)).Msg("User status changed.")
	return true
}

// TouchActivity updates the user's last-activity timestamp to now. A user that
// had gone INACTIVE is flipped back to ACTIVE by any sign of life.
func (ur *UserRegistry) TouchActivity(username string) {
	ur.mu.Lock()
	defer ur.mu.Unlock()

	record, ok := ur.users[username]
	if !ok {
		return
	}

	record.lastActivity = time.Now()

	if record.status == StatusInactive {
		record.status = StatusActive
		ur.logger.Info().Str("username", username).Msg("User reactivated by inbound activity.")
	}
}

// CheckInactive flips every user idle for at least the configured timeout to
// INACTIVE, measured against the supplied now. Users already INACTIVE are left
// untouched, so the sweep is idempotent. It returns how many users were flipped.
func (ur *UserRegistry) CheckInactive(now time.Time) int {
	ur.mu.Lock()
	defer ur.mu.Unlock()

	flipped := 0
	for username, record := range ur.users {
		if record.status == StatusInactive {
			continue
		}

		idle := now.Sub(record.lastActivity)
		if idle >= ur.timeout {
			record.status = StatusInactive
			flipped++
			ur.logger.Info().Str("username", username).Dur("idle", idle).Msg("User marked inactive.")
		}
	}

	return flipped
}

// Remove deletes the user from the registry. It returns false if the username
// was not registered.
func (ur *UserRegistry) Remove(username string) bool {
	ur.mu.Lock()
	defer ur.mu.Unlock()

	if _, ok := ur.users[username]; !ok {
		return false
	}

	delete(ur.users, username)
	ur.logger.Info().Str("username", username).Int("total_users", len(ur.users)).Msg("User removed.")
	return true
}

// GetInfo returns the user's IP and status. The second return value reports
// whether the user exists.
func (ur *UserRegistry) GetInfo(username string) (UserInfoContent, bool) {
	ur.mu.Lock()
	defer ur.mu.Unlock()

	record, ok := ur.users[username]
	if !ok {
		return UserInfoContent{}, false
	}

	return UserInfoContent{IP: record.ip, Status: record.status}, true
}

// ListUsernames returns all registered usernames, sorted for deterministic output.
func (ur *UserRegistry) ListUsernames() []string {
	ur.mu.Lock()
	defer ur.mu.Unlock()

	names := make([]string, 0, len(ur.users))
	for name := range ur.users {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
