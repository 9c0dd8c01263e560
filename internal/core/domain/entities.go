package domain

import (
	"strings"
	"time"
)

// Persisted keys shared by every storage driver
const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
	DarkModeKey     = "isDarkMode"
	HealthAlertsKey = "healthAlerts"
	ChatHistoryKey  = "chatHistory"

	// ChatHistoryLimit caps the number of stored conversations
	ChatHistoryLimit = 50
)

// SessionStatus is the state of the session state machine
type SessionStatus string

const (
	StatusUninitialized   SessionStatus = "uninitialized"
	StatusLoading         SessionStatus = "loading"
	StatusAuthenticated   SessionStatus = "authenticated"
	StatusUnauthenticated SessionStatus = "unauthenticated"
)

// UserRecord is the normalized user shape
type UserRecord struct {
	ID        string `json:"id,omitempty"`
	Email     string `json:"email,omitempty"`
	Username  string `json:"username,omitempty"`
	Name      string `json:"name,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// HasIdentifier reports whether the record carries a stable identifier
func (u *UserRecord) HasIdentifier() bool {
	if u == nil {
		return false
	}
	return u.ID != "" || u.Email != "" || u.Username != ""
}

// DisplayName returns the best human readable name for the user
func (u *UserRecord) DisplayName() string {
	if u == nil {
		return ""
	}
	if full := strings.TrimSpace(u.FirstName + " " + u.LastName); full != "" {
		return full
	}
	if u.Name != "" {
		return u.Name
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// ProfileRecord is the backend defined profile document
type ProfileRecord map[string]any

// RoleRecord is the derived, read-only role used for capability gating
type RoleRecord struct {
	Name        string          `json:"name"`
	Permissions map[string]bool `json:"permissions"`
}

// DefaultRole is the role assigned when a backend returns none
func DefaultRole() *RoleRecord {
	return &RoleRecord{Name: "user", Permissions: map[string]bool{}}
}

// Can reports whether the role grants a permission
func (r *RoleRecord) Can(permission string) bool {
	if r == nil {
		return false
	}
	return r.Permissions[permission]
}

// SessionNotice is a blocking notice the UI must acknowledge
type SessionNotice struct {
	Kind     string    `json:"kind"`
	Message  string    `json:"message"`
	Reason   string    `json:"reason,omitempty"`
	Redirect string    `json:"redirect"`
	RaisedAt time.Time `json:"raised_at"`
}

// NoticeSessionExpired is raised by forced logout
const NoticeSessionExpired = "session_expired"

// Session is the in-memory representation of the signed-in user
type Session struct {
	User            *UserRecord    `json:"user"`
	Profile         ProfileRecord  `json:"profile"`
	Role            *RoleRecord    `json:"role"`
	IsAuthenticated bool           `json:"is_authenticated"`
	IsLoading       bool           `json:"is_loading"`
	Status          SessionStatus  `json:"status"`
	Notice          *SessionNotice `json:"notice,omitempty"`
}

// Clone returns a deep copy that callers may keep without racing the owner
func (s Session) Clone() Session {
	out := s
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	if s.Profile != nil {
		out.Profile = make(ProfileRecord, len(s.Profile))
		for k, v := range s.Profile {
			out.Profile[k] = v
		}
	}
	if s.Role != nil {
		r := RoleRecord{Name: s.Role.Name, Permissions: make(map[string]bool, len(s.Role.Permissions))}
		for k, v := range s.Role.Permissions {
			r.Permissions[k] = v
		}
		out.Role = &r
	}
	if s.Notice != nil {
		n := *s.Notice
		out.Notice = &n
	}
	return out
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthPayload is the user payload returned by a backend. It is either a
// NormalizedAuthPayload or a RawAuthPayload.
type AuthPayload interface {
	authPayload()
}

// NormalizedAuthPayload is the already shaped {authUser, userProfile, role} triple
type NormalizedAuthPayload struct {
	AuthUser    map[string]any
	UserProfile map[string]any
	Role        map[string]any
}

// RawAuthPayload is a flat user object
type RawAuthPayload struct {
	Fields map[string]any
}

func (NormalizedAuthPayload) authPayload() {}
func (RawAuthPayload) authPayload()        {}

// NormalizedUser is the canonical user/profile/role triple
type NormalizedUser struct {
	User    *UserRecord
	Profile ProfileRecord
	Role    *RoleRecord
}

// LoginResult is what a backend returns from login or registration
type LoginResult struct {
	Success bool
	Payload AuthPayload
	Tokens  TokenPair
	Message string
}

// RegisterInput represents registration input
type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// AuthResult is returned to callers of login and register
type AuthResult struct {
	Success bool        `json:"success"`
	User    *UserRecord `json:"user,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Document is a single backend record
type Document map[string]any

// ID returns the document identifier under either backend's key
func (d Document) ID() string {
	for _, key := range []string{"id", "$id", "pk"} {
		if v, ok := d[key]; ok && v != nil {
			if s := Stringify(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// DocumentList is the uniform list shape
type DocumentList struct {
	Documents []Document `json:"documents"`
	Total     int        `json:"total"`
}

// ListOptions are the request parameters of a list call
type ListOptions struct {
	Page    int
	Limit   int
	OrderBy string
	Filters map[string]string
}

// Offset returns the zero based offset for the page
func (o ListOptions) Offset() int {
	if o.Page < 1 || o.Limit < 1 {
		return 0
	}
	return (o.Page - 1) * o.Limit
}

// HealthAlert is a locally stored reminder
type HealthAlert struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	Time          string    `json:"time"`
	Days          []int     `json:"days"`
	MinutesBefore int       `json:"minutes_before"`
	Enabled       bool      `json:"enabled"`
	CreatedAt     time.Time `json:"created_at"`
}

// ChatMessage is one message of a conversation
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatConversation is a stored assistant conversation
type ChatConversation struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Messages    []ChatMessage `json:"messages"`
	LastUpdated time.Time     `json:"lastUpdated"`
}
