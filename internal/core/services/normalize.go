package services

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"healthmate/internal/core/domain"
)

// rawIDKeys are tried in order to synthesize an id for a flat user object
var rawIDKeys = []string{"id", "pk", "user_id", "email"}

// NormalizeAuthPayload converts a backend payload into the canonical
// user/profile/role triple. It has no side effects.
func NormalizeAuthPayload(payload domain.AuthPayload) (*domain.NormalizedUser, error) {
	switch p := payload.(type) {
	case domain.NormalizedAuthPayload:
		return normalizeShaped(p)
	case *domain.NormalizedAuthPayload:
		if p == nil {
			return nil, fmt.Errorf("%w: nil payload", domain.ErrNormalization)
		}
		return normalizeShaped(*p)
	case domain.RawAuthPayload:
		return normalizeRaw(p)
	case *domain.RawAuthPayload:
		if p == nil {
			return nil, fmt.Errorf("%w: nil payload", domain.ErrNormalization)
		}
		return normalizeRaw(*p)
	case nil:
		return nil, fmt.Errorf("%w: nil payload", domain.ErrNormalization)
	default:
		return nil, fmt.Errorf("%w: unknown payload variant %T", domain.ErrNormalization, payload)
	}
}

func normalizeShaped(p domain.NormalizedAuthPayload) (*domain.NormalizedUser, error) {
	user := userFromFields(p.AuthUser)
	user.ID = domain.Stringify(p.AuthUser["id"])
	if !user.HasIdentifier() {
		return nil, fmt.Errorf("%w: authUser has no id, email or username (keys: [%s])",
			domain.ErrNormalization, strings.Join(PayloadKeys(p), ", "))
	}

	profile := domain.ProfileRecord{}
	for k, v := range p.UserProfile {
		profile[k] = v
	}

	return &domain.NormalizedUser{
		User:    user,
		Profile: profile,
		Role:    roleFromFields(p.Role),
	}, nil
}

func normalizeRaw(p domain.RawAuthPayload) (*domain.NormalizedUser, error) {
	var id string
	for _, key := range rawIDKeys {
		if id = domain.Stringify(p.Fields[key]); id != "" {
			break
		}
	}
	if id == "" {
		return nil, fmt.Errorf("%w: raw user has none of %v (keys: [%s])",
			domain.ErrNormalization, rawIDKeys, strings.Join(PayloadKeys(p), ", "))
	}

	user := userFromFields(p.Fields)
	user.ID = id

	return &domain.NormalizedUser{
		User:    user,
		Profile: domain.ProfileRecord{},
		Role:    domain.DefaultRole(),
	}, nil
}

func userFromFields(fields map[string]any) *domain.UserRecord {
	return &domain.UserRecord{
		Email:     firstString(fields, "email"),
		Username:  firstString(fields, "username"),
		Name:      firstString(fields, "name", "full_name"),
		FirstName: firstString(fields, "first_name", "firstName"),
		LastName:  firstString(fields, "last_name", "lastName"),
		Phone:     firstString(fields, "phone", "phone_number"),
	}
}

func roleFromFields(fields map[string]any) *domain.RoleRecord {
	if len(fields) == 0 {
		return domain.DefaultRole()
	}

	role := &domain.RoleRecord{
		Name:        firstString(fields, "name", "role_name"),
		Permissions: parsePermissions(fields["permissions"]),
	}
	if role.Name == "" {
		role.Name = domain.DefaultRole().Name
	}
	return role
}

// parsePermissions accepts a name→bool map, a list of granted names, or
// either of those encoded as a JSON string.
func parsePermissions(raw any) map[string]bool {
	out := map[string]bool{}
	switch v := raw.(type) {
	case map[string]any:
		for name, granted := range v {
			switch g := granted.(type) {
			case bool:
				out[name] = g
			case string:
				out[name] = g == "true" || g == "1"
			case float64:
				out[name] = g != 0
			}
		}
	case map[string]bool:
		for name, granted := range v {
			out[name] = granted
		}
	case []any:
		for _, item := range v {
			if name, ok := item.(string); ok && name != "" {
				out[name] = true
			}
		}
	case []string:
		for _, name := range v {
			if name != "" {
				out[name] = true
			}
		}
	case string:
		var decoded any
		if err := json.Unmarshal([]byte(v), &decoded); err == nil {
			return parsePermissions(decoded)
		}
	}
	return out
}

// DecodeAuthPayload classifies a decoded JSON object. An object-valued
// authUser or user key marks the shaped variant; anything else is raw.
func DecodeAuthPayload(body map[string]any) domain.AuthPayload {
	for _, key := range []string{"authUser", "user"} {
		user, ok := body[key].(map[string]any)
		if !ok {
			continue
		}
		payload := domain.NormalizedAuthPayload{AuthUser: user}
		for _, profileKey := range []string{"userProfile", "profile"} {
			if profile, ok := body[profileKey].(map[string]any); ok {
				payload.UserProfile = profile
				break
			}
		}
		switch role := body["role"].(type) {
		case map[string]any:
			payload.Role = role
		case string:
			payload.Role = map[string]any{"name": role}
		}
		return payload
	}
	return domain.RawAuthPayload{Fields: body}
}

// PayloadKeys lists the top-level keys of a payload for diagnostics
func PayloadKeys(payload domain.AuthPayload) []string {
	var fields map[string]any
	switch p := payload.(type) {
	case domain.NormalizedAuthPayload:
		fields = p.AuthUser
	case *domain.NormalizedAuthPayload:
		if p != nil {
			fields = p.AuthUser
		}
	case domain.RawAuthPayload:
		fields = p.Fields
	case *domain.RawAuthPayload:
		if p != nil {
			fields = p.Fields
		}
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func firstString(fields map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := strings.TrimSpace(domain.Stringify(fields[key])); s != "" {
			return s
		}
	}
	return ""
}
