package domain

import (
	"sort"
	"time"
)

// User is a registered card holder. ID is the opaque card identifier.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName falls back to the card id when no name was recorded.
func (u User) DisplayName() string {
	if u.Name == "" {
		return u.ID
	}
	return u.Name
}

// SortByRegistration orders users by registration time, ties broken by id.
// The store has no native insertion order so this is the canonical one.
func SortByRegistration(users []User) {
	sort.SliceStable(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.Before(users[j].CreatedAt)
		}
		return users[i].ID < users[j].ID
	})
}

// UserIndex maps user ids to users for name lookups.
type UserIndex map[string]User

// IndexUsers builds a UserIndex.
func IndexUsers(users []User) UserIndex {
	idx := make(UserIndex, len(users))
	for _, u := range users {
		idx[u.ID] = u
	}
	return idx
}

// Name returns the display name for id, or id itself for unknown users.
func (idx UserIndex) Name(id string) string {
	if u, ok := idx[id]; ok {
		return u.DisplayName()
	}
	return id
}

// Operator roles carried in bearer tokens issued by the external auth service.
const (
	RoleOperator = "operator"
	RoleViewer   = "viewer"
)
