package directory

import (
	"context"
	"sort"
	"sync"
)

// StaticDirectory serves a fixed user set from memory. Used in tests and as a
// seedable directory for local development.
type StaticDirectory struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewStaticDirectory(users ...User) *StaticDirectory {
	d := &StaticDirectory{users: make(map[string]User, len(users))}
	for _, user := range users {
		d.users[user.ID] = user
	}

	return d
}

// AddUser inserts or replaces a directory entry.
func (d *StaticDirectory) AddUser(user User) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.users[user.ID] = user
}

func (d *StaticDirectory) UsersWithRole(ctx context.Context, role, department string) ([]User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	matched := make([]User, 0)

	for _, user := range d.users {
		if !user.IsActive || user.Role != role {
			continue
		}

		if department != "" && user.Department != department {
			continue
		}

		matched = append(matched, user)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	return matched, nil
}

func (d *StaticDirectory) UserByID(ctx context.Context, id string) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	user, ok := d.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}

	return &user, nil
}
