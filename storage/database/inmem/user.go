package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/parishdesk/parishdesk/core"
	"github.com/parishdesk/parishdesk/core/user"
)

var userOrderingFields = []string{"name", "username", "email", "created_at", "last_login"}

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.table))
	for _, u := range repo.db.table {
		users = append(users, *u)
	}
	return users
}

func (repo *userRepository) CheckUsernameUniqueness(_ context.Context, username, email string, excludedUsers ...user.User) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.query() {
		if isExcluded(usr, excludedUsers) {
			continue
		}
		if username != "" && usr.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != "" {
		usr, ok := repo.db.table[filter.ID]
		if !ok || !matchesGetFilter(*usr, filter) {
			return user.User{}, user.ErrNotFound
		}
		return *usr, nil
	}
	if filter.Email == "" && len(filter.UsernameOrEmail) == 0 {
		return user.User{}, user.ErrNotFound
	}
	for _, usr := range repo.query() {
		if matchesGetFilter(usr, filter) {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func matchesGetFilter(usr user.User, filter user.GetFilter) bool {
	if filter.Email != "" && usr.Email != filter.Email {
		return false
	}
	if len(filter.UsernameOrEmail) > 0 {
		for _, v := range filter.UsernameOrEmail {
			if v != "" && (usr.Username == v || usr.Email == v) {
				return true
			}
		}
		return false
	}
	return true
}

func (repo *userRepository) FilterUsers(_ context.Context, filter *user.QueryFilter, orderings []core.DBOrdering) ([]user.User, error) {
	repo.db.RLock()
	users := repo.query()
	repo.db.RUnlock()

	filtered := make([]user.User, 0, len(users))
	for _, u := range users {
		if matchesQueryFilter(u, filter) {
			filtered = append(filtered, u)
		}
	}
	sortUsers(filtered, orderings)
	return filtered, nil
}

func matchesQueryFilter(u user.User, filter *user.QueryFilter) bool {
	if filter == nil {
		return true
	}
	// search keyword matching any of Name, Username or Email
	if filter.Search != "" {
		kw := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(u.Username), kw) &&
			!strings.Contains(strings.ToLower(u.Email), kw) &&
			!strings.Contains(strings.ToLower(u.Name), kw) {
			return false
		}
	}
	// any of the roles
	if len(filter.Roles) > 0 {
		var found bool
		for _, r := range filter.Roles {
			if u.RoleStartsWith(r) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.IsActive != nil && u.IsActive != *filter.IsActive {
		return false
	}
	if !filter.CreatedFrom.IsZero() && u.CreatedAt.Before(filter.CreatedFrom.UTC()) {
		return false
	}
	if !filter.CreatedTo.IsZero() && u.CreatedAt.After(filter.CreatedTo.UTC()) {
		return false
	}
	return true
}

// sortUsers orders by the allowed orderings, then by newest first.
func sortUsers(users []user.User, orderings []core.DBOrdering) {
	orderings = append(core.FilterOrderings(orderings, userOrderingFields...), core.DBOrdering{Field: "created_at"})
	sort.SliceStable(users, func(i, j int) bool {
		for _, ord := range orderings {
			c := compareField(users[i], users[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return users[i].ID < users[j].ID
	})
}

func compareField(a, b user.User, field string) int {
	switch field {
	case "name":
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case "username":
		return strings.Compare(a.Username, b.Username)
	case "email":
		return strings.Compare(a.Email, b.Email)
	case "created_at":
		return compareTimes(a.CreatedAt, b.CreatedAt)
	case "last_login":
		return compareTimes(a.LastLogin, b.LastLogin)
	}
	return 0
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

func isExcluded(usr user.User, excludedUsers []user.User) bool {
	for _, excl := range excludedUsers {
		if excl.ID == usr.ID {
			return true
		}
	}
	return false
}
