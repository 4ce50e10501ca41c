package inmemdb

import (
	"sync"

	"github.com/parishdesk/parishdesk/core/user"
)

type (
	// DB is a process-local stand-in for the postgres database, used by tests and the admin CLI dry runs.
	DB struct {
		user *userTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}
)

func Open() *DB {
	return &DB{
		user: &userTable{table: make(map[string]*user.User)},
	}
}
