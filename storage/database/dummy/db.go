// Package dummydb is an in-memory database used by tests and local tinkering.
package dummydb

import (
	"sync"

	"github.com/tutorlink/backend/core/directory"
	"github.com/tutorlink/backend/core/session"
	"github.com/tutorlink/backend/core/user"
)

type (
	DB struct {
		user      *userTable
		portfolio *portfolioTable
		session   *sessionTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	portfolioTable struct {
		sync.RWMutex
		table map[string]*directory.TutorPortfolio // keyed on tutor id
	}

	sessionTable struct {
		sync.RWMutex
		table map[string]*session.Session
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:      &userTable{table: make(map[string]*user.User)},
		portfolio: &portfolioTable{table: make(map[string]*directory.TutorPortfolio)},
		session:   &sessionTable{table: make(map[string]*session.Session)},
	}
	return db, nil
}
