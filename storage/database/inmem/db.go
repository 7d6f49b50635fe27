// Package inmemdb provides in-memory repositories used by tests and local
// tooling. The enrollment repository publishes change events through the
// in-process Broker so live invalidation can be exercised end-to-end without
// a database.
package inmemdb

import (
	"sync"

	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core/course"
	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core/enrollment"
	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core/user"
)

type DB struct {
	mutex sync.RWMutex

	users       map[string]*user.User
	courses     map[string]*course.Course
	enrollments map[string]*enrollment.Enrollment
	banners     []course.Banner
	faqs        []course.FAQ

	broker *Broker
}

func Open() (*DB, error) {
	return &DB{
		users:       make(map[string]*user.User),
		courses:     make(map[string]*course.Course),
		enrollments: make(map[string]*enrollment.Enrollment),
		broker:      NewBroker(),
	}, nil
}

func (db *DB) Broker() *Broker { return db.broker }

func (db *DB) AddBanner(b course.Banner) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.banners = append(db.banners, b)
}

func (db *DB) AddFAQ(f course.FAQ) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.faqs = append(db.faqs, f)
}
