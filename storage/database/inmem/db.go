// Package inmemdb is a process-local store implementing the domain repositories. It backs the tests
// and the "memory" database engine.
package inmemdb

import (
	"strings"
	"sync"

	"github.com/aspirasi/relawan/core"
	"github.com/aspirasi/relawan/core/application"
	"github.com/aspirasi/relawan/core/complaint"
	"github.com/aspirasi/relawan/core/program"
)

type (
	DB struct {
		mutex sync.RWMutex
		t     *tables
	}

	tables struct {
		programs     map[int64]program.Program
		applications map[int64]application.Application
		history      []application.HistoryEntry // append-only
		complaints   map[int64]complaint.Complaint
		sequences    map[string]int
		pk           pkCounters
	}

	pkCounters struct {
		program, application, history, complaint int64
	}
)

func Open() *DB {
	return &DB{t: &tables{
		programs:     make(map[int64]program.Program),
		applications: make(map[int64]application.Application),
		complaints:   make(map[int64]complaint.Complaint),
		sequences:    make(map[string]int),
	}}
}

func (t *tables) clone() *tables {
	c := &tables{
		programs:     make(map[int64]program.Program, len(t.programs)),
		applications: make(map[int64]application.Application, len(t.applications)),
		history:      append([]application.HistoryEntry(nil), t.history...),
		complaints:   make(map[int64]complaint.Complaint, len(t.complaints)),
		sequences:    make(map[string]int, len(t.sequences)),
		pk:           t.pk,
	}
	for id, p := range t.programs {
		c.programs[id] = p
	}
	for id, app := range t.applications {
		app.Documents = append([]string(nil), app.Documents...)
		c.applications[id] = app
	}
	for id, cmp := range t.complaints {
		c.complaints[id] = cmp
	}
	for k, v := range t.sequences {
		c.sequences[k] = v
	}
	return c
}

// atomic runs fn under the write lock. On error every table is restored to its state before fn.
func (db *DB) atomic(fn func(t *tables) error) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	snapshot := db.t.clone()
	if err := fn(db.t); err != nil {
		db.t = snapshot
		return err
	}
	return nil
}

func (db *DB) read(fn func(t *tables)) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	fn(db.t)
}

// orderedLess builds a sort.SliceStable less func from orderings.
// cmp compares items i and j on field, returning a negative, zero or positive number.
func orderedLess(orderings []core.DBOrdering, cmp func(i, j int, field string) int) func(i, j int) bool {
	return func(i, j int) bool {
		for _, ord := range orderings {
			c := cmp(i, j, ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	}
}

func compareStrings(a, b string) int { return strings.Compare(a, b) }

func compareInts(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
