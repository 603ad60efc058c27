package inmemdb

import (
	"context"
	"sort"

	"github.com/aspirasi/relawan/core"
	"github.com/aspirasi/relawan/core/program"
)

type programRepository struct {
	db *DB
}

var _ program.Repository = (*programRepository)(nil)

func NewProgramRepository(db *DB) program.Repository {
	return &programRepository{db: db}
}

func (repo *programRepository) Atomic(_ context.Context, fn func(tx program.Tx) error) error {
	return repo.db.atomic(func(t *tables) error { return fn(&tx{t: t}) })
}

func (repo *programRepository) CreateProgram(_ context.Context, p program.Program) (program.Program, error) {
	err := repo.db.atomic(func(t *tables) error {
		t.pk.program++
		p.ID = t.pk.program
		t.programs[p.ID] = p
		return nil
	})
	return p, err
}

func (repo *programRepository) GetProgram(_ context.Context, id int64) (program.Program, error) {
	var (
		p  program.Program
		ok bool
	)
	repo.db.read(func(t *tables) { p, ok = t.programs[id] })
	if !ok {
		return program.Program{}, core.ErrNotFound
	}
	return p, nil
}

func (repo *programRepository) QueryPrograms(_ context.Context, filter program.QueryFilter, orderings []core.DBOrdering) ([]program.Program, error) {
	programs := make([]program.Program, 0)
	repo.db.read(func(t *tables) {
		for _, p := range t.programs {
			if matchProgram(p, filter) {
				programs = append(programs, p)
			}
		}
	})

	sort.Slice(programs, func(i, j int) bool { return programs[i].ID < programs[j].ID })
	sort.SliceStable(programs, orderedLess(orderings, func(i, j int, field string) int {
		a, b := programs[i], programs[j]
		switch field {
		case "name":
			return compareStrings(a.Name, b.Name)
		case "window_start":
			return compareInts(a.WindowStart.Unix(), b.WindowStart.Unix())
		case "window_end":
			return compareInts(a.WindowEnd.Unix(), b.WindowEnd.Unix())
		case "created_at":
			return compareInts(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano())
		}
		return 0
	}))
	return programs, nil
}

func matchProgram(p program.Program, filter program.QueryFilter) bool {
	if filter.Search != "" && !containsFold(p.Name, filter.Search) && !containsFold(p.Description, filter.Search) {
		return false
	}
	if len(filter.Kinds) > 0 {
		var found bool
		for _, k := range filter.Kinds {
			if p.Kind == k {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(filter.Statuses) > 0 {
		var found bool
		for _, s := range filter.Statuses {
			if p.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
