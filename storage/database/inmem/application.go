package inmemdb

import (
	"context"
	"sort"

	"github.com/aspirasi/relawan/core"
	"github.com/aspirasi/relawan/core/application"
)

type applicationRepository struct {
	db *DB
}

var _ application.Repository = (*applicationRepository)(nil)

func NewApplicationRepository(db *DB) application.Repository {
	return &applicationRepository{db: db}
}

func (repo *applicationRepository) Atomic(_ context.Context, fn func(tx application.Tx) error) error {
	return repo.db.atomic(func(t *tables) error { return fn(&tx{t: t}) })
}

func (repo *applicationRepository) GetApplication(_ context.Context, id int64) (application.Application, error) {
	var (
		app application.Application
		ok  bool
	)
	repo.db.read(func(t *tables) { app, ok = t.applications[id] })
	if !ok {
		return application.Application{}, core.ErrNotFound
	}
	return app, nil
}

func (repo *applicationRepository) QueryApplications(_ context.Context, filter application.QueryFilter, orderings []core.DBOrdering) ([]application.Application, error) {
	apps := make([]application.Application, 0)
	repo.db.read(func(t *tables) {
		for _, app := range t.applications {
			if matchApplication(app, filter) {
				apps = append(apps, app)
			}
		}
	})

	sort.Slice(apps, func(i, j int) bool { return apps[i].ID < apps[j].ID })
	sort.SliceStable(apps, orderedLess(orderings, func(i, j int, field string) int {
		a, b := apps[i], apps[j]
		switch field {
		case "created_at":
			return compareInts(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano())
		case "registration_number":
			return compareStrings(a.RegistrationNumber, b.RegistrationNumber)
		case "registration_date":
			return compareInts(a.RegistrationDate.Unix(), b.RegistrationDate.Unix())
		case "status":
			return compareStrings(string(a.Status), string(b.Status))
		}
		return 0
	}))
	return apps, nil
}

func (repo *applicationRepository) QueryHistory(_ context.Context, applicationID int64) ([]application.HistoryEntry, error) {
	entries := make([]application.HistoryEntry, 0)
	repo.db.read(func(t *tables) {
		for _, e := range t.history {
			if e.ApplicationID == applicationID {
				entries = append(entries, e)
			}
		}
	})
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		}
		return entries[i].ID < entries[j].ID
	})
	return entries, nil
}

func matchApplication(app application.Application, filter application.QueryFilter) bool {
	if filter.ApplicantID != 0 && app.ApplicantID != filter.ApplicantID {
		return false
	}
	if filter.ProgramID != 0 && app.ProgramID != filter.ProgramID {
		return false
	}
	if filter.Search != "" && !containsFold(app.RegistrationNumber, filter.Search) {
		return false
	}
	if len(filter.Statuses) > 0 {
		for _, s := range filter.Statuses {
			if app.Status == s {
				return true
			}
		}
		return false
	}
	return true
}
