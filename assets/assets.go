package assets

import "embed"

const (
	MigrationsDir     = "migrations"
	EmailTemplatesDir = "templates/email"
)

// Migrations holds the goose SQL migrations.
//go:embed migrations/*.sql
var Migrations embed.FS

// Templates holds the email templates.
//go:embed templates/email/*
var Templates embed.FS
