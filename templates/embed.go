package templates

import "embed"

// MigrationsFS holds the goose SQL migrations, applied by nvctl migrate.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS

// EmailFS holds the bodies of outgoing emails, rendered with the email service.
//
//go:embed email/*
var EmailFS embed.FS

// MigrationsDir is the directory inside MigrationsFS goose reads from
const MigrationsDir = "migrations"
