package main

import "errors"

var (
	// errNoDatabase is returned when a component needs the database but
	// none was opened.
	errNoDatabase = errors.New("database not configured")

	// errNoStore is returned by level commands when settings.backend is none.
	errNoStore = errors.New("settings backend is none; levels are not persisted")

	// errNoSecret is returned by the token command without a JWT secret.
	errNoSecret = errors.New("security.jwt.secret is not set")
)
