// Package repository implements data access on top of database/sql. Each
// repository owns one table (plus child tables where rows share a lifecycle)
// and returns sentinel errors so handlers can map failures to HTTP statuses
// without inspecting driver errors.
package repository

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a requested row does not exist. Handlers
// translate it into 404, or into 403 where ownership semantics apply.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller does not own the resource and is
// not an admin. Handlers translate it into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrUsernameExists and ErrEmailExists signal unique-key conflicts on user
// registration. Unlike service slugs, these are rejected rather than
// auto-resolved.
var (
	ErrUsernameExists = errors.New("username already exists")
	ErrEmailExists    = errors.New("email already exists")
)

// ErrSlugExists signals a slug collision on entities where collisions are
// rejected (blog posts). Service slugs are deduplicated instead.
var ErrSlugExists = errors.New("slug already exists")

// ErrVerifiedLocked is returned when an update attempts to change the email
// or phone of a verified account.
var ErrVerifiedLocked = errors.New("verified account contact fields are locked")

// isDuplicate reports whether err is a MySQL duplicate-key violation
// (error 1062).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
