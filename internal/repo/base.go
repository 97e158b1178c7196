// Package repo holds the plumbing shared by the gorm-backed stores.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/showrunner-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/showrunner-backend/pkg/errors"
)

// Base provides a shared foundation for domain repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(conn *gorm.DB) Base {
	return Base{db: conn}
}

// Bind returns a Base running on tx, or b itself when tx is nil.
func (b Base) Bind(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Translate maps driver errors onto domain error codes. entity names the
// record in messages.
func Translate(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case pkgerrors.As(err) != nil:
		return err
	case db.IsNotFound(err):
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "%s not found", entity)
	case db.IsUniqueViolation(err, ""):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, entity+" already exists")
	default:
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "persist "+entity)
	}
}

// RequireAffected turns a conditional update that touched no rows into a
// state conflict.
func RequireAffected(res *gorm.DB, entity, message string) error {
	if res.Error != nil {
		return Translate(res.Error, entity)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, message)
	}
	return nil
}
