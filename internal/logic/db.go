package logic

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lockForUpdate row-locks the queried rows on dialects that support it.
// sqlite, used by the tests, is single-writer and has no FOR UPDATE.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
