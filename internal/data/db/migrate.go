package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/javuy-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return EnsureLearningIndexes(db)
}

// EnsureLearningIndexes covers lookups the struct tags do not express.
func EnsureLearningIndexes(db *gorm.DB) error {
	stmts := []struct{ name, sql string }{
		{"idx_user_role_xp", `CREATE INDEX IF NOT EXISTS idx_user_role_xp ON "user"(role, xp DESC, username);`},
		{"idx_progress_user_status", `CREATE INDEX IF NOT EXISTS idx_progress_user_status ON progress(user_id, status);`},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}
