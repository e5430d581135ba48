package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/kursadbilgin/ekyc-engine/internal/repository"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "000001_create_verifications",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.VerificationModel{}); err != nil {
					return err
				}
				indexes := []string{
					`CREATE INDEX IF NOT EXISTS idx_verifications_status_created ON verifications (status, created_at)`,
					`CREATE INDEX IF NOT EXISTS idx_verifications_mobile_number ON verifications (mobile_number)`,
					`CREATE INDEX IF NOT EXISTS idx_verifications_created_at ON verifications (created_at)`,
				}
				for _, sql := range indexes {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.VerificationModel{})
			},
		},
	})

	return m.Migrate()
}
