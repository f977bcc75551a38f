package migration_1

import (
	"fmt"

	"gorm.io/gorm"
)

type TrainedModel struct {
	Active bool `gorm:"default:false"`
}

func Migration(db *gorm.DB) error {
	if err := db.Migrator().AddColumn(&TrainedModel{}, "active"); err != nil {
		return fmt.Errorf("error adding Active column: %w", err)
	}

	if err := db.Model(&TrainedModel{}).
		Where("active IS NULL").
		Update("active", false).Error; err != nil {
		return fmt.Errorf("error setting default value for Active: %w", err)
	}

	return nil
}

func Rollback(db *gorm.DB) error {
	if err := db.Migrator().DropColumn(&TrainedModel{}, "Active"); err != nil {
		return fmt.Errorf("error dropping Active column: %w", err)
	}

	return nil
}
