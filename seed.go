package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/gorm"

	"github.com/Brosquire/nodemaster/models"
)

// seedData imports bootcamps, courses, users and reviews from JSON files in
// dir. A file that does not exist is skipped so partial data sets work.
func seedData(db *gorm.DB, dir string) error {
	if err := seedFile(db, filepath.Join(dir, "users.json"), &[]models.User{}); err != nil {
		return err
	}
	if err := seedFile(db, filepath.Join(dir, "bootcamps.json"), &[]models.Bootcamp{}); err != nil {
		return err
	}
	if err := seedFile(db, filepath.Join(dir, "courses.json"), &[]models.Course{}); err != nil {
		return err
	}
	return seedFile(db, filepath.Join(dir, "reviews.json"), &[]models.Review{})
}

func seedFile(db *gorm.DB, path string, records any) error {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, records); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := db.Create(records).Error; err != nil {
		return fmt.Errorf("importing %s: %w", path, err)
	}
	return nil
}

// wipeData deletes every record, children before parents.
func wipeData(db *gorm.DB) error {
	for _, model := range []any{
		&models.Review{},
		&models.Course{},
		&models.Bootcamp{},
		&models.User{},
	} {
		if err := db.Where("1 = 1").Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}
