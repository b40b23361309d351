// Package catalog tracks installed titles in a small SQLite database
// alongside an emulated NAND tree, so callers can enumerate installed
// titles without re-walking the NAND's title/ directory.
package catalog

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ninjacheetah/gowiipkg/title"
	"github.com/ninjacheetah/gowiipkg/werr"
)

// Entry is one row of the install catalog.
type Entry struct {
	TitleID      string `gorm:"primaryKey"`
	TitleVersion uint16
	ContentCount int
	InstalledAt  time.Time
}

func (Entry) TableName() string { return "installed_titles" }

// Catalog is a handle to the install catalog database.
type Catalog struct {
	db *gorm.DB
}

// Open opens (creating if necessary) a catalog database at path.
func Open(path string) (*Catalog, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("%w: opening catalog database: %v", werr.ErrIO, err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("%w: migrating catalog schema: %v", werr.ErrIO, err)
	}
	return &Catalog{db: db}, nil
}

func titleIDString(id [8]byte) string {
	return fmt.Sprintf("%x", id[:])
}

// RecordInstall upserts a catalog entry for t, to be called alongside a
// successful nand.Install.
func (c *Catalog) RecordInstall(t *title.Title, installedAt time.Time) error {
	entry := Entry{
		TitleID:      titleIDString(t.Metadata.TitleID),
		TitleVersion: t.Metadata.TitleVersion,
		ContentCount: len(t.Metadata.ContentRecords),
		InstalledAt:  installedAt,
	}
	if err := c.db.Save(&entry).Error; err != nil {
		return fmt.Errorf("%w: recording install: %v", werr.ErrIO, err)
	}
	return nil
}

// RecordUninstall removes the catalog entry for the given title id, to be
// called alongside a successful nand.Uninstall.
func (c *Catalog) RecordUninstall(titleID [8]byte) error {
	if err := c.db.Delete(&Entry{}, "title_id = ?", titleIDString(titleID)).Error; err != nil {
		return fmt.Errorf("%w: recording uninstall: %v", werr.ErrIO, err)
	}
	return nil
}

// List returns every catalog entry, ordered by install time.
func (c *Catalog) List() ([]Entry, error) {
	var entries []Entry
	if err := c.db.Order("installed_at").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("%w: listing catalog: %v", werr.ErrIO, err)
	}
	return entries, nil
}

// Get returns the catalog entry for a title id, werr.ErrNotFound if absent.
func (c *Catalog) Get(titleID [8]byte) (Entry, error) {
	var entry Entry
	err := c.db.First(&entry, "title_id = ?", titleIDString(titleID)).Error
	if err == gorm.ErrRecordNotFound {
		return Entry{}, fmt.Errorf("%w: no catalog entry for title %s", werr.ErrNotFound, titleIDString(titleID))
	}
	if err != nil {
		return Entry{}, fmt.Errorf("%w: reading catalog entry: %v", werr.ErrIO, err)
	}
	return entry, nil
}

// Close releases the underlying database handle.
func (c *Catalog) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", werr.ErrIO, err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("%w: closing catalog database: %v", werr.ErrIO, err)
	}
	return nil
}
