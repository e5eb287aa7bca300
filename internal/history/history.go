// Package history keeps a journal of executed attempts in SQLite.
package history

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Journal stores attempts. Only executed commands and their outcome are
// kept, never the conversation with the model.
type Journal struct {
	db          *gorm.DB
	versionPath string
}

type Entry struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time `gorm:"index"`

	RunID     string `gorm:"index"`
	Intent    string
	Attempt   int
	Command   string
	Directory string
	ExitCode  int
	Stderr    string
	Success   bool `gorm:"index"`
	Duration  time.Duration
}

const (
	journalSchemaVersion = 1
	maxStoredStderr      = 4096
)

// Open opens or creates the journal database at dbFilePath. versionPath
// holds the schema version marker.
func Open(dbFilePath, versionPath string) (*Journal, error) {
	dbFileExists := true
	if _, err := os.Stat(dbFilePath); errors.Is(err, os.ErrNotExist) {
		dbFileExists = false
	} else if err != nil {
		return nil, fmt.Errorf("error checking history db: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbFilePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("error opening history db: %w", err)
	}

	j := &Journal{db: db, versionPath: versionPath}
	if j.needsMigration(dbFileExists) {
		if err := db.AutoMigrate(&Entry{}); err != nil {
			return nil, fmt.Errorf("error migrating history schema: %w", err)
		}
		if err := os.WriteFile(versionPath, []byte(strconv.Itoa(journalSchemaVersion)), 0644); err != nil {
			return nil, fmt.Errorf("error writing history schema version: %w", err)
		}
	}
	return j, nil
}

func (j *Journal) needsMigration(dbFileExists bool) bool {
	if !dbFileExists {
		return true
	}
	if ok, err := j.schemaVersionMatches(); err != nil || !ok {
		return true
	}
	// Marker present but table gone: restore the schema.
	return !j.db.Migrator().HasTable(&Entry{})
}

func (j *Journal) schemaVersionMatches() (bool, error) {
	data, err := os.ReadFile(j.versionPath)
	if err != nil {
		return false, err
	}
	version, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return false, err
	}
	return version == journalSchemaVersion, nil
}

// Close releases the database handle.
func (j *Journal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Record stores one attempt. Stderr is truncated to keep rows small.
func (j *Journal) Record(entry *Entry) error {
	entry.Stderr = truncate(entry.Stderr, maxStoredStderr)
	return j.db.Create(entry).Error
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Recent returns the last limit entries, oldest first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	var entries []Entry
	result := j.db.Order("created_at desc, id desc").Limit(limit).Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	slices.Reverse(entries)
	return entries, nil
}
