package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/meshauth/authority-core/internal/identity"
)

// InitDB opens the SQLite database at dsn and migrates the member and
// token tables. dsn is a plain filesystem path, or ":memory:" for an
// ephemeral database.
func InitDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	if err := db.AutoMigrate(&memberRow{}, &tokenRow{}); err != nil {
		return nil, fmt.Errorf("store: migrate database: %w", err)
	}
	// SQLite has no real concurrent-writer story; pin the pool to one
	// connection so concurrent TokenStore.Use calls serialize through
	// database/sql rather than racing each other's read-then-write.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("store: underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// SQLMemberStore is the GORM-backed MemberStore.
type SQLMemberStore struct {
	db *gorm.DB
}

func NewSQLMemberStore(db *gorm.DB) *SQLMemberStore {
	return &SQLMemberStore{db: db}
}

func (s *SQLMemberStore) Get(id identity.Identifier) (*Member, error) {
	var row memberRow
	err := s.db.Where("identifier = ?", id.String()).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get member: %w", err)
	}
	m, err := rowToMember(row)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *SQLMemberStore) GetAll() ([]Member, error) {
	var rows []memberRow
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: get all members: %w", err)
	}
	members := make([]Member, 0, len(rows))
	for _, row := range rows {
		m, err := rowToMember(row)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, nil
}

// Add upserts m by identifier, per the one-member-per-identifier invariant.
func (s *SQLMemberStore) Add(m Member) error {
	row, err := memberToRow(m)
	if err != nil {
		return err
	}
	err = s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("store: add member: %w", err)
	}
	return nil
}

// Delete removes the member unless it is pre-trusted, in which case it is
// silently left intact.
func (s *SQLMemberStore) Delete(id identity.Identifier) error {
	err := s.db.Where("identifier = ? AND is_pre_trusted = ?", id.String(), false).
		Delete(&memberRow{}).Error
	if err != nil {
		return fmt.Errorf("store: delete member: %w", err)
	}
	return nil
}

// BootstrapPreTrusted atomically replaces the pre-trusted subset of the
// registry: delete every existing pre-trusted row, then insert the given
// members.
func (s *SQLMemberStore) BootstrapPreTrusted(members []Member) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("is_pre_trusted = ?", true).Delete(&memberRow{}).Error; err != nil {
			return fmt.Errorf("store: bootstrap: clear pre-trusted: %w", err)
		}
		for _, m := range members {
			row, err := memberToRow(m)
			if err != nil {
				return err
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("store: bootstrap: insert %s: %w", m.Identifier, err)
			}
		}
		return nil
	})
}

// SQLTokenStore is the GORM-backed TokenStore.
type SQLTokenStore struct {
	db *gorm.DB
}

func NewSQLTokenStore(db *gorm.DB) *SQLTokenStore {
	return &SQLTokenStore{db: db}
}

func (s *SQLTokenStore) Issue(t Token) error {
	row, err := tokenToRow(t)
	if err != nil {
		return err
	}
	if err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("store: issue token: %w", err)
	}
	return nil
}

// Use implements the atomic redeem sequence: sweep expired tokens, then
// within a transaction look up the code, delete it if this exhausts
// ttl_count or otherwise decrement it, and return the record as observed
// before decrement. A nil result with no error means the code is unknown
// or expired.
func (s *SQLTokenStore) Use(code OneTimeCode, now time.Time) (*Token, error) {
	if err := s.db.Where("expires_at <= ?", now.Unix()).Delete(&tokenRow{}).Error; err != nil {
		return nil, fmt.Errorf("store: use token: sweep expired: %w", err)
	}

	var result *Token
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var row tokenRow
		err := tx.Where("one_time_code = ?", code.String()).Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("store: use token: lookup: %w", err)
		}

		tok, err := rowToToken(row)
		if err != nil {
			return err
		}

		if tok.TTLCount <= 1 {
			if err := tx.Where("one_time_code = ?", code.String()).Delete(&tokenRow{}).Error; err != nil {
				return fmt.Errorf("store: use token: delete exhausted: %w", err)
			}
		} else {
			err := tx.Model(&tokenRow{}).
				Where("one_time_code = ?", code.String()).
				Update("ttl_count", tok.TTLCount-1).Error
			if err != nil {
				return fmt.Errorf("store: use token: decrement: %w", err)
			}
		}

		result = &tok
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
