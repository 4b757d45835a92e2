package database

import (
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bookwell/host-qualifier-api/pkg/config"
)

// APIKey represents the api_keys table
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"unique;not null" json:"key"`
	Name       string     `gorm:"not null" json:"name"`
	KeyPreview string     `json:"key_preview"`
	RateLimit  int        `gorm:"default:10000" json:"rate_limit"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used"`
}

// APIUsage represents the api_usage table
type APIUsage struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	KeyID        uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date         string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount int    `gorm:"default:0" json:"request_count"`
	TotalHosts   int    `gorm:"default:0" json:"total_hosts"`
	TotalEvents  int    `gorm:"default:0" json:"total_events"`
}

// MasterUser represents the master_users table
type MasterUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// Booking represents the bookings table. UID is what a reschedule request
// carries back, so the continuity filter can find the prior assignee.
type Booking struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UID       string    `gorm:"unique;not null" json:"uid"`
	EventID   int64     `gorm:"index;not null" json:"event_id"`
	UserID    int64     `gorm:"index;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// LeadEvent represents the lead_events table, one row per lead assigned to a
// host. The fairness filter counts these against the event's lead threshold.
type LeadEvent struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	EventID    int64     `gorm:"index;not null" json:"event_id"`
	UserID     int64     `gorm:"index;not null" json:"user_id"`
	AssignedAt time.Time `gorm:"not null" json:"assigned_at"`
}

// SegmentGroup represents the segment_groups table, one row per group that
// belongs to an event's segment. The segment matcher narrows hosts to these
// groups.
type SegmentGroup struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	EventID int64  `gorm:"index;not null" json:"event_id"`
	GroupID string `gorm:"not null" json:"group_id"`
}

// NewBookingUID mints a fresh booking identifier
func NewBookingUID() string {
	return uuid.NewString()
}

// InitDB initializes the database connection and migrates the schema
func InitDB(cfg *config.Config) *gorm.DB {
	var db *gorm.DB
	var err error

	if cfg.DatabaseURL != "" {
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  cfg.DatabaseURL,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	} else {
		db, err = gorm.Open(sqlite.Open(cfg.DataPath), &gorm.Config{})
	}

	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	// Auto Migration
	db.AutoMigrate(&APIKey{}, &APIUsage{}, &MasterUser{}, &Booking{}, &LeadEvent{}, &SegmentGroup{})

	return db
}
