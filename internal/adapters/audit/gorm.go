package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sqliteDriver "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/talentops/recruiter-agent/internal/domain"
)

// GormLog stores audit entries in a relational table. sqlite covers local
// development; postgres covers shared deployments.
type GormLog struct {
	db *gorm.DB
}

type entryRow struct {
	ID        uint   `gorm:"primaryKey"`
	SessionID string `gorm:"index"`
	CallID    string
	Function  string `gorm:"index"`
	Arguments string
	Result    string
	Failed    bool
	CreatedAt time.Time
}

func (entryRow) TableName() string { return "audit_entries" }

func NewGormLog(driver, dsn string) (*GormLog, error) {
	gormDB, err := openGorm(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open audit store: %w", err)
	}
	log := &GormLog{db: gormDB}
	if err := log.db.AutoMigrate(&entryRow{}); err != nil {
		return nil, fmt.Errorf("migrate audit store: %w", err)
	}
	return log, nil
}

var _ domain.AuditLog = (*GormLog)(nil)

func (l *GormLog) Record(ctx context.Context, entry domain.AuditEntry) error {
	args, err := json.Marshal(entry.Arguments)
	if err != nil {
		args = []byte("{}")
	}
	row := entryRow{
		SessionID: string(entry.SessionID),
		CallID:    entry.CallID,
		Function:  entry.Function,
		Arguments: string(args),
		Result:    entry.Result,
		Failed:    entry.Failed,
		CreatedAt: entry.CreatedAt,
	}
	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

// BySession returns the recorded entries for one session in insertion
// order.
func (l *GormLog) BySession(ctx context.Context, id domain.SessionID) ([]domain.AuditEntry, error) {
	var rows []entryRow
	err := l.db.WithContext(ctx).
		Where("session_id = ?", string(id)).
		Order("id asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	entries := make([]domain.AuditEntry, 0, len(rows))
	for _, row := range rows {
		args := map[string]any{}
		_ = json.Unmarshal([]byte(row.Arguments), &args)
		entries = append(entries, domain.AuditEntry{
			SessionID: domain.SessionID(row.SessionID),
			CallID:    row.CallID,
			Function:  row.Function,
			Arguments: args,
			Result:    row.Result,
			Failed:    row.Failed,
			CreatedAt: row.CreatedAt,
		})
	}
	return entries, nil
}

func openGorm(driver, dsn string) (*gorm.DB, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	if driver == "" {
		driver = "sqlite"
	}
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		if driver != "sqlite" {
			return nil, fmt.Errorf("dsn is required for driver %q", driver)
		}
		dsn = "audit.db"
	}

	switch driver {
	case "sqlite":
		return gorm.Open(sqliteDriver.Open(dsn), &gorm.Config{})
	case "postgres":
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}
