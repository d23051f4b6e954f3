package database

import (
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/config"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/chat"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/doctor"
	mr "github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/medical_record"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/medicine"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/schedule"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.New(postgres.Config{DSN: cfg.DSN()}), nil
	case config.DriverMySQL:
		return mysql.New(mysql.Config{DSN: cfg.DSN()}), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func Connect(cfg config.DatabaseConfig, log *zap.Logger, collector *metrics.Collector) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	gormCfg := &gorm.Config{
		Logger:         NewGormLogger(log, cfg.SlowQueryThreshold),
		PrepareStmt:    true,
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}

	db, err := gorm.Open(d, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if collector != nil {
		if err := RegisterMetrics(db, collector); err != nil {
			return nil, fmt.Errorf("registering query metrics: %w", err)
		}
	}

	return db, nil
}

// Models lists every table owned by the service, in migration order.
func Models() []any {
	return []any{
		&domain.User{},
		&domain.AuditLog{},
		&doctor.Doctor{},
		&doctor.AppointmentLink{},
		&schedule.Slot{},
		&appointment.Appointment{},
		&medicine.Medicine{},
		&mr.MedicalRecord{},
		&chat.Channel{},
	}
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations", zap.String("dialect", db.Dialector.Name()))
	start := time.Now()

	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}

	if err := createIndexes(db, log); err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}

	log.Info("migrations completed", zap.Duration("duration", time.Since(start)))
	return nil
}

// createIndexes adds what AutoMigrate cannot express. Partial indexes are a
// postgres feature; other dialects rely on the application checks alone.
func createIndexes(db *gorm.DB, log *zap.Logger) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}

	indexes := []struct {
		name  string
		query string
	}{
		{
			// At most one live strict booking per slot key.
			name:  "uq_appointments_active_slot",
			query: `CREATE UNIQUE INDEX IF NOT EXISTS uq_appointments_active_slot ON appointments (doctor_id, date, shift, start_time, end_time) WHERE status <> 'cancelled' AND creation_mode = 'strict'`,
		},
		{
			name:  "idx_schedule_slots_free",
			query: `CREATE INDEX IF NOT EXISTS idx_schedule_slots_free ON schedule_slots (doctor_id, date) WHERE is_available`,
		},
		{
			name:  "ck_medicines_stock_non_negative",
			query: `DO $$ BEGIN ALTER TABLE medicines ADD CONSTRAINT ck_medicines_stock_non_negative CHECK (stock >= 0); EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
		},
	}

	for _, idx := range indexes {
		if err := db.Exec(idx.query).Error; err != nil {
			return fmt.Errorf("%s: %w", idx.name, err)
		}
		log.Debug("index ensured", zap.String("name", idx.name))
	}

	return nil
}
