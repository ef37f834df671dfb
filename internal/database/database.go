package database

import (
	"fmt"
	"strings"

	"github.com/Kawdoor/aizer/internal/config"
	"github.com/Kawdoor/aizer/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func Connect(cfg config.DBConfig) (*gorm.DB, error) {
	switch cfg.Driver {
	case DriverSQLite:
		return OpenSQLite(cfg.Path)
	case DriverPostgres, "":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// OpenSQLite opens an embedded database with foreign keys enforced. An empty
// path or ":memory:" yields a private in-memory database on a single connection.
func OpenSQLite(path string) (*gorm.DB, error) {
	memory := path == "" || path == ":memory:"
	if memory {
		path = ":memory:"
	}
	dsn := path
	if !strings.Contains(dsn, "_pragma=foreign_keys") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=foreign_keys(1)"
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if memory {
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	}
}

// Migrate creates the schema, including the single-parent and
// single-placement CHECK constraints declared on the models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Group{},
		&models.GroupMembership{},
		&models.Space{},
		&models.Inventory{},
		&models.Item{},
		&models.AuditLog{},
		&models.AuditExportCursor{},
	)
}
