package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anoixa/dicom-portal/database"
	"github.com/anoixa/dicom-portal/database/models"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// migrateCmd 数据库迁移命令
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration tools",
	Long:  `Copy accounts and studies from one database to another (e.g., SQLite to PostgreSQL).`,
}

// migrateRunCmd 执行迁移命令
var migrateRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run database migration",
	Long: `Run database migration from source to target database.

Examples:
  # Migrate from SQLite to PostgreSQL
  dicom-portal migrate run --from-sqlite ./data/portal.db --to-postgres "host=localhost user=postgres password=secret dbname=dicom_portal port=5432"

  # Replace rows that already exist in the target
  dicom-portal migrate run --from-sqlite ./data/portal.db --to-postgres "..." --on-conflict=overwrite`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := migrateOptions{}
		opts.fromType, _ = cmd.Flags().GetString("from-type")
		opts.toType, _ = cmd.Flags().GetString("to-type")
		opts.fromDSN, _ = cmd.Flags().GetString("from-dsn")
		opts.toDSN, _ = cmd.Flags().GetString("to-dsn")
		opts.batchSize, _ = cmd.Flags().GetInt("batch-size")
		opts.onConflict, _ = cmd.Flags().GetString("on-conflict")

		if fromSQLite, _ := cmd.Flags().GetString("from-sqlite"); fromSQLite != "" {
			opts.fromType, opts.fromDSN = "sqlite", fromSQLite
		}
		if toPostgres, _ := cmd.Flags().GetString("to-postgres"); toPostgres != "" {
			opts.toType, opts.toDSN = "postgres", toPostgres
		}
		if err := opts.validate(); err != nil {
			return err
		}

		source, err := openDatabase(opts.fromType, opts.fromDSN)
		if err != nil {
			return fmt.Errorf("failed to connect to source database: %w", err)
		}
		defer database.Close(source)

		target, err := openDatabase(opts.toType, opts.toDSN)
		if err != nil {
			return fmt.Errorf("failed to connect to target database: %w", err)
		}
		defer database.Close(target)

		log.Info().
			Str("from", opts.fromType).
			Str("to", opts.toType).
			Str("source", maskDSN(opts.fromDSN)).
			Str("target", maskDSN(opts.toDSN)).
			Str("on_conflict", opts.onConflict).
			Msg("starting migration")

		stats, err := runMigration(cmd.Context(), source, target, opts)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "migrated %d users and %d studies (%d skipped, %d overwritten)\n",
			stats.users, stats.studies, stats.skipped, stats.overwritten)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateRunCmd)

	migrateRunCmd.Flags().String("from-type", "", "Source database type (sqlite, postgres)")
	migrateRunCmd.Flags().String("to-type", "", "Target database type (sqlite, postgres)")
	migrateRunCmd.Flags().String("from-dsn", "", "Source database DSN/connection string")
	migrateRunCmd.Flags().String("to-dsn", "", "Target database DSN/connection string")
	migrateRunCmd.Flags().String("from-sqlite", "", "Source SQLite file path (shortcut)")
	migrateRunCmd.Flags().String("to-postgres", "", "Target PostgreSQL connection string (shortcut)")
	migrateRunCmd.Flags().Int("batch-size", 100, "Batch size for data migration")
	migrateRunCmd.Flags().String("on-conflict", "skip", "Conflict resolution strategy: skip (default), overwrite, error")
}

type migrateOptions struct {
	fromType, toType string
	fromDSN, toDSN   string
	batchSize        int
	onConflict       string
}

func (o *migrateOptions) validate() error {
	switch o.onConflict {
	case "skip", "overwrite", "error":
	default:
		return fmt.Errorf("invalid on-conflict strategy: %s (must be skip, overwrite, or error)", o.onConflict)
	}
	if o.fromType == "" || o.toType == "" {
		return errors.New("both --from-type and --to-type are required")
	}
	if o.fromDSN == "" || o.toDSN == "" {
		return errors.New("both --from-dsn and --to-dsn (or shortcuts) are required")
	}
	if o.fromType == o.toType && o.fromDSN == o.toDSN {
		return errors.New("source and target databases are the same")
	}
	if o.batchSize <= 0 {
		o.batchSize = 100
	}
	return nil
}

// migrateStats 迁移统计
type migrateStats struct {
	users       int
	studies     int
	skipped     int
	overwritten int
}

// runMigration 先迁用户再迁检查，保证外键可用
func runMigration(ctx context.Context, source, target *gorm.DB, opts migrateOptions) (*migrateStats, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := database.AutoMigrate(target); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	stats := &migrateStats{}

	users, err := copyTable(ctx, source, target, opts, stats, func(u *models.User) string { return u.ID })
	if err != nil {
		return stats, fmt.Errorf("users migration failed: %w", err)
	}
	stats.users = users

	studies, err := copyTable(ctx, source, target, opts, stats, func(st *models.Study) string { return st.ID })
	if err != nil {
		return stats, fmt.Errorf("studies migration failed: %w", err)
	}
	stats.studies = studies

	log.Info().
		Int("users", stats.users).
		Int("studies", stats.studies).
		Int("skipped", stats.skipped).
		Int("overwritten", stats.overwritten).
		Msg("migration completed")
	return stats, nil
}

// copyTable 按主键分批复制，已存在的行按策略跳过、覆盖或报错
func copyTable[T any](ctx context.Context, source, target *gorm.DB, opts migrateOptions, stats *migrateStats, idOf func(*T) string) (int, error) {
	copied := 0
	offset := 0
	for {
		var rows []T
		if err := source.WithContext(ctx).Order("id").Limit(opts.batchSize).Offset(offset).Find(&rows).Error; err != nil {
			return copied, err
		}
		if len(rows) == 0 {
			return copied, nil
		}

		for i := range rows {
			row := &rows[i]
			id := idOf(row)

			var count int64
			if err := target.WithContext(ctx).Model(new(T)).Where("id = ?", id).Count(&count).Error; err != nil {
				return copied, err
			}

			tx := target.WithContext(ctx).Omit(clause.Associations)
			switch {
			case count == 0:
				if err := tx.Create(row).Error; err != nil {
					return copied, fmt.Errorf("failed to copy %s: %w", id, err)
				}
				copied++
			case opts.onConflict == "overwrite":
				if err := tx.Save(row).Error; err != nil {
					return copied, fmt.Errorf("failed to overwrite %s: %w", id, err)
				}
				copied++
				stats.overwritten++
			case opts.onConflict == "error":
				return copied, fmt.Errorf("record already exists: %s", id)
			default:
				stats.skipped++
			}
		}
		offset += len(rows)
	}
}

// openDatabase 打开数据库连接
func openDatabase(dbType, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch dbType {
	case "sqlite", "sqlite3":
		dialector = sqlite.Open(dsn)
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// maskDSN 隐藏连接串中的密码
func maskDSN(dsn string) string {
	fields := strings.Fields(dsn)
	for i, field := range fields {
		if strings.HasPrefix(field, "password=") {
			fields[i] = "password=****"
		}
	}
	if len(fields) > 0 {
		return strings.Join(fields, " ")
	}
	return dsn
}
