package database

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Client 封裝 GORM DB 實例
type Client struct {
	db     *gorm.DB
	driver string
}

// NewClient 建立並回傳一個新的資料庫客戶端實例 (GORM)
//
// 參數:
//
//	cfg: Config - 資料庫連線配置，零值由 WithDefaults 補上
//	log: zerolog.Logger - 用於記錄連線重試
//
// 回傳值:
//
//	*Client: 封裝後的資料庫客戶端
//	error: 若所有連線嘗試都失敗則回傳錯誤
func NewClient(cfg Config, log zerolog.Logger) (*Client, error) {
	cfg = cfg.WithDefaults()
	dsn, err := cfg.BuildDSN()
	if err != nil {
		return nil, err
	}

	gormConfig := &gorm.Config{
		// 預設跳過事務模式，顯著提升寫入效能 (除非業務邏輯明確需要 Transaction)
		SkipDefaultTransaction: true,
		Logger:                 newLogger(cfg.LogLevel),
	}

	var db *gorm.DB

	// Retry mechanism for database connection
	for i := 0; i < cfg.MaxRetries; i++ {
		db, err = gorm.Open(dialector(cfg.Driver, dsn), gormConfig)
		if err == nil {
			// Try pinging to ensure connection is actually alive
			rawDB, dbErr := db.DB()
			if dbErr == nil {
				if err = rawDB.Ping(); err == nil {
					break
				}
			} else {
				err = dbErr
			}
		}

		if i < cfg.MaxRetries-1 {
			log.Warn().Err(err).
				Str("driver", cfg.Driver).
				Int("attempt", i+1).
				Int("max_attempts", cfg.MaxRetries).
				Dur("retry_in", cfg.RetryInterval).
				Msg("failed to connect to database, retrying")
			time.Sleep(cfg.RetryInterval)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s after %d attempts: %w", cfg.Driver, cfg.MaxRetries, err)
	}

	// 取得底層 sql.DB 物件以設定連線池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.db: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		// SQLite 沒有 row lock，以單一連線序列化所有寫入
		// 同時讓 in-memory 資料庫在連線池存活期間不被釋放
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		if cfg.isMemory(dsn) {
			sqlDB.SetConnMaxLifetime(0)
		} else {
			sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		}
	} else {
		// 設定連線池參數，防止資料庫連線耗盡
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return &Client{db: db, driver: cfg.Driver}, nil
}

// DB 回傳底層的 *gorm.DB 實例，供 store adapter 使用
func (c *Client) DB() *gorm.DB {
	return c.db
}

// Driver 回傳設定的資料庫驅動名稱
func (c *Client) Driver() string {
	return c.driver
}

// Ping 檢查資料庫是否仍可回應
func (c *Client) Ping() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close 關閉資料庫連線
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// dialector 依驅動名稱選擇 GORM Dialector，未知名稱一律視為 sqlite
func dialector(driver, dsn string) gorm.Dialector {
	switch driver {
	case DriverMySQL:
		return mysql.Open(dsn)
	case DriverPostgres:
		return postgres.Open(dsn)
	default:
		return sqlite.Open(dsn)
	}
}

// newLogger 根據配置建立 GORM Logger
func newLogger(level string) logger.Interface {
	var logLevel logger.LogLevel
	switch level {
	case "info":
		logLevel = logger.Info
	case "warn":
		logLevel = logger.Warn
	case "error":
		logLevel = logger.Error
	case "silent":
		logLevel = logger.Silent
	default:
		logLevel = logger.Error // 預設只記錄錯誤
	}

	return logger.Default.LogMode(logLevel)
}
