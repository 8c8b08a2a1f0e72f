package testutil

import (
	"path/filepath"
	"testing"

	"storefront/internal/infra/db"

	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDB はテストごとに空のSQLiteファイルDBを作り、マイグレーションまで済ませる。
// 同時書き込みはimmediateトランザクションで直列化される
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	dsn := "file:" + path + "?_busy_timeout=10000&_txlock=immediate&_foreign_keys=on"

	gdb, err := db.Open(sqlite.Open(dsn), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}
