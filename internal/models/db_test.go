package models

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenDialectorCreatesSQLiteDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "db")
	if _, err := OpenDialector("sqlite", filepath.Join(dir, "ayokah.db")+"?_pragma=busy_timeout(5000)"); err != nil {
		t.Fatalf("open dialector failed: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("sqlite dir should be created, err=%v", err)
	}
	if _, err := OpenDialector("mysql", "x"); err == nil {
		t.Fatalf("unsupported driver should fail")
	}
}

func TestInitDBMigratesInMemory(t *testing.T) {
	if err := InitDB(DBOptions{Driver: "sqlite", DSN: "file:init_db_test?mode=memory&cache=shared", MaxIdleConns: 1}); err != nil {
		t.Fatalf("init db failed: %v", err)
	}
	if err := AutoMigrate(); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	if !DB.Migrator().HasTable(&CheckoutRecord{}) {
		t.Fatalf("checkout record table missing")
	}
}
