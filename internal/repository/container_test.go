package repository

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/config"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/pkg/database"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// The SQL tests share one postgres container, started on first use and
// removed by TestMain.
var (
	pgOnce    sync.Once
	pgDB      *gorm.DB
	pgErr     error
	pgCleanup = func() {}
)

func TestMain(m *testing.M) {
	code := m.Run()
	pgCleanup()
	os.Exit(code)
}

// postgresDB returns a migrated database, skipping the test when docker is
// not available.
func postgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not available")
	}

	pgOnce.Do(func() { pgDB, pgErr = startPostgres() })
	if pgErr != nil {
		t.Fatalf("starting postgres: %v", pgErr)
	}
	return pgDB
}

func startPostgres() (*gorm.DB, error) {
	port, err := freePort()
	if err != nil {
		return nil, fmt.Errorf("finding free port: %w", err)
	}

	name := fmt.Sprintf("clinicbook-repo-test-%d", port)
	_ = exec.Command("docker", "rm", "-f", name).Run()

	out, err := exec.Command("docker", "run",
		"--name", name,
		"-d",
		"-p", fmt.Sprintf("%d:5432", port),
		"-e", "POSTGRES_USER=clinicbook",
		"-e", "POSTGRES_PASSWORD=clinicbook",
		"-e", "POSTGRES_DB=clinicbook_test",
		"postgres:16-alpine",
	).CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("docker run: %w\noutput: %s", err, out)
	}
	containerID := strings.TrimSpace(string(out))
	pgCleanup = func() { _ = exec.Command("docker", "rm", "-f", containerID).Run() }

	cfg := config.DatabaseConfig{
		Driver:          config.DriverPostgres,
		Host:            "localhost",
		Port:            port,
		Name:            "clinicbook_test",
		User:            "clinicbook",
		Password:        "clinicbook",
		SSLMode:         "disable",
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Minute,
		ConnMaxIdleTime: time.Minute,
	}

	db, err := waitForPostgres(cfg, 30*time.Second)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db, zap.NewNop()); err != nil {
		return nil, err
	}
	return db, nil
}

func waitForPostgres(cfg config.DatabaseConfig, timeout time.Duration) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := database.Connect(cfg, zap.NewNop(), nil)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("postgres not ready after %s: %w", timeout, err)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
