// Package backup runs scheduled pg_dump snapshots of the database. Each run
// writes three gzipped files: schema, data, and post-data (triggers,
// constraints).
package backup

import (
	"compress/gzip"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/chronograph-app/chronograph/internal/config"
	"github.com/robfig/cron/v3"
)

type Runner struct {
	cfg  *config.Config
	cron *cron.Cron
}

func NewRunner(cfg *config.Config) *Runner {
	return &Runner{cfg: cfg, cron: cron.New()}
}

// Start registers the backup job and starts the cron loop. Disabled backups
// make Start a no-op so main can call it unconditionally.
func (r *Runner) Start() error {
	if !r.cfg.BackupEnabled {
		return nil
	}

	if _, err := r.cron.AddFunc(r.cfg.BackupSchedule, func() {
		if err := r.Run(); err != nil {
			log.Printf("Backup run failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid backup schedule %q: %w", r.cfg.BackupSchedule, err)
	}

	r.cron.Start()
	log.Printf("Backup scheduler started (schedule %q, dir %s)", r.cfg.BackupSchedule, r.cfg.BackupDir)
	return nil
}

func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

// Run performs one full backup immediately.
func (r *Runner) Run() error {
	if err := os.MkdirAll(r.cfg.BackupDir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	now := time.Now().UnixMilli()
	sections := []struct {
		name string
		flag string
	}{
		{"schema", "--schema-only"},
		{"data", "--data-only"},
		{"triggers", "--section=post-data"},
	}

	for _, section := range sections {
		filename := fmt.Sprintf("%s_backup_%d.sql.gz", section.name, now)
		if err := r.dump(section.flag, filepath.Join(r.cfg.BackupDir, filename)); err != nil {
			return fmt.Errorf("%s backup: %w", section.name, err)
		}
	}

	return nil
}

func (r *Runner) dump(flag, path string) error {
	cmd := exec.Command("pg_dump",
		"-U", r.cfg.DBUser,
		"-h", r.cfg.DBHost,
		"-p", fmt.Sprintf("%d", r.cfg.DBPort),
		"-d", r.cfg.DBName,
		flag,
	)
	cmd.Env = append(os.Environ(), "PGPASSWORD="+r.cfg.DBPassword)

	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return fmt.Errorf("pg_dump: %w: %s", err, exitErr.Stderr)
		}
		return fmt.Errorf("pg_dump: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	gz := gzip.NewWriter(file)
	if _, err := gz.Write(output); err != nil {
		gz.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}

	log.Printf("Backup saved: %s", path)
	return nil
}
