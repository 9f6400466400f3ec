package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bthaas/intelifit/internal/db"
)

type BackupInfo struct {
	Path      string
	Checksum  string
	CreatedAt time.Time
	SizeBytes int64
}

// Backup writes a consistent snapshot of the open database to outPath with a
// .sha256 sidecar next to it. outPath must not exist yet.
func (s *Store) Backup(ctx context.Context, outPath string) (BackupInfo, error) {
	sqldb, err := s.conn()
	if err != nil {
		return BackupInfo{}, err
	}
	if strings.TrimSpace(outPath) == "" {
		return BackupInfo{}, fmt.Errorf("backup output path is required")
	}
	if _, err := os.Stat(outPath); err == nil {
		return BackupInfo{}, fmt.Errorf("backup %s already exists", outPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return BackupInfo{}, fmt.Errorf("create backup directory: %w", err)
	}
	if _, err := sqldb.ExecContext(ctx, `VACUUM INTO ?`, outPath); err != nil {
		return BackupInfo{}, fmt.Errorf("snapshot database: %w", err)
	}
	sum, err := fileSHA256(outPath)
	if err != nil {
		return BackupInfo{}, err
	}
	if err := os.WriteFile(outPath+".sha256", []byte(sum+"\n"), 0o644); err != nil {
		return BackupInfo{}, fmt.Errorf("write checksum file: %w", err)
	}
	info, err := readBackupInfo(outPath)
	if err != nil {
		return BackupInfo{}, err
	}
	s.log.Debug("backup created", zap.String("path", outPath), zap.Int64("bytes", info.SizeBytes))
	return info, nil
}

// readBackupInfo stats a snapshot and picks up its sidecar checksum, if any.
func readBackupInfo(path string) (BackupInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("stat backup: %w", err)
	}
	info := BackupInfo{Path: path, CreatedAt: st.ModTime(), SizeBytes: st.Size()}
	if b, err := os.ReadFile(path + ".sha256"); err == nil {
		info.Checksum = strings.TrimSpace(string(b))
	}
	return info, nil
}

// RestoreBackup copies backupPath over dbPath. The checksum sidecar is
// verified when present and the file must carry the intelifit schema. The
// database at dbPath must not be open.
func RestoreBackup(backupPath, dbPath string, force bool) error {
	if strings.TrimSpace(backupPath) == "" || strings.TrimSpace(dbPath) == "" {
		return fmt.Errorf("backup path and db path are required")
	}
	if !force {
		if _, err := os.Stat(dbPath); err == nil {
			return fmt.Errorf("target db already exists; use --force to overwrite")
		}
	}
	info, err := readBackupInfo(backupPath)
	if err != nil {
		return err
	}
	if info.Checksum != "" {
		actual, err := fileSHA256(backupPath)
		if err != nil {
			return err
		}
		if info.Checksum != actual {
			return fmt.Errorf("backup checksum mismatch for %s", backupPath)
		}
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}
	tmp := dbPath + ".restoring"
	if err := copyFile(backupPath, tmp); err != nil {
		return err
	}
	if err := checkSchema(tmp); err != nil {
		removeDBFiles(tmp)
		return err
	}
	removeDBFiles(dbPath)
	if err := os.Rename(tmp, dbPath); err != nil {
		return fmt.Errorf("move restored db into place: %w", err)
	}
	return nil
}

func checkSchema(path string) error {
	sqldb, err := db.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = sqldb.Close()
		_ = os.Remove(path + "-wal")
		_ = os.Remove(path + "-shm")
	}()
	var version int
	if err := sqldb.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version); err != nil {
		return fmt.Errorf("backup is not an intelifit database: %w", err)
	}
	if version > db.LatestVersion() {
		return fmt.Errorf("backup schema v%d is newer than this build (v%d)", version, db.LatestVersion())
	}
	return nil
}

// removeDBFiles drops a database file with its WAL side files so a stale
// log is never replayed onto a different database.
func removeDBFiles(path string) {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		_ = os.Remove(p)
	}
}

// ListBackups returns the .db files in dir, newest first. A missing dir has
// no backups.
func ListBackups(dir string) ([]BackupInfo, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.db"))
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	out := make([]BackupInfo, 0, len(paths))
	for _, p := range paths {
		info, err := readBackupInfo(p)
		if err != nil || info.SizeBytes == 0 {
			continue
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// copyFile writes src to dst and syncs it before returning.
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", dst, cerr)
		}
	}()
	if _, err = io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Sync()
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("checksum %s: %w", path, err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("checksum %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
