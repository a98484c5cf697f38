package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aristath/roadscan/internal/database"
	"github.com/aristath/roadscan/internal/events"
	"github.com/rs/zerolog"
)

const (
	// BackupPrefix starts every archive key in the bucket
	BackupPrefix = "roadscan-backup-"
	// BackupSuffix ends every archive key in the bucket
	BackupSuffix = ".tar.gz"

	backupTimeLayout = "2006-01-02-150405"
	metadataFilename = "backup-metadata.json"
	minBackupsToKeep = 3
	metadataVersion  = "1.0.0"
	stagingDirName   = "r2-staging"
)

// R2BackupService snapshots the results database and ships it to R2
type R2BackupService struct {
	store   ObjectStore
	db      *database.DB
	dataDir string
	events  *events.Manager
	now     func() time.Time
	log     zerolog.Logger
}

// BackupMetadata is written next to the snapshot inside every archive
type BackupMetadata struct {
	Timestamp   time.Time `json:"timestamp"`
	Version     string    `json:"version"`
	Database    string    `json:"database"`
	Filename    string    `json:"filename"`
	SizeBytes   int64     `json:"size_bytes"`
	Checksum    string    `json:"checksum"`
	RecordCount int       `json:"record_count"`
}

// BackupInfo represents information about a backup stored in R2
type BackupInfo struct {
	Filename  string    `json:"filename"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
	AgeHours  int64     `json:"age_hours"`
}

// NewR2BackupService creates a new R2 backup service. eventsManager may be nil.
func NewR2BackupService(
	store ObjectStore,
	db *database.DB,
	dataDir string,
	eventsManager *events.Manager,
	log zerolog.Logger,
) *R2BackupService {
	return &R2BackupService{
		store:   store,
		db:      db,
		dataDir: dataDir,
		events:  eventsManager,
		now:     time.Now,
		log:     log.With().Str("service", "r2_backup").Logger(),
	}
}

// CreateAndUploadBackup snapshots the database, archives it and uploads the archive.
// A failure is also published as an error event.
func (s *R2BackupService) CreateAndUploadBackup(ctx context.Context) (*BackupInfo, error) {
	info, err := s.createAndUpload(ctx)
	if err != nil && s.events != nil {
		s.events.EmitError("reliability", err, map[string]interface{}{
			"operation": "r2_backup",
			"data_dir":  s.dataDir,
		})
	}
	return info, err
}

func (s *R2BackupService) createAndUpload(ctx context.Context) (*BackupInfo, error) {
	s.log.Info().Msg("Starting R2 backup")
	startTime := time.Now()

	stagingDir := filepath.Join(s.dataDir, stagingDirName)
	if err := os.RemoveAll(stagingDir); err != nil {
		return nil, fmt.Errorf("failed to clear staging directory: %w", err)
	}
	if err := os.MkdirAll(stagingDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	stamp := s.now().UTC()
	archiveName := BackupPrefix + stamp.Format(backupTimeLayout) + BackupSuffix
	archivePath := filepath.Join(stagingDir, archiveName)

	if err := s.buildArchive(ctx, stagingDir, archivePath, stamp); err != nil {
		return nil, err
	}

	archiveInfo, err := os.Stat(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat archive: %w", err)
	}

	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer archiveFile.Close()

	if err := s.store.Upload(ctx, archiveName, archiveFile, archiveInfo.Size()); err != nil {
		return nil, fmt.Errorf("failed to upload to r2: %w", err)
	}

	s.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Str("archive", archiveName).
		Int64("size_bytes", archiveInfo.Size()).
		Msg("R2 backup completed successfully")

	if s.events != nil {
		s.events.Emit("reliability", &events.BackupCompletedData{
			Key:       archiveName,
			SizeBytes: archiveInfo.Size(),
		})
	}

	return &BackupInfo{
		Filename:  archiveName,
		Timestamp: stamp,
		SizeBytes: archiveInfo.Size(),
	}, nil
}

// buildArchive writes the snapshot and its metadata into archivePath
func (s *R2BackupService) buildArchive(ctx context.Context, stagingDir, archivePath string, stamp time.Time) error {
	snapshotName := s.db.Name() + ".db"
	snapshotPath := filepath.Join(stagingDir, snapshotName)

	s.log.Debug().Str("database", s.db.Name()).Msg("Snapshotting database")
	if err := s.db.Snapshot(ctx, snapshotPath); err != nil {
		return fmt.Errorf("failed to snapshot %s: %w", s.db.Name(), err)
	}

	info, err := os.Stat(snapshotPath)
	if err != nil {
		return fmt.Errorf("failed to stat snapshot: %w", err)
	}
	checksum, err := calculateChecksum(snapshotPath)
	if err != nil {
		return fmt.Errorf("failed to checksum snapshot: %w", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM logs").Scan(&count); err != nil {
		return fmt.Errorf("failed to count records: %w", err)
	}

	metadata := BackupMetadata{
		Timestamp:   stamp,
		Version:     metadataVersion,
		Database:    s.db.Name(),
		Filename:    snapshotName,
		SizeBytes:   info.Size(),
		Checksum:    checksum,
		RecordCount: count,
	}
	metadataPath := filepath.Join(stagingDir, metadataFilename)
	if err := writeMetadata(metadataPath, metadata); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	if err := createArchive(archivePath, stagingDir, []string{snapshotName, metadataFilename}); err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	return nil
}

// ListBackups lists all backups stored in R2, newest first
func (s *R2BackupService) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	objects, err := s.store.List(ctx, BackupPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list r2 backups: %w", err)
	}

	backups := make([]BackupInfo, 0, len(objects))
	now := s.now()

	for _, obj := range objects {
		if obj.Key == nil {
			continue
		}

		filename := *obj.Key
		timestamp, ok := parseBackupKey(filename)
		if !ok {
			s.log.Warn().Str("filename", filename).Msg("Skipping object with unexpected name")
			continue
		}

		var sizeBytes int64
		if obj.Size != nil {
			sizeBytes = *obj.Size
		}

		backups = append(backups, BackupInfo{
			Filename:  filename,
			Timestamp: timestamp,
			SizeBytes: sizeBytes,
			AgeHours:  int64(now.Sub(timestamp).Hours()),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})

	return backups, nil
}

// RotateOldBackups deletes backups older than retentionDays.
// The newest three are always kept; retentionDays <= 0 keeps everything.
func (s *R2BackupService) RotateOldBackups(ctx context.Context, retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	backups, err := s.ListBackups(ctx)
	if err != nil {
		return 0, err
	}
	if len(backups) <= minBackupsToKeep {
		return 0, nil
	}

	cutoff := s.now().AddDate(0, 0, -retentionDays)
	deleted := 0
	for _, backup := range backups[minBackupsToKeep:] {
		if !backup.Timestamp.Before(cutoff) {
			continue
		}
		if err := s.store.Delete(ctx, backup.Filename); err != nil {
			s.log.Error().Err(err).Str("filename", backup.Filename).Msg("Failed to delete old backup")
			continue
		}
		deleted++
	}

	s.log.Info().
		Int("deleted", deleted).
		Int("remaining", len(backups)-deleted).
		Msg("R2 backup rotation completed")

	return deleted, nil
}

// parseBackupKey extracts the timestamp from roadscan-backup-2026-01-08-143022.tar.gz
func parseBackupKey(key string) (time.Time, bool) {
	if !strings.HasPrefix(key, BackupPrefix) || !strings.HasSuffix(key, BackupSuffix) {
		return time.Time{}, false
	}
	raw := strings.TrimSuffix(strings.TrimPrefix(key, BackupPrefix), BackupSuffix)
	ts, err := time.Parse(backupTimeLayout, raw)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func calculateChecksum(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}

func writeMetadata(path string, metadata BackupMetadata) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(metadata)
}

// createArchive writes the named files from sourceDir into a tar.gz at archivePath
func createArchive(archivePath, sourceDir string, names []string) (err error) {
	archiveFile, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer func() {
		if cerr := archiveFile.Close(); err == nil {
			err = cerr
		}
	}()

	gzipWriter := gzip.NewWriter(archiveFile)
	tarWriter := tar.NewWriter(gzipWriter)

	for _, name := range names {
		if err := addFileToArchive(tarWriter, filepath.Join(sourceDir, name), name); err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", name, err)
		}
	}

	if err := tarWriter.Close(); err != nil {
		return err
	}
	return gzipWriter.Close()
}

func addFileToArchive(tarWriter *tar.Writer, filePath, nameInArchive string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header := &tar.Header{
		Name:    nameInArchive,
		Size:    info.Size(),
		Mode:    int64(info.Mode()),
		ModTime: info.ModTime(),
	}
	if err := tarWriter.WriteHeader(header); err != nil {
		return err
	}

	_, err = io.Copy(tarWriter, file)
	return err
}
