package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var backupRetentionDays int

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Upload a snapshot of the results database to R2",
	RunE:  runBackup,
}

func init() {
	backupCmd.Flags().IntVar(&backupRetentionDays, "rotate", -1, "also delete archives older than N days (-1 uses BACKUP_RETENTION_DAYS, 0 keeps all)")
	rootCmd.AddCommand(backupCmd)
}

func runBackup(cmd *cobra.Command, args []string) error {
	if !current.cfg.Backup.Enabled() {
		return fmt.Errorf("R2 backup is not configured (set R2_BUCKET, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY and R2_ACCOUNT_ID or R2_ENDPOINT)")
	}

	container, err := current.wire()
	if err != nil {
		return err
	}
	defer container.Close(context.Background())

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Minute)
	defer cancel()

	info, err := container.Backup.CreateAndUploadBackup(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s (%d bytes)\n", info.Filename, info.SizeBytes)

	retention := backupRetentionDays
	if retention < 0 {
		retention = current.cfg.Backup.RetentionDays
	}
	deleted, err := container.Backup.RotateOldBackups(ctx, retention)
	if err != nil {
		return fmt.Errorf("backup uploaded but rotation failed: %w", err)
	}
	if deleted > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Rotated out %d old archive(s)\n", deleted)
	}
	return nil
}
