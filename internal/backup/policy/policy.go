// Package policy holds the persisted backup policy and the pure reminder
// rule that decides when to prompt the user for a new backup.
package policy

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// settingsKey is the key the policy is persisted under in the store's
// settings table.
const settingsKey = "backup_policy"

// BackupPolicy is process-wide backup state: loaded at startup, mutated only
// by a successful backup or an explicit settings change, and persisted
// immediately on mutation.
type BackupPolicy struct {
	// LastBackupAt is the completion time of the last successful backup.
	// Nil means no backup has ever completed. Restores do not touch it.
	LastBackupAt *time.Time `json:"last_backup_at"`

	// ReminderIntervalDays is how often to remind; 0 disables reminders.
	ReminderIntervalDays uint32 `json:"reminder_interval_days"`

	// PasswordProtectionEnabled records the user's default for new backups.
	PasswordProtectionEnabled bool `json:"password_protection_enabled"`
}

// ShouldRemind reports whether the user should be prompted to back up.
// A zero interval disables reminders; a user who has never backed up is
// always reminded.
func ShouldRemind(now time.Time, lastBackupAt *time.Time, intervalDays uint32) bool {
	if intervalDays == 0 {
		return false
	}
	if lastBackupAt == nil {
		return true
	}
	return now.Sub(*lastBackupAt) >= time.Duration(intervalDays)*24*time.Hour
}

// Settings is the persistence collaborator (the store's settings table).
type Settings interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Load reads the policy from settings. A policy that was never saved comes
// back zero-valued (reminders disabled, no last backup).
func Load(ctx context.Context, s Settings) (BackupPolicy, error) {
	var p BackupPolicy
	raw, err := s.Get(ctx, settingsKey)
	if err != nil {
		return p, fmt.Errorf("failed to load backup policy: %w", err)
	}
	if raw == nil {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("failed to decode backup policy: %w", err)
	}
	return p, nil
}

// Save persists the policy.
func Save(ctx context.Context, s Settings, p BackupPolicy) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode backup policy: %w", err)
	}
	if err := s.Set(ctx, settingsKey, raw); err != nil {
		return fmt.Errorf("failed to save backup policy: %w", err)
	}
	return nil
}
