// Package backup is the backup and restore engine: it snapshots the entire
// entity store into a single portable archive file, optionally encrypted,
// and restores such an archive with all-or-nothing semantics.
package backup

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"billkeeper/internal/backup/archive"
	"billkeeper/internal/backup/cryptox"
	"billkeeper/internal/backup/filestore"
	"billkeeper/internal/backup/policy"
	"billkeeper/internal/backup/snapshot"
	"billkeeper/internal/logging"
	"billkeeper/internal/models"
)

// Phase is a coarse-grained progress step. Phase durations are not
// predictable (key derivation is deliberately slow), so the engine reports
// transitions rather than percentages.
type Phase string

const (
	PhaseReading    Phase = "reading"
	PhaseEncoding   Phase = "encoding"
	PhaseEncrypting Phase = "encrypting"
	PhaseWriting    Phase = "writing"

	PhaseValidating Phase = "validating"
	PhaseDecrypting Phase = "decrypting"
	PhaseStaging    Phase = "staging"
	PhaseCommitting Phase = "committing"
)

// ProgressFunc receives phase transitions. It is called on the operation's
// goroutine and must not block.
type ProgressFunc func(Phase)

// Store is the entity graph collaborator: one consistent read of everything,
// and one atomic replacement of everything. The engine never opens a second
// write path into the live store.
type Store interface {
	ReadAll(ctx context.Context) (*models.Dataset, error)
	ReplaceAll(ctx context.Context, ds *models.Dataset) error
}

// Manager exposes the engine's boundary operations. At most one backup or
// restore runs at a time; a second request is rejected with
// ErrOperationInProgress rather than interleaved.
type Manager struct {
	store      Store
	settings   policy.Settings
	files      *filestore.Manager
	log        logging.Logger
	appVersion string

	onPhase  ProgressFunc
	inFlight atomic.Bool

	// now is a test seam.
	now func() time.Time
}

func NewManager(store Store, settings policy.Settings, files *filestore.Manager, log logging.Logger, appVersion string) *Manager {
	return &Manager{
		store:      store,
		settings:   settings,
		files:      files,
		log:        log,
		appVersion: appVersion,
		now:        time.Now,
	}
}

// SetProgress installs a phase-transition callback. Pass nil to disable.
func (m *Manager) SetProgress(fn ProgressFunc) {
	m.onPhase = fn
}

func (m *Manager) phase(p Phase) {
	if m.onPhase != nil {
		m.onPhase(p)
	}
}

// acquire claims the single operation slot.
func (m *Manager) acquire() error {
	if !m.inFlight.CompareAndSwap(false, true) {
		return ErrOperationInProgress
	}
	return nil
}

func (m *Manager) release() {
	m.inFlight.Store(false)
}

// Export produces one archive file and returns its path. A nil or empty
// password disables encryption. The operation may be cancelled through ctx
// at any point before the final write; a failed or cancelled export never
// leaves a visible file behind. On success the policy's LastBackupAt is
// updated and persisted.
func (m *Manager) Export(ctx context.Context, password []byte) (string, error) {
	if err := m.acquire(); err != nil {
		return "", err
	}
	defer m.release()

	m.phase(PhaseReading)
	snap, err := snapshot.Build(ctx, m.store)
	if err != nil {
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.phase(PhaseEncoding)
	a, err := archive.New(snap, m.now(), m.appVersion)
	if err != nil {
		return "", err
	}

	if len(password) > 0 {
		m.phase(PhaseEncrypting)
		if err := m.seal(a, password); err != nil {
			return "", err
		}
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.phase(PhaseWriting)
	path, err := m.files.Write(a.Marshal(), a.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrIO, err)
	}

	if err := m.markBackupDone(ctx); err != nil {
		// The archive is already safely on disk; a policy write failure
		// must not fail the export.
		m.log.Warn(ctx, "backup succeeded but policy update failed", "error", err)
	}

	m.log.Info(ctx, "backup written",
		"path", path, "records", snap.TotalRecords(), "encrypted", a.Encrypted)
	return path, nil
}

func (m *Manager) seal(a *archive.Archive, password []byte) error {
	salt, err := cryptox.NewSalt()
	if err != nil {
		return err
	}
	nonce, err := cryptox.NewNonce()
	if err != nil {
		return err
	}
	key := cryptox.DeriveKey(password, salt)
	ciphertext, err := cryptox.Encrypt(a.Payload, key, nonce)
	if err != nil {
		return err
	}
	a.Seal(salt, nonce, ciphertext)
	return nil
}

func (m *Manager) markBackupDone(ctx context.Context) error {
	p, err := policy.Load(ctx, m.settings)
	if err != nil {
		return err
	}
	t := m.now().UTC()
	p.LastBackupAt = &t
	return policy.Save(ctx, m.settings, p)
}

// Import restores the archive at path, replacing the entire live data set.
// It is destructive and the caller must have obtained explicit user
// confirmation first.
//
// The protocol is Validate -> Stage -> Commit. Validate and Stage work on
// in-memory copies only, so any failure or cancellation there leaves the
// live store untouched. Commit runs inside a single transaction; if it
// fails the transaction rolls back in full and ErrCommit is returned. Once
// Commit has begun, ctx cancellation is no longer honored: the commit runs
// to completion or rollback.
//
// A successful restore does not update the policy's LastBackupAt.
func (m *Manager) Import(ctx context.Context, path string, password []byte) error {
	if err := m.acquire(); err != nil {
		return err
	}
	defer m.release()

	// Validate.
	m.phase(PhaseValidating)
	snap, err := m.validate(ctx, path, password)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	// Stage: re-check referential integrity on the candidate graph before
	// it is allowed anywhere near the live store.
	m.phase(PhaseStaging)
	if err := snap.CheckIntegrity(); err != nil {
		return err
	}

	// Last cancellation point.
	if err := ctx.Err(); err != nil {
		return err
	}

	// Commit. Detached from ctx: the transaction must finish (or roll
	// back); it cannot be abandoned halfway.
	m.phase(PhaseCommitting)
	if err := m.store.ReplaceAll(context.WithoutCancel(ctx), &snap.Dataset); err != nil {
		return fmt.Errorf("%w: %w", ErrCommit, err)
	}

	m.log.Info(ctx, "restore committed", "path", path, "records", snap.TotalRecords())
	return nil
}

// validate reads, decrypts, and decodes the archive without touching the
// live store.
func (m *Manager) validate(ctx context.Context, path string, password []byte) (*snapshot.Snapshot, error) {
	data, err := m.files.Read(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	a, err := archive.Unmarshal(data)
	if err != nil {
		return nil, err
	}

	payload := a.Payload
	if a.Encrypted {
		if len(password) == 0 {
			return nil, fmt.Errorf("%w: archive is password protected", ErrAuthenticationFailed)
		}
		m.phase(PhaseDecrypting)
		key := cryptox.DeriveKey(password, a.Salt)
		payload, err = cryptox.Decrypt(payload, key, a.Nonce)
		if err != nil {
			return nil, err
		}
	}

	return archive.DecodeSnapshot(payload, a.Checksum)
}

// IsEncrypted reports whether the archive at path is password protected,
// from the header alone, without a password and without reading the payload.
func (m *Manager) IsEncrypted(path string) (bool, error) {
	data, err := m.files.ReadHeader(path)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrIO, err)
	}
	h, err := archive.ReadHeader(data)
	if err != nil {
		return false, err
	}
	return h.Encrypted, nil
}

// Inspect returns the archive header at path: creation time, app version,
// encryption flag. Like IsEncrypted it never needs a password.
func (m *Manager) Inspect(path string) (*archive.Header, error) {
	data, err := m.files.ReadHeader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return archive.ReadHeader(data)
}

// List returns all backup files, most recent first.
func (m *Manager) List() ([]string, error) {
	paths, err := m.files.List()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return paths, nil
}

// Delete removes one backup file; a missing file is not an error.
func (m *Manager) Delete(path string) error {
	if err := m.files.Delete(path); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

// Policy returns the current backup policy.
func (m *Manager) Policy(ctx context.Context) (policy.BackupPolicy, error) {
	return policy.Load(ctx, m.settings)
}

// SetReminderInterval updates and persists the reminder interval; 0
// disables reminders.
func (m *Manager) SetReminderInterval(ctx context.Context, days uint32) error {
	p, err := policy.Load(ctx, m.settings)
	if err != nil {
		return err
	}
	p.ReminderIntervalDays = days
	return policy.Save(ctx, m.settings, p)
}

// SetPasswordProtection updates and persists the password-protection
// default for new backups.
func (m *Manager) SetPasswordProtection(ctx context.Context, enabled bool) error {
	p, err := policy.Load(ctx, m.settings)
	if err != nil {
		return err
	}
	p.PasswordProtectionEnabled = enabled
	return policy.Save(ctx, m.settings, p)
}

// ShouldRemind reports whether the user is due for a backup reminder.
func (m *Manager) ShouldRemind(ctx context.Context) (bool, error) {
	p, err := policy.Load(ctx, m.settings)
	if err != nil {
		return false, err
	}
	return policy.ShouldRemind(m.now(), p.LastBackupAt, p.ReminderIntervalDays), nil
}
