package backup

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billkeeper/internal/backup/archive"
	"billkeeper/internal/backup/filestore"
	"billkeeper/internal/logging"
	"billkeeper/internal/models"
	"billkeeper/internal/store"
)

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type testEnv struct {
	manager *Manager
	store   *store.Store
	files   *filestore.Manager
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(ctx, t.TempDir()+"/test.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	files := filestore.NewManager(t.TempDir())
	settings := store.NewSettingsRepository(st.DB())

	m := NewManager(st, settings, files, discardLogger(), "test")
	m.now = func() time.Time { return time.Date(2026, 8, 30, 15, 4, 5, 0, time.UTC) }

	return &testEnv{manager: m, store: st, files: files}
}

func strp(s string) *string { return &s }

func seedDataset() *models.Dataset {
	created := time.Date(2026, 7, 15, 8, 45, 30, 123456789, time.UTC)
	issued := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	return &models.Dataset{
		Clients: []models.Client{
			{ID: "cl-1", Name: "Acme", CreatedAt: created, UpdatedAt: created},
		},
		Categories: []models.Category{
			{ID: "ca-1", Name: "Hardware", CreatedAt: created, UpdatedAt: created},
		},
		Items: []models.Item{
			{ID: "it-1", Name: "Widget", SKU: "W-1", Unit: "pcs", UnitPriceCents: 1250,
				Quantity: 4000, CategoryID: strp("ca-1"), CreatedAt: created, UpdatedAt: created},
		},
		Invoices: []models.Invoice{
			{ID: "in-1", Number: "2026-001", ClientID: "cl-1", Status: "sent",
				Currency: "EUR", IssuedAt: issued, CreatedAt: created, UpdatedAt: created},
		},
		InvoiceItems: []models.InvoiceItem{
			{ID: "ii-1", InvoiceID: "in-1", ItemID: strp("it-1"), Description: "Widget",
				Quantity: 2000, UnitPriceCents: 1250, Position: 1},
		},
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	ds := seedDataset()

	require.NoError(t, env.store.ReplaceAll(ctx, ds))

	path, err := env.manager.Export(ctx, nil)
	require.NoError(t, err)
	require.FileExists(t, path)

	// Mutate the live store so the restore has something to undo.
	require.NoError(t, env.store.ReplaceAll(ctx, &models.Dataset{}))

	require.NoError(t, env.manager.Import(ctx, path, nil))

	got, err := env.store.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, ds, got)
}

func TestExportImport_Encrypted(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	ds := seedDataset()
	password := []byte("hunter2")

	require.NoError(t, env.store.ReplaceAll(ctx, ds))

	path, err := env.manager.Export(ctx, password)
	require.NoError(t, err)

	encrypted, err := env.manager.IsEncrypted(path)
	require.NoError(t, err)
	assert.True(t, encrypted)

	require.NoError(t, env.store.ReplaceAll(ctx, &models.Dataset{}))

	t.Run("no password", func(t *testing.T) {
		require.ErrorIs(t, env.manager.Import(ctx, path, nil), ErrAuthenticationFailed)
	})

	t.Run("wrong password", func(t *testing.T) {
		require.ErrorIs(t, env.manager.Import(ctx, path, []byte("wrong")), ErrAuthenticationFailed)
	})

	t.Run("correct password", func(t *testing.T) {
		require.NoError(t, env.manager.Import(ctx, path, password))

		got, err := env.store.ReadAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, ds, got)
	})
}

func TestIsEncrypted_Plaintext(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	path, err := env.manager.Export(ctx, nil)
	require.NoError(t, err)

	encrypted, err := env.manager.IsEncrypted(path)
	require.NoError(t, err)
	assert.False(t, encrypted)
}

func TestImport_TamperedPayload(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	require.NoError(t, env.store.ReplaceAll(ctx, seedDataset()))
	path, err := env.manager.Export(ctx, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(data)-1] ^= 0x01
	require.NoError(t, os.WriteFile(path, data, 0o600))

	require.ErrorIs(t, env.manager.Import(ctx, path, nil), ErrChecksumMismatch)
}

func TestImport_CorruptedNonceLength(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	password := []byte("hunter2")

	require.NoError(t, env.store.ReplaceAll(ctx, seedDataset()))
	path, err := env.manager.Export(ctx, password)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	a, err := archive.Unmarshal(data)
	require.NoError(t, err)
	a.Nonce = a.Nonce[:len(a.Nonce)-1]
	require.NoError(t, os.WriteFile(path, a.Marshal(), 0o600))

	require.NotPanics(t, func() {
		err := env.manager.Import(ctx, path, password)
		require.ErrorIs(t, err, ErrAuthenticationFailed)
	})
}

func TestImport_TruncatedFile(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	require.NoError(t, env.store.ReplaceAll(ctx, seedDataset()))
	path, err := env.manager.Export(ctx, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)/2], 0o600))

	require.ErrorIs(t, env.manager.Import(ctx, path, nil), ErrTruncated)
}

func TestImport_NotAnArchive(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	path := t.TempDir() + "/random.bkp"
	require.NoError(t, os.WriteFile(path, []byte("definitely not an archive"), 0o600))

	require.ErrorIs(t, env.manager.Import(ctx, path, nil), ErrBadMagic)
}

func TestImport_MissingFile(t *testing.T) {
	env := setup(t)

	err := env.manager.Import(context.Background(), t.TempDir()+"/nope.bkp", nil)
	require.ErrorIs(t, err, ErrIO)
}

// failingStore wraps a real store but refuses the final replacement, to
// exercise the commit failure path.
type failingStore struct {
	*store.Store
}

func (f *failingStore) ReplaceAll(_ context.Context, _ *models.Dataset) error {
	return assert.AnError
}

func TestImport_CommitFailureLeavesStoreUntouched(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	ds := seedDataset()

	require.NoError(t, env.store.ReplaceAll(ctx, ds))
	path, err := env.manager.Export(ctx, nil)
	require.NoError(t, err)

	settings := store.NewSettingsRepository(env.store.DB())
	m := NewManager(&failingStore{env.store}, settings, env.files, discardLogger(), "test")

	require.ErrorIs(t, m.Import(ctx, path, nil), ErrCommit)

	got, err := env.store.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, ds, got)
}

func TestSingleOperationAtATime(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	env.manager.inFlight.Store(true)

	_, err := env.manager.Export(ctx, nil)
	require.ErrorIs(t, err, ErrOperationInProgress)
	require.ErrorIs(t, env.manager.Import(ctx, "whatever", nil), ErrOperationInProgress)

	env.manager.inFlight.Store(false)
	_, err = env.manager.Export(ctx, nil)
	require.NoError(t, err)
}

func TestExport_Cancelled(t *testing.T) {
	env := setup(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.manager.Export(ctx, nil)
	require.Error(t, err)

	paths, err := env.manager.List()
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestExport_UpdatesLastBackupAt(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	p, err := env.manager.Policy(ctx)
	require.NoError(t, err)
	require.Nil(t, p.LastBackupAt)

	_, err = env.manager.Export(ctx, nil)
	require.NoError(t, err)

	p, err = env.manager.Policy(ctx)
	require.NoError(t, err)
	require.NotNil(t, p.LastBackupAt)
	assert.Equal(t, time.Date(2026, 8, 30, 15, 4, 5, 0, time.UTC), *p.LastBackupAt)
}

func TestImport_DoesNotUpdateLastBackupAt(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	path, err := env.manager.Export(ctx, nil)
	require.NoError(t, err)

	require.NoError(t, env.manager.SetReminderInterval(ctx, 7))

	before, err := env.manager.Policy(ctx)
	require.NoError(t, err)

	require.NoError(t, env.manager.Import(ctx, path, nil))

	after, err := env.manager.Policy(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestPolicyOperations(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	require.NoError(t, env.manager.SetReminderInterval(ctx, 14))
	require.NoError(t, env.manager.SetPasswordProtection(ctx, true))

	p, err := env.manager.Policy(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(14), p.ReminderIntervalDays)
	assert.True(t, p.PasswordProtectionEnabled)

	// Both settings survive independently.
	require.NoError(t, env.manager.SetPasswordProtection(ctx, false))
	p, err = env.manager.Policy(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(14), p.ReminderIntervalDays)
	assert.False(t, p.PasswordProtectionEnabled)
}

func TestShouldRemind(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	require.NoError(t, env.manager.SetReminderInterval(ctx, 7))

	due, err := env.manager.ShouldRemind(ctx)
	require.NoError(t, err)
	assert.True(t, due, "no backup yet")

	_, err = env.manager.Export(ctx, nil)
	require.NoError(t, err)

	due, err = env.manager.ShouldRemind(ctx)
	require.NoError(t, err)
	assert.False(t, due, "backup just finished")
}

func TestExport_PhaseOrder(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	var phases []Phase
	env.manager.SetProgress(func(p Phase) { phases = append(phases, p) })

	_, err := env.manager.Export(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []Phase{PhaseReading, PhaseEncoding, PhaseWriting}, phases)

	phases = nil
	_, err = env.manager.Export(ctx, []byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, []Phase{PhaseReading, PhaseEncoding, PhaseEncrypting, PhaseWriting}, phases)
}

func TestImport_PhaseOrder(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	path, err := env.manager.Export(ctx, []byte("pw"))
	require.NoError(t, err)

	var phases []Phase
	env.manager.SetProgress(func(p Phase) { phases = append(phases, p) })

	require.NoError(t, env.manager.Import(ctx, path, []byte("pw")))
	assert.Equal(t, []Phase{PhaseValidating, PhaseDecrypting, PhaseStaging, PhaseCommitting}, phases)
}

func TestList_NewestFirstThroughManager(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	times := []time.Time{
		time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC),
	}
	var paths []string
	for _, ts := range times {
		env.manager.now = func() time.Time { return ts }
		p, err := env.manager.Export(ctx, nil)
		require.NoError(t, err)
		paths = append(paths, p)
	}

	got, err := env.manager.List()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, paths[1], got[0])
	assert.Equal(t, paths[0], got[1])

	require.NoError(t, env.manager.Delete(got[0]))
	got, err = env.manager.List()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, paths[0], got[0])
}

func TestInspect(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	path, err := env.manager.Export(ctx, nil)
	require.NoError(t, err)

	h, err := env.manager.Inspect(path)
	require.NoError(t, err)
	assert.Equal(t, "test", h.AppVersion)
	assert.Equal(t, time.Date(2026, 8, 30, 15, 4, 5, 0, time.UTC), h.CreatedAt)
	assert.False(t, h.Encrypted)
}
