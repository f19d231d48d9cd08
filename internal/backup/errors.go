package backup

import (
	"errors"

	"billkeeper/internal/backup/archive"
	"billkeeper/internal/backup/cryptox"
	"billkeeper/internal/backup/snapshot"
)

// The engine's failure kinds. Each surfaces to the caller distinct and
// matchable with errors.Is; none is ever downgraded to a generic failure,
// because the UI must tell recoverable cases (wrong password) apart from
// terminal ones (corrupted file). Kinds raised by the lower layers are
// re-exported here so callers only import this package.
var (
	// ErrStoreRead means the live store could not be queried during snapshot.
	ErrStoreRead = snapshot.ErrStoreRead

	// ErrIntegrity means a staged graph contains a dangling reference.
	ErrIntegrity = snapshot.ErrIntegrity

	// ErrBadMagic means the file is not a billkeeper archive at all.
	ErrBadMagic = archive.ErrBadMagic

	// ErrUnsupportedVersion means the archive declares a format version
	// newer than this build understands.
	ErrUnsupportedVersion = archive.ErrUnsupportedVersion

	// ErrTruncated means the byte stream ended before the declared length.
	ErrTruncated = archive.ErrTruncated

	// ErrChecksumMismatch means the payload failed integrity verification.
	ErrChecksumMismatch = archive.ErrChecksumMismatch

	// ErrAuthenticationFailed means decryption failed: wrong password or
	// tampered ciphertext.
	ErrAuthenticationFailed = cryptox.ErrAuthenticationFailed

	// ErrIO covers disk-level failures: missing file, permissions, full disk.
	ErrIO = errors.New("i/o error")

	// ErrOperationInProgress means another backup or restore is in flight.
	ErrOperationInProgress = errors.New("operation already in progress")

	// ErrCommit means the restore transaction failed and was rolled back;
	// the live store is unchanged.
	ErrCommit = errors.New("restore commit failed")
)
