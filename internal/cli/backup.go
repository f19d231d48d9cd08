package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"billkeeper/internal/backup"
)

func (a *App) backup(ctx context.Context) {
	p, err := a.manager.Policy(ctx)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	var password []byte
	if p.PasswordProtectionEnabled {
		password, err = GetPassword(os.Stdout, "Backup password: ")
		if err != nil {
			fmt.Println("Error:", err)
			return
		}
		again, err := GetPassword(os.Stdout, "Repeat password: ")
		if err != nil {
			fmt.Println("Error:", err)
			return
		}
		if string(password) != string(again) {
			fmt.Println("Passwords do not match.")
			return
		}
	}

	path, err := a.manager.Export(ctx, password)
	if err != nil {
		if errors.Is(err, backup.ErrOperationInProgress) {
			fmt.Println("Another backup or restore is already running.")
			return
		}
		fmt.Println("Backup failed:", err)
		return
	}
	fmt.Println("Backup written to", path)
}

func (a *App) restore(ctx context.Context, args []string) {
	path, ok := a.resolvePath(args)
	if !ok {
		return
	}

	confirmed, err := Confirm(a.reader,
		fmt.Sprintf("Restoring %s will REPLACE ALL current data. Continue?", path), os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	if !confirmed {
		fmt.Println("Restore cancelled.")
		return
	}

	encrypted, err := a.manager.IsEncrypted(path)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	var password []byte
	for {
		if encrypted {
			password, err = GetPassword(os.Stdout, "Archive password: ")
			if err != nil {
				fmt.Println("Error:", err)
				return
			}
		}

		err = a.manager.Import(ctx, path, password)
		if err == nil {
			fmt.Println("Restore complete.")
			return
		}

		switch {
		case errors.Is(err, backup.ErrAuthenticationFailed) && encrypted:
			fmt.Println("Wrong password, try again (Ctrl+C to abort).")
			continue
		case errors.Is(err, backup.ErrChecksumMismatch):
			fmt.Println("The backup file is corrupted. Try a different backup.")
		case errors.Is(err, backup.ErrTruncated):
			fmt.Println("The backup file is incomplete (truncated). Try a different backup.")
		case errors.Is(err, backup.ErrUnsupportedVersion):
			fmt.Println("This backup was made by a newer version of the app.")
		case errors.Is(err, backup.ErrIntegrity):
			fmt.Println("The backup contains inconsistent data and cannot be restored:", err)
		case errors.Is(err, backup.ErrOperationInProgress):
			fmt.Println("Another backup or restore is already running.")
		default:
			fmt.Println("Restore failed:", err)
		}
		return
	}
}

func (a *App) list() {
	paths, err := a.manager.List()
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	if len(paths) == 0 {
		fmt.Println("No backups yet.")
		return
	}
	for i, p := range paths {
		fmt.Printf("%3d  %s\n", i+1, p)
	}
}

func (a *App) delete(args []string) {
	path, ok := a.resolvePath(args)
	if !ok {
		return
	}
	confirmed, err := Confirm(a.reader, fmt.Sprintf("Delete %s?", path), os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	if !confirmed {
		return
	}
	if err := a.manager.Delete(path); err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println("Deleted.")
}

func (a *App) inspect(args []string) {
	path, ok := a.resolvePath(args)
	if !ok {
		return
	}
	h, err := a.manager.Inspect(path)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println("Path:       ", path)
	fmt.Println("Created:    ", h.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Println("App version:", h.AppVersion)
	fmt.Println("Encrypted:  ", h.Encrypted)
	fmt.Println("Payload:    ", h.PayloadLen, "bytes")
}

func (a *App) showPolicy(ctx context.Context) {
	p, err := a.manager.Policy(ctx)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	if p.LastBackupAt == nil {
		fmt.Println("Last backup:        never")
	} else {
		fmt.Println("Last backup:       ", p.LastBackupAt.Local().Format("2006-01-02 15:04:05"))
	}
	if p.ReminderIntervalDays == 0 {
		fmt.Println("Reminder interval:  disabled")
	} else {
		fmt.Printf("Reminder interval:  every %d day(s)\n", p.ReminderIntervalDays)
	}
	fmt.Println("Password default:  ", onOff(p.PasswordProtectionEnabled))
}

func (a *App) setInterval(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: interval <days>  (0 disables reminders)")
		return
	}
	days, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		fmt.Println("Invalid number of days:", args[0])
		return
	}
	if err := a.manager.SetReminderInterval(ctx, uint32(days)); err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println("Reminder interval updated.")
}

func (a *App) setProtection(ctx context.Context, args []string) {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		fmt.Println("Usage: protect on|off")
		return
	}
	if err := a.manager.SetPasswordProtection(ctx, args[0] == "on"); err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println("Password protection", args[0])
}

func (a *App) remind(ctx context.Context) {
	due, err := a.manager.ShouldRemind(ctx)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	if due {
		fmt.Println("A backup is due.")
	} else {
		fmt.Println("No backup due.")
	}
}

// resolvePath turns a single argument, either a list index or a literal
// path, into a backup file path.
func (a *App) resolvePath(args []string) (string, bool) {
	if len(args) != 1 {
		fmt.Println("Usage: <command> <n>  (index from 'list', or a file path)")
		return "", false
	}

	if n, err := strconv.Atoi(args[0]); err == nil {
		paths, err := a.manager.List()
		if err != nil {
			fmt.Println("Error:", err)
			return "", false
		}
		if n < 1 || n > len(paths) {
			fmt.Printf("No backup #%d (have %d).\n", n, len(paths))
			return "", false
		}
		return paths[n-1], true
	}

	return args[0], true
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
