package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

func (a *App) Root(ctx context.Context) {

	fmt.Println("Welcome to billkeeper (type 'help' for commands)")
	a.startupReminder(ctx)

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("billkeeper > ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			fmt.Println("Available commands: backup, restore <n>, list, delete <n>, inspect <n>, policy, interval <days>, protect on|off, remind, seed, exit")
		case "backup":
			a.backup(ctx)
		case "restore":
			a.restore(ctx, args)
		case "list":
			a.list()
		case "delete":
			a.delete(args)
		case "inspect":
			a.inspect(args)
		case "policy":
			a.showPolicy(ctx)
		case "interval":
			a.setInterval(ctx, args)
		case "protect":
			a.setProtection(ctx, args)
		case "remind":
			a.remind(ctx)
		case "seed":
			a.seed(ctx)
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}
	}
}

func (a *App) startupReminder(ctx context.Context) {
	due, err := a.manager.ShouldRemind(ctx)
	if err != nil {
		a.log.Warn(ctx, "reminder check failed", "error", err)
		return
	}
	if due {
		fmt.Println("Reminder: it has been a while since your last backup. Run 'backup' to create one.")
	}
}
