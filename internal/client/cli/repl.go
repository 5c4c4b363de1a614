package cli

import (
	"context"
	"errors"
	"io"
	"strings"
)

const helpText = `Commands:
  list              show all items
  add               add an item
  edit <id>         change an item's name or quantity
  delete <id>       delete an item
  history <id>      show an item's change history
  login             log in
  register          create an account
  logout            log out
  help              show this help
  exit | quit       leave the program`

// runREPL reads one command per line and dispatches it to the matching view.
// View errors are reported by the views themselves; the loop keeps going.
// It returns on EOF, on "exit"/"quit" or when ctx is done.
func runREPL(ctx context.Context, a *App) {
	for {
		if ctx.Err() != nil {
			return
		}
		a.printf("inventory (%s)> ", a.session.State())

		line, err := a.reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || strings.TrimSpace(line) == "") {
			a.println()
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, arg := parts[0], ""
		if len(parts) > 1 {
			arg = parts[1]
		}

		switch cmd {
		case "help", "?":
			a.println(helpText)
		case "login":
			_ = a.Login(ctx)
		case "register":
			_ = a.Register(ctx)
		case "logout":
			_ = a.Logout(ctx)
		case "list", "ls":
			_ = a.protected(ctx, a.List)
		case "add":
			_ = a.protected(ctx, a.Add)
		case "edit":
			_ = a.protected(ctx, func(ctx context.Context) error { return a.Edit(ctx, arg) })
		case "delete", "rm":
			_ = a.protected(ctx, func(ctx context.Context) error { return a.Delete(ctx, arg) })
		case "history":
			_ = a.protected(ctx, func(ctx context.Context) error { return a.History(ctx, arg) })
		case "exit", "quit":
			a.println("Bye!")
			return
		default:
			a.println("Unknown command:", cmd, "(type 'help')")
		}
	}
}
