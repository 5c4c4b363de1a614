// Package cli implements the interactive terminal client: a REPL with list,
// add, edit, delete, history, login, register and logout views.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/inventory-app/inventory-system/internal/client/api"
	"github.com/inventory-app/inventory-system/internal/client/session"
)

// ItemAPI is the server surface the views use.
type ItemAPI interface {
	SetToken(token string)
	Register(ctx context.Context, username, password string) (string, error)
	Login(ctx context.Context, username, password string) (string, error)
	ListItems(ctx context.Context) ([]api.Item, error)
	CreateItem(ctx context.Context, in api.ItemInput, idempotencyKey string) (*api.Item, error)
	UpdateItem(ctx context.Context, id string, in api.ItemInput) (*api.Item, error)
	DeleteItem(ctx context.Context, id string) error
	ItemHistory(ctx context.Context, id string) ([]api.ItemEvent, error)
}

type App struct {
	client  ItemAPI
	session *session.Session
	reader  *bufio.Reader
	out     io.Writer
	log     zerolog.Logger
	fd      int
}

// NewApp wires the client. in is read line by line; out receives all user output.
func NewApp(client ItemAPI, sess *session.Session, in io.Reader, out io.Writer, log zerolog.Logger) *App {
	fd := -1
	if f, ok := in.(*os.File); ok {
		fd = int(f.Fd())
	}
	client.SetToken(sess.Token())
	return &App{
		client:  client,
		session: sess,
		reader:  bufio.NewReader(in),
		out:     out,
		log:     log,
		fd:      fd,
	}
}

// Run starts the REPL and blocks until exit, EOF or ctx cancellation.
func (a *App) Run(ctx context.Context) {
	a.println("Inventory client. Type 'help' for commands.")
	runREPL(ctx, a)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// protected runs view behind the session guard. A blocked view redirects
// into the login view first and continues only when login succeeds.
func (a *App) protected(ctx context.Context, view func(context.Context) error) error {
	if err := a.session.Guard(); err != nil {
		a.println("Please log in first.")
		if err := a.Login(ctx); err != nil {
			return err
		}
	}
	a.client.SetToken(a.session.Token())
	return view(ctx)
}

// fail reports a view error and keeps the user on the current view. A
// rejected token drops the session back to Anonymous.
func (a *App) fail(op string, err error) error {
	if api.IsUnauthorized(err) {
		_ = a.session.Logout()
		a.client.SetToken("")
		a.println("Session is no longer valid, please log in again.")
		return err
	}
	a.log.Error().Err(err).Str("op", op).Msg("request failed")
	a.printf("Error: %v\n", err)
	return err
}
