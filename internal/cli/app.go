// Package cli is the terminal front end: one subcommand per dashboard action,
// all driven through the session and dashboard services.
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/budgettracker/budget-tracker/internal/core/ports"
	"github.com/budgettracker/budget-tracker/internal/core/service"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// User-facing messages.
const (
	MsgLoginRequired  = "Please log in first."
	MsgLoginFailed    = "Invalid username or password."
	MsgRegisterFailed = "Unable to register. Username or email may already be in use."
)

// Deps are the collaborators of an App.
type Deps struct {
	Session      ports.SessionService
	Transactions ports.TransactionGateway
	Reports      ports.ReportGateway
	ToastTTL     time.Duration
	In           io.Reader
	Out          io.Writer
	Err          io.Writer
	Log          zerolog.Logger
	Now          func() time.Time
}

// App runs one subcommand per invocation.
type App struct {
	session   ports.SessionService
	dashboard ports.DashboardService
	in        *bufio.Reader
	out       io.Writer
	errOut    io.Writer
	now       func() time.Time
	log       zerolog.Logger

	// assumeYes answers every confirmation prompt with yes.
	assumeYes bool
}

func New(d Deps) *App {
	if d.Now == nil {
		d.Now = time.Now
	}
	a := &App{
		session: d.Session,
		in:      bufio.NewReader(d.In),
		out:     d.Out,
		errOut:  d.Err,
		now:     d.Now,
		log:     d.Log,
	}
	a.dashboard = service.NewDashboardService(d.Session, d.Transactions, d.Reports, d.Log,
		service.WithConfirmer(ports.ConfirmFunc(a.confirm)),
		service.WithToastTTL(d.ToastTTL),
		service.WithClock(d.Now),
	)
	return a
}

type command struct {
	summary string
	// auth commands are refused without an authenticated session.
	auth bool
	run  func(a *App, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"register":  {summary: "create an account and sign in", run: (*App).register},
	"login":     {summary: "sign in", run: (*App).login},
	"logout":    {summary: "sign out and forget the stored token", run: (*App).logout},
	"whoami":    {summary: "show the signed-in profile", auth: true, run: (*App).whoami},
	"dashboard": {summary: "show profile, monthly summary and transactions", auth: true, run: (*App).showDashboard},
	"list":      {summary: "list transactions", auth: true, run: (*App).list},
	"summary":   {summary: "show the monthly summary", auth: true, run: (*App).summary},
	"add":       {summary: "add a transaction", auth: true, run: (*App).add},
	"edit":      {summary: "edit a transaction", auth: true, run: (*App).edit},
	"delete":    {summary: "delete a transaction", auth: true, run: (*App).delete},
	"export":    {summary: "download a monthly report", auth: true, run: (*App).export},
}

// errUsage marks bad command-line input; the flag package already printed
// the details.
var errUsage = errors.New("usage")

// userError carries the message shown to the user and the cause kept for logs.
type userError struct {
	msg string
	err error
}

func (e *userError) Error() string { return e.msg }

func (e *userError) Unwrap() error { return e.err }

func fail(msg string, err error) error {
	return &userError{msg: msg, err: err}
}

// Run executes args[0] with the remaining arguments and returns the exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		a.usage(a.errOut)
		return ExitUsage
	}
	name := args[0]
	if name == "help" || name == "-h" || name == "--help" {
		a.usage(a.out)
		return ExitOK
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(a.errOut, "unknown command %q\n\n", name)
		a.usage(a.errOut)
		return ExitUsage
	}

	a.session.Bootstrap(ctx)
	if cmd.auth && !a.session.IsAuthenticated() {
		fmt.Fprintln(a.errOut, MsgLoginRequired)
		return ExitFailure
	}

	err := cmd.run(a, ctx, args[1:])
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, flag.ErrHelp):
		return ExitOK
	case errors.Is(err, errUsage):
		return ExitUsage
	default:
		a.log.Debug().Err(errors.Unwrap(err)).Str("command", name).Msg("command failed")
		fmt.Fprintln(a.errOut, err.Error())
		return ExitFailure
	}
}

func (a *App) usage(w io.Writer) {
	fmt.Fprintln(w, "usage: budget <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-10s %s\n", name, commands[name].summary)
	}
}

// flags returns a FlagSet that reports errors to stderr instead of exiting.
func (a *App) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(fs.Output(), "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		return errUsage
	}
	return nil
}

// prompt reads one line from stdin. An empty input at EOF is an error.
func (a *App) prompt(label string) (string, error) {
	fmt.Fprintf(a.out, "%s: ", label)
	line, err := a.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

// promptIfEmpty returns v, or asks for it when v is empty.
func (a *App) promptIfEmpty(v *string, label string) error {
	if *v != "" {
		return nil
	}
	answer, err := a.prompt(label)
	if err != nil {
		return err
	}
	*v = answer
	return nil
}

func (a *App) confirm(_ context.Context, question string) bool {
	if a.assumeYes {
		return true
	}
	answer, err := a.prompt(question + " [y/N]")
	if err != nil {
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
