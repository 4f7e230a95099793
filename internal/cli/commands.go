package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/budgettracker/budget-tracker/internal/core/domain"
	"github.com/budgettracker/budget-tracker/internal/core/forms"
	"github.com/budgettracker/budget-tracker/internal/core/service"
	"github.com/budgettracker/budget-tracker/internal/ui"
)

func (a *App) register(ctx context.Context, args []string) error {
	var form forms.RegisterForm
	fs := a.flags("register")
	fs.StringVar(&form.Name, "name", "", "full name")
	fs.StringVar(&form.Username, "username", "", "username")
	fs.StringVar(&form.Email, "email", "", "email (optional)")
	fs.StringVar(&form.Password, "password", "", "password, at least 8 characters")
	fs.StringVar(&form.ConfirmPassword, "confirm", "", "password again")
	if err := parse(fs, args); err != nil {
		return err
	}
	for _, p := range []struct {
		v     *string
		label string
	}{
		{&form.Name, "Name"},
		{&form.Username, "Username"},
		{&form.Password, "Password"},
		{&form.ConfirmPassword, "Confirm password"},
	} {
		if err := a.promptIfEmpty(p.v, p.label); err != nil {
			return err
		}
	}

	in, err := form.ToInput()
	if err != nil {
		return err
	}
	if err := a.session.Register(ctx, in); err != nil {
		return fail(MsgRegisterFailed, err)
	}

	snap := a.session.Snapshot()
	fmt.Fprintf(a.out, "Welcome, %s!\n", snap.User.Name)
	fmt.Fprintln(a.out, ui.ProfileCard(*snap.User))
	return nil
}

func (a *App) login(ctx context.Context, args []string) error {
	var form forms.LoginForm
	fs := a.flags("login")
	fs.StringVar(&form.Username, "username", "", "username")
	fs.StringVar(&form.Password, "password", "", "password")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := a.promptIfEmpty(&form.Username, "Username"); err != nil {
		return err
	}
	if err := a.promptIfEmpty(&form.Password, "Password"); err != nil {
		return err
	}

	in, err := form.ToInput()
	if err != nil {
		return err
	}
	if err := a.session.Login(ctx, in); err != nil {
		return fail(MsgLoginFailed, err)
	}
	fmt.Fprintf(a.out, "Signed in as @%s.\n", a.session.Snapshot().User.Username)
	return nil
}

func (a *App) logout(_ context.Context, args []string) error {
	if err := parse(a.flags("logout"), args); err != nil {
		return err
	}
	a.session.Logout()
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

func (a *App) whoami(ctx context.Context, args []string) error {
	if err := parse(a.flags("whoami"), args); err != nil {
		return err
	}
	if err := a.session.RefreshProfile(ctx); err != nil {
		a.log.Warn().Err(err).Msg("profile refresh failed, showing cached profile")
	}
	snap := a.session.Snapshot()
	if snap.User == nil {
		return fail(MsgLoginRequired, nil)
	}
	fmt.Fprintln(a.out, ui.ProfileCard(*snap.User))
	return nil
}

// periodFlags registers -month and -year. Zero means "keep the current one".
func periodFlags(fs *flag.FlagSet) (month, year *int) {
	return fs.Int("month", 0, "month 1-12 (default current)"), fs.Int("year", 0, "year (default current)")
}

// applyPeriod selects month/year when either flag was given.
func (a *App) applyPeriod(ctx context.Context, month, year int) error {
	if month == 0 && year == 0 {
		return nil
	}
	st := a.dashboard.State()
	if month == 0 {
		month = st.Month
	}
	if year == 0 {
		year = st.Year
	}
	return a.dashboard.SetPeriod(ctx, month, year)
}

// notified turns an error notification into the command's failure.
func (a *App) notified() error {
	n := a.dashboard.State().Notification
	if n == nil {
		return nil
	}
	if n.Kind == domain.NotifyError {
		return fail(n.Message, nil)
	}
	fmt.Fprintln(a.out, ui.Notification(n))
	return nil
}

// mutated reports a write the backend accepted. A reload that failed
// afterwards is printed as a warning; the write itself went through.
func (a *App) mutated(msg string) error {
	fmt.Fprintln(a.out, ui.Notification(&domain.Notification{Kind: domain.NotifySuccess, Message: msg}))
	a.warnNotification()
	return nil
}

// warnNotification prints an error notification as a warning on stderr.
func (a *App) warnNotification() {
	if n := a.dashboard.State().Notification; n != nil && n.Kind == domain.NotifyError {
		fmt.Fprintln(a.errOut, "warning: "+n.Message)
	}
}

func (a *App) showDashboard(ctx context.Context, args []string) error {
	fs := a.flags("dashboard")
	month, year := periodFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := a.applyPeriod(ctx, *month, *year); err != nil {
		return err
	}

	unmount := a.dashboard.Mount(ctx)
	defer unmount()

	st := a.dashboard.State()
	if u := a.session.Snapshot().User; u != nil {
		fmt.Fprintln(a.out, ui.ProfileCard(*u))
	}
	fmt.Fprintln(a.out, ui.Period(st.Month, st.Year))
	fmt.Fprintln(a.out, ui.SummaryCards(st.Summary))
	fmt.Fprintln(a.out, ui.TransactionTable(st.Transactions))
	return a.notified()
}

func (a *App) list(ctx context.Context, args []string) error {
	var f domain.Filters
	var typ string
	fs := a.flags("list")
	fs.StringVar(&f.Category, "category", "", "only this category")
	fs.StringVar(&typ, "type", "", "income or expense")
	fs.StringVar(&f.StartDate, "from", "", "start date YYYY-MM-DD")
	fs.StringVar(&f.EndDate, "to", "", "end date YYYY-MM-DD")
	if err := parse(fs, args); err != nil {
		return err
	}
	f.Type = domain.TransactionType(typ)
	if typ != "" && !f.Type.Valid() {
		return fail("type must be income or expense", domain.ErrValidation)
	}
	for _, d := range []string{f.StartDate, f.EndDate} {
		if d == "" {
			continue
		}
		if _, err := domain.ParseDate(d); err != nil {
			return fail(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", d), err)
		}
	}

	a.dashboard.SetFilters(ctx, f)
	st := a.dashboard.State()
	if st.ListFailed {
		return fail(service.MsgFetchTransactions, nil)
	}
	fmt.Fprintln(a.out, ui.TransactionTable(st.Transactions))
	a.warnNotification()
	return nil
}

func (a *App) summary(ctx context.Context, args []string) error {
	fs := a.flags("summary")
	month, year := periodFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	if *month == 0 && *year == 0 {
		st := a.dashboard.State()
		*month, *year = st.Month, st.Year
	}
	if err := a.applyPeriod(ctx, *month, *year); err != nil {
		return err
	}

	st := a.dashboard.State()
	if st.SummaryFailed {
		return fail(service.MsgFetchSummary, nil)
	}
	fmt.Fprintln(a.out, ui.Period(st.Month, st.Year))
	fmt.Fprintln(a.out, ui.SummaryCards(st.Summary))
	return nil
}

// transactionFlags binds the editable fields of form to fs.
func transactionFlags(fs *flag.FlagSet, form *forms.TransactionForm) {
	fs.StringVar(&form.Amount, "amount", form.Amount, "positive amount")
	fs.StringVar(&form.Date, "date", form.Date, "date YYYY-MM-DD")
	fs.StringVar(&form.Category, "category", form.Category, "category")
	fs.StringVar(&form.Type, "type", form.Type, "income or expense")
	fs.StringVar(&form.Description, "description", form.Description, "optional description")
}

func (a *App) add(ctx context.Context, args []string) error {
	form := forms.TransactionForm{
		Date: a.now().Format(domain.DateLayout),
		Type: string(domain.TransactionExpense),
	}
	fs := a.flags("add")
	transactionFlags(fs, &form)
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := a.promptIfEmpty(&form.Amount, "Amount"); err != nil {
		return err
	}
	if form.Category == "" {
		fmt.Fprintf(a.out, "Suggestions: %v\n", forms.SuggestedCategories(domain.TransactionType(form.Type)))
		if err := a.promptIfEmpty(&form.Category, "Category"); err != nil {
			return err
		}
	}

	in, err := form.ToInput()
	if err != nil {
		return err
	}
	if err := a.dashboard.Create(ctx, in); err != nil {
		return a.mutationError(err)
	}
	return a.mutated(service.MsgCreated)
}

// findTransaction looks id up in a fresh, unfiltered list.
func (a *App) findTransaction(ctx context.Context, id int64) (domain.Transaction, error) {
	a.dashboard.RefreshList(ctx)
	st := a.dashboard.State()
	if st.ListFailed {
		return domain.Transaction{}, fail(service.MsgFetchTransactions, nil)
	}
	for _, tx := range st.Transactions {
		if tx.ID == id {
			return tx, nil
		}
	}
	return domain.Transaction{}, fail(fmt.Sprintf("Transaction %d not found.", id), domain.ErrNotFound)
}

func (a *App) edit(ctx context.Context, args []string) error {
	var id int64
	var patch forms.TransactionForm
	fs := a.flags("edit")
	fs.Int64Var(&id, "id", 0, "transaction id (required)")
	transactionFlags(fs, &patch)
	if err := parse(fs, args); err != nil {
		return err
	}
	if id <= 0 {
		fmt.Fprintln(a.errOut, "edit: -id is required")
		return errUsage
	}

	tx, err := a.findTransaction(ctx, id)
	if err != nil {
		return err
	}
	// Only the fields given on the command line change.
	form := forms.TransactionFormFrom(tx.Input())
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "amount":
			form.Amount = patch.Amount
		case "date":
			form.Date = patch.Date
		case "category":
			form.Category = patch.Category
		case "type":
			form.Type = patch.Type
		case "description":
			form.Description = patch.Description
		}
	})

	in, err := form.ToInput()
	if err != nil {
		return err
	}
	a.dashboard.BeginEdit(tx)
	if err := a.dashboard.Update(ctx, in); err != nil {
		a.dashboard.CancelEdit()
		return a.mutationError(err)
	}
	return a.mutated(service.MsgUpdated)
}

func (a *App) delete(ctx context.Context, args []string) error {
	var id int64
	fs := a.flags("delete")
	fs.Int64Var(&id, "id", 0, "transaction id (required)")
	fs.BoolVar(&a.assumeYes, "yes", false, "do not ask for confirmation")
	if err := parse(fs, args); err != nil {
		return err
	}
	if id <= 0 {
		fmt.Fprintln(a.errOut, "delete: -id is required")
		return errUsage
	}

	tx, err := a.findTransaction(ctx, id)
	if err != nil {
		return err
	}
	confirmed, err := a.dashboard.Delete(ctx, tx)
	if err != nil {
		return a.mutationError(err)
	}
	if !confirmed {
		fmt.Fprintln(a.out, "Cancelled.")
		return nil
	}
	return a.mutated(service.MsgDeleted)
}

func (a *App) export(ctx context.Context, args []string) error {
	var format, out string
	fs := a.flags("export")
	fs.StringVar(&format, "format", string(domain.ReportCSV), "csv or json")
	fs.StringVar(&out, "out", "", "output file (default report_<year>_<month>.<format>)")
	month, year := periodFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := a.applyPeriod(ctx, *month, *year); err != nil {
		return err
	}

	report, err := a.dashboard.ExportReport(ctx, domain.ReportFormat(format))
	if err != nil {
		return a.mutationError(err)
	}
	if out == "" {
		out = report.Filename
	}
	if err := os.WriteFile(out, report.Body, 0o644); err != nil {
		return fail(fmt.Sprintf("Unable to write %s.", out), err)
	}
	fmt.Fprintf(a.out, "Saved %s (%d bytes).\n", out, len(report.Body))
	return nil
}

// mutationError prefers the dashboard's message over the raw error.
// Validation errors already carry a readable message.
func (a *App) mutationError(err error) error {
	var verr *forms.ValidationError
	if errors.As(err, &verr) {
		return err
	}
	if n := a.dashboard.State().Notification; n != nil && n.Kind == domain.NotifyError {
		return fail(n.Message, err)
	}
	return err
}
