package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/geocoder89/marketlink/internal/domain/product"
	"github.com/geocoder89/marketlink/internal/domain/user"
	"github.com/geocoder89/marketlink/internal/views/dashboard"
	"github.com/geocoder89/marketlink/internal/views/feed"
	"github.com/geocoder89/marketlink/internal/views/pages"
	"github.com/geocoder89/marketlink/internal/views/shell"
	"github.com/geocoder89/marketlink/internal/views/wizard"
	"github.com/spf13/cobra"
)

var errUsage = errors.New("wrong arguments; type 'help'")

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive marketplace browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			sh, err := shell.New(ctx, a.sess, a.client, shell.Options{
				Brand:     a.cfg.Brand,
				Directory: feed.NewDirectory(time.Minute),
			})
			if err != nil {
				return err
			}
			defer sh.Close()

			homeDir, err := os.UserHomeDir()
			if err != nil {
				homeDir = "."
			}
			rl, err := readline.NewEx(&readline.Config{
				Prompt:            "> ",
				HistoryFile:       homeDir + "/.marketlink_history",
				AutoComplete:      completer(),
				InterruptPrompt:   "^C",
				EOFPrompt:         "exit",
				HistorySearchFold: true,
			})
			if err != nil {
				return fmt.Errorf("failed to initialize readline: %w", err)
			}
			a.rl = rl

			s := &interactive{a: a, sh: sh, r: renderer{out: a.out}}
			return s.run(ctx)
		},
	}
}

func completer() *readline.PrefixCompleter {
	pagesItems := make([]readline.PrefixCompleterInterface, 0, len(shell.Pages))
	for _, p := range shell.Pages {
		if p != shell.PageProduct {
			pagesItems = append(pagesItems, readline.PcItem(string(p)))
		}
	}
	categories := []readline.PrefixCompleterInterface{readline.PcItem(product.CategoryAll)}
	for _, c := range product.Categories {
		categories = append(categories, readline.PcItem(c))
	}
	tabs := []readline.PrefixCompleterInterface{
		readline.PcItem(string(dashboard.TabProducts)),
		readline.PcItem(string(dashboard.TabAdd)),
		readline.PcItem(string(dashboard.TabProfile)),
	}

	return readline.NewPrefixCompleter(
		readline.PcItem("go", pagesItems...),
		readline.PcItem("category", categories...),
		readline.PcItem("tab", tabs...),
		readline.PcItem("search"), readline.PcItem("refresh"), readline.PcItem("open"),
		readline.PcItem("login"), readline.PcItem("signup"), readline.PcItem("code"),
		readline.PcItem("toggle"), readline.PcItem("forgot"), readline.PcItem("back"),
		readline.PcItem("whatsapp"), readline.PcItem("rate"),
		readline.PcItem("add"), readline.PcItem("edit"), readline.PcItem("delete"), readline.PcItem("profile"),
		readline.PcItem("subscribe"), readline.PcItem("contact-us"),
		readline.PcItem("logout"), readline.PcItem("whoami"), readline.PcItem("stats"),
		readline.PcItem("help"), readline.PcItem("exit"),
	)
}

// interactive drives a shell.Shell from readline input.
type interactive struct {
	a  *app
	sh *shell.Shell
	r  renderer

	// dashboard view whose products were already fetched
	loadedDash *dashboard.View
}

func (s *interactive) run(ctx context.Context) error {
	s.r.printf("%s marketplace. Type 'help' for commands, 'exit' to quit.\n", s.sh.Brand())
	s.show()

	for {
		s.a.rl.SetPrompt(s.prompt())
		line, err := s.a.rl.Readline()
		if err != nil {
			if err == io.EOF || err == readline.ErrInterrupt {
				return nil
			}
			return err
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		fields := strings.Fields(input)
		name, args := strings.ToLower(fields[0]), fields[1:]

		switch name {
		case "exit", "quit":
			return nil
		case "help", "?":
			s.printHelp()
			continue
		}

		before := s.sh.Page()
		if err := s.exec(ctx, name, args); err != nil {
			fmt.Fprintf(s.a.errOut, "%s %s\n", "Error:", errorText(err))
		}
		if s.sh.Page() != before {
			s.show()
		}
	}
}

func (s *interactive) prompt() string {
	who := "guest"
	if u := s.sh.User(); u != nil {
		who = u.Name
	}
	return fmt.Sprintf("%s [%s] %s> ", s.sh.Brand(), s.sh.Page(), who)
}

// show renders the active page, fetching its data on first display.
func (s *interactive) show() {
	switch s.sh.Page() {
	case shell.PageHome:
		v := s.sh.Feed()
		if !v.Snapshot().Loaded {
			_ = v.Load()
		}
		_ = s.r.feed(v.Snapshot())
	case shell.PageLogin, shell.PageSignup:
		_ = s.r.wizard(s.sh.Wizard().Snapshot())
	case shell.PageDashboard:
		v := s.sh.Dashboard()
		if v != s.loadedDash {
			s.loadedDash = v
			if v.Snapshot().Me.IsSeller() {
				_ = v.Reload()
			}
		}
		_ = s.r.dashboard(v.Snapshot())
	case shell.PageProduct:
		v := s.sh.Detail()
		link, linkErr := v.ContactLink()
		_ = s.r.detail(v.Snapshot(), link, linkErr)
	case shell.PageAbout:
		_ = s.r.sections(pages.About(s.sh.Brand()))
		s.r.printf("Newsletter: subscribe <email>   Contact: contact-us\n")
	case shell.PageHelp:
		_ = s.r.questions(pages.Help(s.sh.Brand()))
		s.r.printf("Still stuck? contact-us\n")
	}
}

func (s *interactive) exec(ctx context.Context, name string, args []string) error {
	switch name {
	case "go":
		if len(args) != 1 {
			return errUsage
		}
		return s.sh.Navigate(shell.Page(strings.ToLower(args[0])))
	case "home", "about", "dashboard":
		return s.sh.Navigate(shell.Page(name))
	case "logout":
		if err := s.sh.Logout(ctx); err != nil {
			return err
		}
		s.r.notice("Logged out")
		return nil
	case "whoami":
		if u := s.sh.User(); u != nil {
			return s.r.user(*u)
		}
		s.r.printf("Not logged in\n")
		return nil
	case "stats":
		rows, err := s.a.metrics.Snapshot()
		if err != nil {
			return err
		}
		return s.r.stats(rows)
	case "subscribe", "contact-us":
		return s.contact(name, args)
	}

	switch s.sh.Page() {
	case shell.PageHome:
		return s.execFeed(name, args)
	case shell.PageLogin, shell.PageSignup:
		return s.execWizard(name, args)
	case shell.PageProduct:
		return s.execDetail(name, args)
	case shell.PageDashboard:
		return s.execDashboard(name, args)
	}

	switch name {
	case "login", "signup":
		return s.sh.Navigate(shell.Page(name))
	}
	return fmt.Errorf("unknown command %q on this page; type 'help'", name)
}

func (s *interactive) execFeed(name string, args []string) error {
	v := s.sh.Feed()

	switch name {
	case "category":
		if err := v.SetCategory(strings.Join(args, " ")); err != nil {
			return err
		}
	case "search":
		v.SetSearch(strings.Join(args, " "))
	case "refresh":
	case "open":
		n, err := index(args, len(v.Snapshot().Items))
		if err != nil {
			return err
		}
		d, err := s.sh.OpenProduct(v.Snapshot().Items[n].Product)
		if err != nil {
			return err
		}
		return d.Load()
	case "login", "signup":
		return s.sh.Navigate(shell.Page(name))
	default:
		return fmt.Errorf("unknown command %q on this page; type 'help'", name)
	}

	err := v.Load()
	_ = s.r.feed(v.Snapshot())
	return err
}

func (s *interactive) execWizard(name string, args []string) error {
	w := s.sh.Wizard()
	state := w.Snapshot().State

	var err error
	switch {
	case name == "toggle":
		err = w.Toggle()
	case name == "back" && (state == wizard.StateOTPPending || state == wizard.StateForgotPassword):
		err = w.Back()
	case name == "back":
		return s.sh.Navigate(shell.PageHome)
	case name == "forgot" && state == wizard.StateForgotPassword && len(args) == 1:
		err = w.SubmitForgotPassword(args[0])
	case name == "forgot":
		err = w.ForgotPassword()
	case name == "code":
		if len(args) != 1 {
			return errUsage
		}
		err = w.SubmitCode(args[0])
	case name == "login" && state == wizard.StateLogin:
		err = s.wizardLogin(w, args)
	case name == "signup" && state == wizard.StateSignup:
		err = s.wizardSignup(w)
	case name == "login" || name == "signup":
		err = w.Toggle()
	default:
		return fmt.Errorf("unknown command %q on this page; type 'help'", name)
	}

	// a finished wizard has already moved the shell on
	if s.sh.Wizard() == w {
		_ = s.r.wizard(w.Snapshot())
	}
	if w.Snapshot().Error != "" || w.Snapshot().FieldErrors != nil {
		return nil
	}
	return err
}

func (s *interactive) wizardLogin(w *wizard.View, args []string) error {
	email := ""
	if len(args) > 0 {
		email = args[0]
	} else {
		var err error
		if email, err = s.a.ask("Email: "); err != nil {
			return err
		}
	}
	password, err := s.a.askSecret("Password: ")
	if err != nil {
		return err
	}
	return w.SubmitLogin(email, password)
}

func (s *interactive) wizardSignup(w *wizard.View) error {
	var req user.SignupRequest
	var err error

	if req.Name, err = s.a.ask("Full name: "); err != nil {
		return err
	}
	if req.Email, err = s.a.ask("Email: "); err != nil {
		return err
	}
	if req.Password, err = s.a.askSecret("Password: "); err != nil {
		return err
	}
	role, err := s.askDefault("Role (BUYER/SELLER)", string(user.RoleBuyer))
	if err != nil {
		return err
	}
	req.Role = parseRole(role)

	return w.SubmitSignup(req)
}

func (s *interactive) execDetail(name string, args []string) error {
	v := s.sh.Detail()

	switch name {
	case "back":
		return s.sh.Navigate(shell.PageHome)
	case "whatsapp":
		link, err := v.ContactLink()
		if err != nil {
			return err
		}
		s.r.printf("%s\n", link)
		return nil
	case "rate":
		if len(args) == 0 {
			return errUsage
		}
		rating, err := strconv.Atoi(args[0])
		if err != nil {
			return errUsage
		}
		if err := v.Rate(rating, strings.Join(args[1:], " ")); err != nil {
			return err
		}
		link, linkErr := v.ContactLink()
		return s.r.detail(v.Snapshot(), link, linkErr)
	case "login", "signup":
		return s.sh.Navigate(shell.Page(name))
	}
	return fmt.Errorf("unknown command %q on this page; type 'help'", name)
}

func (s *interactive) execDashboard(name string, args []string) error {
	v := s.sh.Dashboard()

	var err error
	switch name {
	case "tab":
		if len(args) != 1 {
			return errUsage
		}
		err = v.SetTab(dashboard.Tab(strings.ToLower(args[0])))
	case "reload", "refresh":
		err = v.Reload()
	case "add":
		v.CancelEdit()
		if err = v.SetTab(dashboard.TabAdd); err == nil {
			err = s.productForm(v)
		}
	case "edit":
		n, ierr := index(args, len(v.Snapshot().Rows))
		if ierr != nil {
			return ierr
		}
		if err = v.StartEdit(v.Snapshot().Rows[n].Product.ID); err == nil {
			err = s.productForm(v)
		}
	case "delete":
		n, ierr := index(args, len(v.Snapshot().Rows))
		if ierr != nil {
			return ierr
		}
		err = v.Delete(v.Snapshot().Rows[n].Product.ID, func(p product.Product) bool {
			return s.a.confirm(fmt.Sprintf("Delete %q?", p.Title))
		})
		if errors.Is(err, dashboard.ErrDeclined) {
			s.r.printf("Kept.\n")
			return nil
		}
	case "profile":
		if err = v.SetTab(dashboard.TabProfile); err == nil {
			err = s.profileForm(v)
		}
	case "back":
		return s.sh.Navigate(shell.PageHome)
	default:
		return fmt.Errorf("unknown command %q on this page; type 'help'", name)
	}

	_ = s.r.dashboard(v.Snapshot())
	if len(v.Snapshot().FieldErrors) > 0 {
		return nil
	}
	return err
}

// productForm prompts for every draft field, offering the current value.
func (s *interactive) productForm(v *dashboard.View) error {
	d := v.Snapshot().Draft
	var err error

	ask := func(label string, cur *string) {
		if err == nil {
			*cur, err = s.askDefault(label, *cur)
		}
	}
	condition := string(d.Condition)
	images := ""

	ask("Title", &d.Title)
	ask("Price (₦)", &d.Price)
	ask("Category", &d.Category)
	ask("Condition (New/Used/Refurbished)", &condition)
	ask("Location", &d.Location)
	ask("Description", &d.Description)
	ask("Image files or URLs, comma separated", &images)
	if err != nil {
		return err
	}

	v.EditDraft(func(draft *dashboard.Draft) {
		draft.Title, draft.Price, draft.Category = d.Title, d.Price, d.Category
		draft.Condition = product.Condition(condition)
		draft.Location, draft.Description = d.Location, d.Description
	})
	for _, ref := range strings.Split(images, ",") {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		if _, statErr := os.Stat(ref); statErr == nil {
			if err := v.AddImageFile(ref); err != nil {
				return fmt.Errorf("%s: %w", ref, err)
			}
			continue
		}
		v.AddImage(ref)
	}

	return v.SubmitProduct()
}

func (s *interactive) profileForm(v *dashboard.View) error {
	f := v.Snapshot().Profile
	var err error

	ask := func(label string, cur *string) {
		if err == nil {
			*cur, err = s.askDefault(label, *cur)
		}
	}
	ask("Name", &f.Name)
	ask("Store name", &f.StoreName)
	ask("Store description", &f.StoreDescription)
	ask("Store location", &f.StoreLocation)
	ask("WhatsApp", &f.WhatsApp)
	ask("Instagram", &f.Instagram)
	if err != nil {
		return err
	}

	v.EditProfile(func(form *dashboard.ProfileForm) { *form = f })
	return v.SubmitProfile()
}

func (s *interactive) contact(name string, args []string) error {
	f := s.sh.Contact()
	if f == nil {
		return errors.New("the contact form is on the about and help pages")
	}

	var err error
	if name == "subscribe" {
		if len(args) != 1 {
			return errUsage
		}
		err = f.Subscribe(args[0])
	} else {
		email, aerr := s.a.ask("Your email: ")
		if aerr != nil {
			return aerr
		}
		msg, aerr := s.a.ask("Message: ")
		if aerr != nil {
			return aerr
		}
		err = f.Send(email, msg)
	}
	if err != nil {
		return err
	}
	s.r.notice(f.Snapshot().Notice)
	return nil
}

func (s *interactive) askDefault(label, def string) (string, error) {
	prompt := label + ": "
	if def != "" {
		prompt = fmt.Sprintf("%s [%s]: ", label, def)
	}
	answer, err := s.a.ask(prompt)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// index parses a 1-based row number.
func index(args []string, n int) (int, error) {
	if len(args) != 1 {
		return 0, errUsage
	}
	i, err := strconv.Atoi(args[0])
	if err != nil || i < 1 || i > n {
		return 0, fmt.Errorf("pick a row between 1 and %d", n)
	}
	return i - 1, nil
}

func (s *interactive) printHelp() {
	s.r.printf(`Anywhere:
  go <home|login|signup|dashboard|about|help>   switch page
  whoami | logout | stats | exit
Home:       category <name> | search <text> | refresh | open <n>
Login:      login [email] | toggle | forgot [email] | back
Signup:     signup | code <otp> | toggle | back
Product:    whatsapp | rate <1-5> [comment] | back
Dashboard:  tab <products|add|profile> | reload | add | edit <n> | delete <n> | profile
About/Help: subscribe <email> | contact-us
`)
}
