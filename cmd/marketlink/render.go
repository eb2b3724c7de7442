package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/geocoder89/marketlink/internal/domain/product"
	"github.com/geocoder89/marketlink/internal/domain/user"
	"github.com/geocoder89/marketlink/internal/observability"
	"github.com/geocoder89/marketlink/internal/views/dashboard"
	"github.com/geocoder89/marketlink/internal/views/detail"
	"github.com/geocoder89/marketlink/internal/views/feed"
	"github.com/geocoder89/marketlink/internal/views/pages"
	"github.com/geocoder89/marketlink/internal/views/wizard"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var numbers = message.NewPrinter(language.English)

// naira formats a price the way listings show it: ₦12,500.
func naira(price float64) string {
	if price == math.Trunc(price) {
		return numbers.Sprintf("₦%d", int64(price))
	}
	return numbers.Sprintf("₦%.2f", price)
}

type renderer struct {
	out    io.Writer
	asJSON bool
}

func (r renderer) json(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r renderer) newTable(header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(header)
	return t
}

func (r renderer) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

func (r renderer) notice(msg string) {
	if msg == "" {
		return
	}
	fmt.Fprintln(r.out, text.FgGreen.Sprint(msg))
}

func (r renderer) problem(msg string) {
	if msg == "" {
		return
	}
	fmt.Fprintln(r.out, text.FgRed.Sprint(msg))
}

func (r renderer) fieldErrors(fields map[string]string) {
	for name, msg := range fields {
		r.problem(name + ": " + msg)
	}
}

func stars(rating float64, reviews int) string {
	if reviews == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f (%d)", rating, reviews)
}

func (r renderer) feed(s feed.Snapshot) error {
	if r.asJSON {
		return r.json(s.Items)
	}

	r.printf("Category: %s", s.Category)
	if s.Search != "" {
		r.printf("  Search: %q", s.Search)
	}
	r.printf("\n")

	if s.Error != "" {
		r.problem(s.Error)
	}
	if s.Empty {
		r.printf("No products found.\n")
		return nil
	}

	t := r.newTable(table.Row{"#", "Title", "Price", "Category", "Condition", "Seller", "Rating", "Location"})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, WidthMax: 36}})
	for i, it := range s.Items {
		seller := it.StoreName
		if seller == "" {
			seller = it.SellerName
		}
		t.AppendRow(table.Row{
			i + 1,
			it.Product.Title,
			naira(it.Product.Price),
			it.Product.Category,
			it.Product.Condition,
			seller,
			stars(it.SellerRating, it.ReviewCount),
			it.Product.Location,
		})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d products", len(s.Items))})
	t.Render()
	return nil
}

func (r renderer) products(list []product.Product) error {
	if r.asJSON {
		return r.json(list)
	}

	t := r.newTable(table.Row{"ID", "Title", "Price", "Category", "Condition", "Views"})
	for _, p := range list {
		t.AppendRow(table.Row{p.ID, p.Title, naira(p.Price), p.Category, p.Condition, p.Views})
	}
	t.Render()
	return nil
}

func (r renderer) product(p product.Product) error {
	if r.asJSON {
		return r.json(p)
	}

	t := r.newTable(table.Row{"Field", "Value"})
	t.AppendRows([]table.Row{
		{"ID", p.ID},
		{"Title", p.Title},
		{"Price", naira(p.Price)},
		{"Category", p.Category},
		{"Condition", p.Condition},
		{"Location", p.Location},
		{"Images", len(p.Images)},
		{"Views", p.Views},
	})
	t.Render()
	if p.Description != "" {
		r.printf("\n%s\n", p.Description)
	}
	return nil
}

func (r renderer) dashboard(s dashboard.Snapshot) error {
	if r.asJSON {
		return r.json(s)
	}

	r.printf("%s - %s (%s)  tab: %s\n", s.Me.DisplayStore(), s.Me.Name, s.Me.Role, s.Tab)
	r.problem(s.Error)
	r.fieldErrors(s.FieldErrors)
	r.notice(s.Notice)

	switch s.Tab {
	case dashboard.TabProducts:
		if len(s.Rows) == 0 {
			r.printf("You have no products yet.\n")
			return nil
		}
		t := r.newTable(table.Row{"#", "Title", "Price", "Category", "Condition", ""})
		for i, row := range s.Rows {
			state := ""
			if row.PendingRemoval {
				state = "deleting..."
			}
			t.AppendRow(table.Row{i + 1, row.Product.Title, naira(row.Product.Price), row.Product.Category, row.Product.Condition, state})
		}
		t.Render()
	case dashboard.TabAdd:
		d := s.Draft
		if s.EditingID != "" {
			r.printf("Editing %s\n", s.EditingID)
		}
		t := r.newTable(table.Row{"Field", "Value"})
		t.AppendRows([]table.Row{
			{"Title", d.Title},
			{"Price", d.Price},
			{"Category", d.Category},
			{"Condition", d.Condition},
			{"Location", d.Location},
			{"Description", d.Description},
			{"Images", len(d.Images)},
		})
		t.Render()
	case dashboard.TabProfile:
		f := s.Profile
		t := r.newTable(table.Row{"Field", "Value"})
		t.AppendRows([]table.Row{
			{"Name", f.Name},
			{"Store", f.StoreName},
			{"Store description", f.StoreDescription},
			{"Store location", f.StoreLocation},
			{"WhatsApp", f.WhatsApp},
			{"Instagram", f.Instagram},
		})
		t.Render()
	}
	return nil
}

func (r renderer) detail(s detail.Snapshot, link string, linkErr error) error {
	if r.asJSON {
		out := struct {
			Product  product.Product `json:"product"`
			Seller   *user.User      `json:"seller,omitempty"`
			IsOwner  bool            `json:"isOwner"`
			WhatsApp string          `json:"whatsapp,omitempty"`
		}{s.Product, s.Seller, s.IsOwner, link}
		return r.json(out)
	}

	if err := r.product(s.Product); err != nil {
		return err
	}
	r.problem(s.Error)

	if s.Seller != nil {
		r.printf("\nSold by %s  rating %s\n", s.Seller.DisplayStore(), stars(s.Seller.Rating, s.Seller.ReviewCount))
		for _, rv := range s.Seller.Reviews {
			r.printf("  %d/5 %s: %s\n", rv.Rating, rv.RaterName, rv.Comment)
		}
	}
	if s.IsOwner {
		r.printf("This is your listing.\n")
	}

	if linkErr != nil {
		r.problem(detail.Message(linkErr))
	} else {
		r.printf("Chat on WhatsApp: %s\n", link)
	}
	r.problem(s.RateErr)
	if s.RateDone {
		r.notice("Thanks for rating!")
	}
	return nil
}

var wizardHints = map[wizard.State]string{
	wizard.StateLogin:          "login | toggle | forgot",
	wizard.StateSignup:         "signup | toggle",
	wizard.StateOTPPending:     "code <6 digits> | back",
	wizard.StateForgotPassword: "forgot <email> | back",
}

func (r renderer) wizard(s wizard.Snapshot) error {
	if r.asJSON {
		return r.json(s)
	}

	if s.Done {
		return nil
	}
	r.printf("%s\n", text.Bold.Sprint(strings.ToUpper(string(s.State))))
	if s.State == wizard.StateOTPPending {
		r.printf("We sent a 6-digit code to %s.\n", s.PendingEmail)
	}
	r.notice(s.Notice)
	r.problem(s.Error)
	r.fieldErrors(s.FieldErrors)
	r.printf("commands: %s\n", wizardHints[s.State])
	return nil
}

func (r renderer) users(list []user.User) error {
	if r.asJSON {
		return r.json(list)
	}

	t := r.newTable(table.Row{"ID", "Name", "Role", "Store", "Rating"})
	for _, u := range list {
		t.AppendRow(table.Row{u.ID, u.Name, u.Role, u.DisplayStore(), stars(u.Rating, u.ReviewCount)})
	}
	t.Render()
	return nil
}

func (r renderer) user(u user.User) error {
	if r.asJSON {
		return r.json(u)
	}

	t := r.newTable(table.Row{"Field", "Value"})
	t.AppendRows([]table.Row{
		{"ID", u.ID},
		{"Name", u.Name},
		{"Email", u.Email},
		{"Role", u.Role},
		{"Store", u.DisplayStore()},
		{"WhatsApp", u.WhatsApp()},
		{"Rating", stars(u.Rating, u.ReviewCount)},
	})
	t.Render()
	return nil
}

func (r renderer) sections(list []pages.Section) error {
	if r.asJSON {
		return r.json(list)
	}
	for _, s := range list {
		r.printf("%s\n%s\n\n", text.Bold.Sprint(s.Title), s.Body)
	}
	return nil
}

func (r renderer) questions(list []pages.Question) error {
	if r.asJSON {
		return r.json(list)
	}
	for _, q := range list {
		r.printf("%s\n  %s\n\n", text.Bold.Sprint(q.Q), q.A)
	}
	return nil
}

func (r renderer) stats(rows []observability.CallStat) error {
	if r.asJSON {
		return r.json(rows)
	}

	t := r.newTable(table.Row{"Operation", "Status", "Calls"})
	var total uint64
	for _, row := range rows {
		t.AppendRow(table.Row{row.Op, row.Status, row.Count})
		total += row.Count
	}
	t.AppendFooter(table.Row{"", "total", total})
	t.Render()
	return nil
}

func (r renderer) message(msg string) error {
	if r.asJSON {
		return r.json(map[string]string{"message": msg})
	}
	r.printf("%s\n", strings.TrimSpace(msg))
	return nil
}
