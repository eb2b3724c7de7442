package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/geocoder89/marketlink/internal/api"
	"github.com/geocoder89/marketlink/internal/domain/product"
	"github.com/geocoder89/marketlink/internal/views/dashboard"
	"github.com/geocoder89/marketlink/internal/views/detail"
	"github.com/geocoder89/marketlink/internal/views/feed"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newProductsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"product", "p"},
		Short:   "Browse and manage listings",
	}
	cmd.AddCommand(
		newProductsListCmd(a),
		newProductsShowCmd(a),
		newProductsAddCmd(a),
		newProductsUpdateCmd(a),
		newProductsDeleteCmd(a),
	)
	return cmd
}

func newProductsListCmd(a *app) *cobra.Command {
	var category, search, sellerID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products by category and search text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if sellerID != "" {
				list, err := a.client.ListProducts(ctx, product.ListProductsFilter{
					Category: category, Search: search, SellerID: sellerID,
				})
				if err != nil {
					return err
				}
				return a.render().products(list)
			}

			v := feed.New(ctx, a.client, feed.NewDirectory(time.Minute))
			if err := v.SetCategory(category); err != nil {
				return fmt.Errorf("%w %q", err, category)
			}
			v.SetSearch(search)
			if err := v.Load(); err != nil {
				return err
			}
			return a.render().feed(v.Snapshot())
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", product.CategoryAll, "category or All")
	cmd.Flags().StringVarP(&search, "search", "s", "", "free-text search")
	cmd.Flags().StringVar(&sellerID, "seller", "", "only this seller's products")
	return cmd
}

// findProduct resolves id from the listing; the API has no single-product read.
func findProduct(ctx context.Context, client *api.Client, id string) (product.Product, error) {
	list, err := client.ListProducts(ctx, product.ListProductsFilter{})
	if err != nil {
		return product.Product{}, err
	}
	for _, p := range list {
		if p.ID == id {
			return p, nil
		}
	}
	return product.Product{}, product.ErrNotFound
}

func newProductsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a product with its seller and WhatsApp link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			p, err := findProduct(ctx, a.client, args[0])
			if err != nil {
				return err
			}

			v := detail.New(ctx, a.client, p, a.cfg.Brand)
			if err := v.Load(); err != nil {
				return err
			}
			link, linkErr := v.ContactLink()
			return a.render().detail(v.Snapshot(), link, linkErr)
		},
	}
}

// draftFlags are the product form fields shared by add and update.
type draftFlags struct {
	title, price, category, condition, description, location string
	images                                                   []string
}

func (f *draftFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&f.title, "title", "", "title")
	fs.StringVar(&f.price, "price", "", "price in naira")
	fs.StringVar(&f.category, "category", product.Categories[0], "category")
	fs.StringVar(&f.condition, "condition", string(product.ConditionNew), "New, Used or Refurbished")
	fs.StringVar(&f.description, "description", "", "description")
	fs.StringVar(&f.location, "location", "", "where the item is")
	fs.StringArrayVar(&f.images, "image", nil, "image file or URL (repeatable)")
}

// apply copies the flags that were set into the draft. With onlyChanged,
// untouched flags keep the draft's current values.
func (f *draftFlags) apply(v *dashboard.View, fs *pflag.FlagSet, onlyChanged bool) error {
	set := func(name string) bool { return !onlyChanged || fs.Changed(name) }

	v.EditDraft(func(d *dashboard.Draft) {
		if set("title") {
			d.Title = f.title
		}
		if set("price") {
			d.Price = f.price
		}
		if set("category") {
			d.Category = f.category
		}
		if set("condition") {
			d.Condition = product.Condition(f.condition)
		}
		if set("description") {
			d.Description = f.description
		}
		if set("location") {
			d.Location = f.location
		}
	})

	for _, ref := range f.images {
		if _, err := os.Stat(ref); err == nil {
			if err := v.AddImageFile(ref); err != nil {
				return fmt.Errorf("%s: %w", ref, err)
			}
			continue
		}
		v.AddImage(ref)
	}
	return nil
}

// sellerDashboard opens the dashboard for the logged-in seller with their
// products loaded.
func (a *app) sellerDashboard(ctx context.Context) (*dashboard.View, error) {
	me, err := a.me(ctx)
	if err != nil {
		return nil, err
	}
	v := dashboard.New(ctx, a.client, *me)
	if err := v.Reload(); err != nil {
		return nil, err
	}
	return v, nil
}

func newProductsAddCmd(a *app) *cobra.Command {
	var f draftFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "List a new product (sellers only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := a.sellerDashboard(cmd.Context())
			if err != nil {
				return err
			}
			if err := f.apply(v, cmd.Flags(), false); err != nil {
				return err
			}
			if err := v.SubmitProduct(); err != nil {
				return err
			}
			return a.render().dashboard(v.Snapshot())
		},
	}
	f.bind(cmd.Flags())
	return cmd
}

func newProductsUpdateCmd(a *app) *cobra.Command {
	var f draftFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit one of your products; only the given flags change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.sellerDashboard(cmd.Context())
			if err != nil {
				return err
			}
			if err := v.StartEdit(args[0]); err != nil {
				return err
			}
			if err := f.apply(v, cmd.Flags(), true); err != nil {
				return err
			}
			if err := v.SubmitProduct(); err != nil {
				return err
			}
			return a.render().dashboard(v.Snapshot())
		},
	}
	f.bind(cmd.Flags())
	return cmd
}

func newProductsDeleteCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one of your products",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.sellerDashboard(cmd.Context())
			if err != nil {
				return err
			}

			err = v.Delete(args[0], func(p product.Product) bool {
				return yes || a.confirm(fmt.Sprintf("Delete %q?", p.Title))
			})
			if err != nil {
				return err
			}
			return a.render().message(v.Snapshot().Notice)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
