package main

import (
	"github.com/geocoder89/marketlink/internal/domain/user"
	"github.com/geocoder89/marketlink/internal/views/dashboard"
	"github.com/geocoder89/marketlink/internal/views/detail"
	"github.com/spf13/cobra"
)

func newUsersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user", "sellers"},
		Short:   "Browse sellers and buyers",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List all users",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				list, err := a.client.ListUsers(cmd.Context())
				if err != nil {
					return err
				}
				return a.render().users(list)
			},
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show one user",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				u, err := a.client.GetUser(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if u == nil {
					return user.ErrNotFound
				}
				return a.render().user(*u)
			},
		},
	)
	return cmd
}

func newProfileCmd(a *app) *cobra.Command {
	var form dashboard.ProfileForm

	update := &cobra.Command{
		Use:   "update",
		Short: "Update your name, storefront and contact handles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			me, err := a.me(ctx)
			if err != nil {
				return err
			}

			fs := cmd.Flags()
			v := dashboard.New(ctx, a.client, *me)
			v.EditProfile(func(f *dashboard.ProfileForm) {
				if fs.Changed("name") {
					f.Name = form.Name
				}
				if fs.Changed("store-name") {
					f.StoreName = form.StoreName
				}
				if fs.Changed("store-description") {
					f.StoreDescription = form.StoreDescription
				}
				if fs.Changed("store-location") {
					f.StoreLocation = form.StoreLocation
				}
				if fs.Changed("whatsapp") {
					f.WhatsApp = form.WhatsApp
				}
				if fs.Changed("instagram") {
					f.Instagram = form.Instagram
				}
			})

			if err := v.SubmitProfile(); err != nil {
				return err
			}
			s := v.Snapshot()
			if !a.asJSON {
				a.render().notice(s.Notice)
			}
			return a.render().user(s.Me)
		},
	}

	fs := update.Flags()
	fs.StringVar(&form.Name, "name", "", "display name")
	fs.StringVar(&form.StoreName, "store-name", "", "storefront name")
	fs.StringVar(&form.StoreDescription, "store-description", "", "storefront description")
	fs.StringVar(&form.StoreLocation, "store-location", "", "storefront location")
	fs.StringVar(&form.WhatsApp, "whatsapp", "", "WhatsApp number buyers can message")
	fs.StringVar(&form.Instagram, "instagram", "", "Instagram handle")

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage your profile",
	}
	cmd.AddCommand(update)
	return cmd
}

func newRateCmd(a *app) *cobra.Command {
	var rating int
	var comment string

	cmd := &cobra.Command{
		Use:   "rate <seller-id>",
		Short: "Rate a seller from 1 to 5",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			me, err := a.client.CurrentUser(ctx)
			if err != nil {
				return err
			}
			if me == nil {
				return detail.ErrNotLoggedIn
			}
			if rating == 0 {
				return detail.ErrNoRating
			}

			updated, err := a.client.RateSeller(ctx, args[0], user.RateRequest{
				RaterID:   me.ID,
				RaterName: me.Name,
				Rating:    rating,
				Comment:   comment,
			})
			if err != nil {
				return err
			}
			if !a.asJSON {
				a.render().notice("Thanks for rating!")
			}
			return a.render().user(*updated)
		},
	}

	cmd.Flags().IntVarP(&rating, "rating", "r", 0, "1 to 5 stars")
	cmd.Flags().StringVarP(&comment, "comment", "m", "", "optional comment")
	return cmd
}
