package main

import (
	"github.com/geocoder89/marketlink/internal/views/pages"
	"github.com/spf13/cobra"
)

func newContactCmd(a *app) *cobra.Command {
	var email, msg string

	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Send a message to the marketplace team",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := pages.NewContactForm(cmd.Context(), a.client)
			if err := f.Send(email, msg); err != nil {
				return err
			}
			return a.render().message(f.Snapshot().Notice)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "your email")
	cmd.Flags().StringVarP(&msg, "message", "m", "", "message")
	return cmd
}

func newSubscribeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "subscribe <email>",
		Short: "Sign up for the newsletter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := pages.NewContactForm(cmd.Context(), a.client)
			if err := f.Subscribe(args[0]); err != nil {
				return err
			}
			return a.render().message(f.Snapshot().Notice)
		},
	}
}

func newAboutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "about",
		Short: "About the marketplace",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return a.render().sections(pages.About(a.cfg.Brand))
		},
	}
}

func newHelpCenterCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "help-center",
		Short: "Frequently asked questions",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return a.render().questions(pages.Help(a.cfg.Brand))
		},
	}
}
