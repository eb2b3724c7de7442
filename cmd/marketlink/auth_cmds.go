package main

import (
	"strings"
	"time"

	"github.com/geocoder89/marketlink/internal/auth"
	"github.com/geocoder89/marketlink/internal/domain/user"
	"github.com/spf13/cobra"
)

func parseRole(raw string) user.Role {
	return user.Role(strings.ToUpper(strings.TrimSpace(raw)))
}

func newSignupCmd(a *app) *cobra.Command {
	var req user.SignupRequest
	var role string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account; a verification code is emailed to you",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req.Role = parseRole(role)
			if req.Password == "" {
				pw, err := a.askSecret("Password: ")
				if err != nil {
					return err
				}
				req.Password = pw
			}

			ack, err := a.client.Signup(cmd.Context(), req)
			if err != nil {
				return err
			}

			if a.asJSON {
				return a.render().json(ack)
			}
			a.render().notice(ack.Message)
			a.render().printf("Enter the code with: marketlink verify --email %s --code <code>\n", ack.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "full name")
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "password (prompted when omitted)")
	cmd.Flags().StringVar(&role, "role", string(user.RoleBuyer), "BUYER or SELLER")
	return cmd
}

func newVerifyCmd(a *app) *cobra.Command {
	var email, code string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Confirm your email with the one-time code and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.client.VerifyCode(cmd.Context(), email, code)
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.render().json(res.User)
			}
			a.render().notice("Welcome, " + res.User.Name)
			return a.render().user(res.User)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email the code was sent to")
	cmd.Flags().StringVar(&code, "code", "", "6-digit code")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				pw, err := a.askSecret("Password: ")
				if err != nil {
					return err
				}
				password = pw
			}

			res, err := a.client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.render().json(res.User)
			}
			a.render().notice("Welcome back, " + res.User.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.client.Logout(cmd.Context()); err != nil {
				return err
			}
			return a.render().message("Logged out")
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			u, err := a.sess.CurrentUser(ctx)
			if err != nil {
				return err
			}
			if u == nil {
				return a.render().message("Not logged in")
			}
			if err := a.render().user(*u); err != nil {
				return err
			}
			if a.asJSON {
				return nil
			}

			token, err := a.sess.Token(ctx)
			if err != nil {
				return err
			}
			// opaque tokens are fine; only JWTs carry an expiry we can show
			if claims, err := auth.Peek(token); err == nil && claims.ExpiresAt != nil {
				left := time.Until(claims.ExpiresAt.Time).Round(time.Minute)
				if left <= 0 {
					a.render().problem("Session token has expired; log in again.")
				} else {
					a.render().printf("Session expires in %s\n", left)
				}
			}
			return nil
		},
	}
}
