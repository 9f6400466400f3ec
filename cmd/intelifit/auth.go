package intelifit

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bthaas/intelifit/internal/provider/identity"
	"github.com/bthaas/intelifit/internal/store"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Sign up, sign in and manage your account",
}

var (
	authUsername string
	authPassword string
	authEmail    string
	authName     string
	authCode     string
)

// withIdentity resolves configuration and runs against the identity endpoint
// without touching the database.
func withIdentity(cmd *cobra.Command, run func(*identity.Client) error) error {
	_, cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	return run(newIdentityClient(cfg))
}

var authSignupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account; a confirmation code is emailed",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withIdentity(cmd, func(c *identity.Client) error {
			in := identity.SignUpInput{Username: authUsername, Password: authPassword, Email: authEmail, Name: authName}
			if err := c.SignUp(cmd.Context(), in); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account created for %s; check %s for the confirmation code\n", authUsername, authEmail)
			return nil
		})
	},
}

var authConfirmCmd = &cobra.Command{
	Use:   "confirm",
	Short: "Confirm an account with the emailed code",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withIdentity(cmd, func(c *identity.Client) error {
			if err := c.ConfirmSignUp(cmd.Context(), authUsername, authCode); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account %s confirmed\n", authUsername)
			return nil
		})
	},
}

var authResendCmd = &cobra.Command{
	Use:   "resend",
	Short: "Send a new confirmation code",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withIdentity(cmd, func(c *identity.Client) error {
			if err := c.ResendCode(cmd.Context(), authUsername); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Confirmation code sent for %s\n", authUsername)
			return nil
		})
	},
}

var authForgotCmd = &cobra.Command{
	Use:   "forgot",
	Short: "Request a password reset code",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withIdentity(cmd, func(c *identity.Client) error {
			if err := c.ForgotPassword(cmd.Context(), authUsername); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Password reset code sent for %s\n", authUsername)
			return nil
		})
	},
}

var authResetCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Set a new password with a reset code",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withIdentity(cmd, func(c *identity.Client) error {
			if err := c.ConfirmForgotPassword(cmd.Context(), authUsername, authCode, authPassword); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Password updated for %s\n", authUsername)
			return nil
		})
	},
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and switch to the matching profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(cmd, func(e *env) error {
			ctx := cmd.Context()
			tokens, err := e.identityClient().SignIn(ctx, authUsername, authPassword)
			if err != nil {
				return err
			}
			claims, err := identity.ParseIDToken(tokens.ID)
			if err != nil {
				return err
			}
			for key, value := range map[string]string{
				store.ConfigAccessToken:  tokens.Access,
				store.ConfigRefreshToken: tokens.Refresh,
				store.ConfigIDToken:      tokens.ID,
			} {
				if err := e.store.SetConfig(ctx, key, value); err != nil {
					return err
				}
			}

			u, err := e.tracker.UseProfile(ctx, claims.Subject)
			switch {
			case errors.Is(err, store.ErrNotFound):
				fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s; run `intelifit profile create` to finish setup\n", claims.Email)
				return nil
			case err != nil:
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", u.Name, u.Email)
			return nil
		})
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTracker(cmd, func(e *env) error {
			if err := e.store.DeleteConfig(cmd.Context(), store.ConfigAccessToken, store.ConfigRefreshToken, store.ConfigIDToken); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		})
	},
}

// sessionClaims returns the claims of the stored ID token, if a session exists.
func sessionClaims(ctx context.Context, s *store.Store) (identity.Claims, bool, error) {
	raw, ok, err := s.GetConfig(ctx, store.ConfigIDToken)
	if err != nil || !ok || raw == "" {
		return identity.Claims{}, false, err
	}
	claims, err := identity.ParseIDToken(raw)
	if err != nil {
		return identity.Claims{}, false, err
	}
	return claims, true, nil
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authSignupCmd, authConfirmCmd, authResendCmd, authForgotCmd, authResetCmd, authLoginCmd, authLogoutCmd)

	for _, c := range []*cobra.Command{authSignupCmd, authConfirmCmd, authResendCmd, authForgotCmd, authResetCmd, authLoginCmd} {
		c.Flags().StringVar(&authUsername, "username", "", "Account username")
		_ = c.MarkFlagRequired("username")
	}
	for _, c := range []*cobra.Command{authSignupCmd, authLoginCmd} {
		c.Flags().StringVar(&authPassword, "password", "", "Account password")
		_ = c.MarkFlagRequired("password")
	}
	authResetCmd.Flags().StringVar(&authPassword, "password", "", "New password")
	_ = authResetCmd.MarkFlagRequired("password")
	for _, c := range []*cobra.Command{authConfirmCmd, authResetCmd} {
		c.Flags().StringVar(&authCode, "code", "", "Code from the email")
		_ = c.MarkFlagRequired("code")
	}
	authSignupCmd.Flags().StringVar(&authEmail, "email", "", "Email address")
	_ = authSignupCmd.MarkFlagRequired("email")
	authSignupCmd.Flags().StringVar(&authName, "name", "", "Display name")
}
