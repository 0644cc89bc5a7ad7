package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crucial707/timetable-api/cmd/cli/client"
	"github.com/crucial707/timetable-api/cmd/cli/config"
	"github.com/crucial707/timetable-api/internal/models"
)

// InitAuth registers login, logout, refresh and register on the root command.
func InitAuth(rootCmd *cobra.Command) {
	rootCmd.AddCommand(loginCmd(), logoutCmd(), refreshCmd(), registerCmd())
}

// loginCmd creates a command that logs in a user and stores the JWT token locally.
func loginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the Timetable API",
		Long:  "Authenticate with the Timetable API and store a JWT token for subsequent CLI commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return errors.New("--email is required")
			}
			if password == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Password: ")
				fmt.Fscanln(cmd.InOrStdin(), &password)
				password = strings.TrimSpace(password)
			}

			var loginResp struct {
				Token string      `json:"token"`
				User  models.User `json:"user"`
			}
			payload := map[string]string{"email": email, "password": password}
			if err := client.New().Do(cmd.Context(), http.MethodPost, "/auth/login", nil, payload, &loginResp); err != nil {
				return fmt.Errorf("failed to login: %w", err)
			}
			if loginResp.Token == "" {
				return errors.New("login succeeded but no token returned")
			}
			if err := config.SaveToken(loginResp.Token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s). Token stored locally.\n", loginResp.User.Email, loginResp.User.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "E-mail address to authenticate as")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and remove the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if errors.Is(err, config.ErrNoToken) {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
				return nil
			}
			if err != nil {
				return err
			}
			// An expired token still gets cleared locally.
			if err := c.Do(cmd.Context(), http.MethodPost, "/auth/logout", nil, nil, nil); err != nil {
				var apiErr *client.APIError
				if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
					return err
				}
			}
			if err := config.ClearToken(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

// refreshCmd swaps the stored token for a fresh one before it expires.
func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Renew the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			var resp struct {
				Token string      `json:"token"`
				User  models.User `json:"user"`
			}
			if err := c.Do(cmd.Context(), http.MethodPost, "/auth/refresh", nil, nil, &resp); err != nil {
				return fmt.Errorf("failed to refresh token: %w", err)
			}
			if err := config.SaveToken(resp.Token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token renewed for %s (%s).\n", resp.User.Email, resp.User.Role)
			return nil
		},
	}
}

func registerCmd() *cobra.Command {
	var in models.UserInput

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create your own account (student, teacher or coordinator)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var user models.User
			if err := client.New().Do(cmd.Context(), http.MethodPost, "/auth/register", nil, in, &user); err != nil {
				return fmt.Errorf("failed to register: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s with id %s.\n", user.Email, user.ID.Hex())
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "E-mail address")
	cmd.Flags().StringVar(&in.Password, "password", "", "Password (at least 8 characters)")
	cmd.Flags().StringVar(&in.Role, "role", models.RoleStudent, "Role: student, teacher or coordinator")
	cmd.Flags().StringVar(&in.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&in.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&in.Department, "department", "", "Department id (required for coordinators)")
	return cmd
}
