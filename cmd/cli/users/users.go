package users

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/crucial707/timetable-api/cmd/cli/client"
	"github.com/crucial707/timetable-api/cmd/cli/output"
	"github.com/crucial707/timetable-api/internal/models"
)

// ==========================
// CLI Command Init
// ==========================
func InitUsers(rootCmd *cobra.Command) {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts (admin)",
	}
	usersCmd.AddCommand(listUsersCmd(), setActiveCmd("activate", true), setActiveCmd("deactivate", false))
	rootCmd.AddCommand(usersCmd)
}

// ==========================
// List Users
// ==========================
func listUsersCmd() *cobra.Command {
	var limit, offset int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			q := url.Values{}
			q.Set("limit", strconv.Itoa(limit))
			q.Set("offset", strconv.Itoa(offset))

			var page client.Page[models.User]
			if err := c.Do(cmd.Context(), http.MethodGet, "/users", q, nil, &page); err != nil {
				return err
			}
			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), page)
			}

			rows := make([][]interface{}, 0, len(page.Items))
			for _, u := range page.Items {
				rows = append(rows, []interface{}{u.ID.Hex(), u.Email, u.Role, u.FirstName + " " + u.LastName, u.IsActive})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Email", "Role", "Name", "Active"}, rows)
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d users\n", len(page.Items), page.Total)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Page size (max 100)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of users to skip")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON")
	return cmd
}

// ==========================
// Activate / Deactivate
// ==========================
func setActiveCmd(use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [id]",
		Short: use + " a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			var user models.User
			payload := map[string]bool{"isActive": active}
			if err := c.Do(cmd.Context(), http.MethodPatch, "/users/"+url.PathEscape(args[0])+"/active", nil, payload, &user); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s active=%t\n", user.Email, user.IsActive)
			return nil
		},
	}
}
