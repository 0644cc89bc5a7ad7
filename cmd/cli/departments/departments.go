package departments

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
// Init Departments
// ==========================
func InitDepartments(rootCmd *cobra.Command) {
	departmentsCmd := &cobra.Command{
		Use:     "departments",
		Aliases: []string{"depts"},
		Short:   "Manage departments",
	}
	departmentsCmd.AddCommand(listDepartmentsCmd(), createDepartmentCmd(), deleteDepartmentCmd())
	rootCmd.AddCommand(departmentsCmd)
}

// ==========================
// LIST
// ==========================
func listDepartmentsCmd() *cobra.Command {
	var limit, offset int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List departments",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			q := url.Values{}
			q.Set("limit", strconv.Itoa(limit))
			q.Set("offset", strconv.Itoa(offset))

			var page client.Page[models.Department]
			if err := c.Do(cmd.Context(), http.MethodGet, "/departments", q, nil, &page); err != nil {
				return err
			}
			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), page)
			}

			rows := make([][]interface{}, 0, len(page.Items))
			for _, d := range page.Items {
				hod := ""
				if d.HOD != nil {
					hod = d.HOD.Hex()
				}
				rows = append(rows, []interface{}{d.ID.Hex(), d.Code, d.Name, hod})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Code", "Name", "HOD"}, rows)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Page size (max 100)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of departments to skip")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON")
	return cmd
}

// ==========================
// CREATE
// ==========================
func createDepartmentCmd() *cobra.Command {
	var name, code, hod, description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a department",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			in := models.DepartmentInput{Name: &name, Code: &code}
			if hod != "" {
				in.HOD = &hod
			}
			if description != "" {
				in.Description = &description
			}

			var dept models.Department
			if err := c.Do(cmd.Context(), http.MethodPost, "/departments", nil, in, &dept); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created department %s (%s)\n", dept.Code, dept.ID.Hex())
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Department name")
	cmd.Flags().StringVar(&code, "code", "", "Department code")
	cmd.Flags().StringVar(&hod, "hod", "", "Head of department user id (must be a teacher)")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	return cmd
}

// ==========================
// DELETE
// ==========================
func deleteDepartmentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a department with no subjects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			if err := c.Do(cmd.Context(), http.MethodDelete, "/departments/"+url.PathEscape(args[0]), nil, nil, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Department deleted")
			return nil
		},
	}
}
