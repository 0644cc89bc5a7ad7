package subjects

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
// Init Subjects
// ==========================
func InitSubjects(rootCmd *cobra.Command) {
	subjectsCmd := &cobra.Command{
		Use:   "subjects",
		Short: "Manage catalog subjects",
	}
	subjectsCmd.AddCommand(listSubjectsCmd(), createSubjectCmd(), deleteSubjectCmd())
	rootCmd.AddCommand(subjectsCmd)
}

// ==========================
// LIST
// ==========================
func listSubjectsCmd() *cobra.Command {
	var department, electiveGroup, isLab string
	var semester, limit, offset int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List subjects",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			q := url.Values{}
			if department != "" {
				q.Set("department", department)
			}
			if semester > 0 {
				q.Set("semester", strconv.Itoa(semester))
			}
			if isLab != "" {
				q.Set("isLab", isLab)
			}
			if electiveGroup != "" {
				q.Set("electiveGroup", electiveGroup)
			}
			q.Set("limit", strconv.Itoa(limit))
			q.Set("offset", strconv.Itoa(offset))

			var page client.Page[models.Subject]
			if err := c.Do(cmd.Context(), http.MethodGet, "/subjects", q, nil, &page); err != nil {
				return err
			}
			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), page)
			}

			rows := make([][]interface{}, 0, len(page.Items))
			for _, s := range page.Items {
				rows = append(rows, []interface{}{s.ID.Hex(), s.Code, s.Name, s.Semester, s.Credits, s.HoursPerWeek, s.IsLab, s.ElectiveGroup})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Code", "Name", "Sem", "Credits", "Hours", "Lab", "Elective"}, rows)
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d subjects\n", len(page.Items), page.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&department, "department", "", "Filter by department id")
	cmd.Flags().IntVar(&semester, "semester", 0, "Filter by semester (1-8)")
	cmd.Flags().StringVar(&isLab, "lab", "", "Filter by lab flag (true/false)")
	cmd.Flags().StringVar(&electiveGroup, "elective-group", "", "Filter by elective group")
	cmd.Flags().IntVar(&limit, "limit", 10, "Page size (max 100)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of subjects to skip")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON")
	return cmd
}

// ==========================
// CREATE
// ==========================
func createSubjectCmd() *cobra.Command {
	var code, name, department, electiveGroup string
	var semester, credits, hours int
	var isLab bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a subject",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			in := models.SubjectInput{
				Code:       &code,
				Name:       &name,
				Department: &department,
				IsLab:      &isLab,
			}
			// Unset numeric flags are left out so the API reports them as required.
			if cmd.Flags().Changed("semester") {
				in.Semester = &semester
			}
			if cmd.Flags().Changed("credits") {
				in.Credits = &credits
			}
			if cmd.Flags().Changed("hours") {
				in.HoursPerWeek = &hours
			}
			if electiveGroup != "" {
				in.ElectiveGroup = &electiveGroup
			}

			var subject models.Subject
			if err := c.Do(cmd.Context(), http.MethodPost, "/subjects", nil, in, &subject); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created subject %s (%s)\n", subject.Code, subject.ID.Hex())
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Subject code")
	cmd.Flags().StringVar(&name, "name", "", "Subject name")
	cmd.Flags().StringVar(&department, "department", "", "Department id")
	cmd.Flags().IntVar(&semester, "semester", 0, "Semester (1-8)")
	cmd.Flags().IntVar(&credits, "credits", 0, "Credits (1-5)")
	cmd.Flags().IntVar(&hours, "hours", 0, "Hours per week (1-6)")
	cmd.Flags().BoolVar(&isLab, "lab", false, "Subject is a lab")
	cmd.Flags().StringVar(&electiveGroup, "elective-group", "", "Elective group")
	return cmd
}

// ==========================
// DELETE
// ==========================
func deleteSubjectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			if err := c.Do(cmd.Context(), http.MethodDelete, "/subjects/"+url.PathEscape(args[0]), nil, nil, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Subject deleted")
			return nil
		},
	}
}
