// Package auditlog holds the read-only audit trail commands.
package auditlog

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/crucial707/timetable-api/cmd/cli/client"
	"github.com/crucial707/timetable-api/cmd/cli/output"
	"github.com/crucial707/timetable-api/internal/models"
)

func InitAudit(rootCmd *cobra.Command) {
	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Review the audit trail (admin)",
	}
	auditCmd.AddCommand(listAuditCmd(), showAuditCmd())
	rootCmd.AddCommand(auditCmd)
}

func listAuditCmd() *cobra.Command {
	var entity, entityID, performedBy, action, from, to string
	var limit, offset int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List audit entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			q := url.Values{}
			for k, v := range map[string]string{
				"entity":      entity,
				"entityId":    entityID,
				"performedBy": performedBy,
				"action":      action,
				"from":        from,
				"to":          to,
			} {
				if v != "" {
					q.Set(k, v)
				}
			}
			q.Set("limit", strconv.Itoa(limit))
			q.Set("offset", strconv.Itoa(offset))

			var page client.Page[models.AuditLog]
			if err := c.Do(cmd.Context(), http.MethodGet, "/audit-logs", q, nil, &page); err != nil {
				return err
			}
			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), page)
			}

			rows := make([][]interface{}, 0, len(page.Items))
			for _, e := range page.Items {
				target := ""
				if e.EntityID != nil {
					target = e.EntityID.Hex()
				}
				rows = append(rows, []interface{}{
					e.CreatedAt.Format(time.RFC3339), e.Action, e.Entity, target, e.PerformedBy.Hex(), e.IPAddress,
				})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"When", "Action", "Entity", "Entity ID", "By", "IP"}, rows)
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d entries\n", len(page.Items), page.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&entity, "entity", "", "Filter by entity (User, Subject, Department)")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "Filter by entity id")
	cmd.Flags().StringVar(&performedBy, "by", "", "Filter by performing user id")
	cmd.Flags().StringVar(&action, "action", "", "Filter by action")
	cmd.Flags().StringVar(&from, "from", "", "Only entries at or after this RFC 3339 time")
	cmd.Flags().StringVar(&to, "to", "", "Only entries at or before this RFC 3339 time")
	cmd.Flags().IntVar(&limit, "limit", 10, "Page size (max 100)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of entries to skip")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON")
	return cmd
}

func showAuditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show one audit entry with its state snapshots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			var entry models.AuditLog
			if err := c.Do(cmd.Context(), http.MethodGet, "/audit-logs/"+url.PathEscape(args[0]), nil, nil, &entry); err != nil {
				return err
			}
			return output.PrintJSON(cmd.OutOrStdout(), entry)
		},
	}
}
