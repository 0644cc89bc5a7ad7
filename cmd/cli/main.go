package main

import (
	"fmt"
	"os"

	"github.com/crucial707/timetable-api/cmd/cli/auditlog"
	"github.com/crucial707/timetable-api/cmd/cli/auth"
	"github.com/crucial707/timetable-api/cmd/cli/departments"
	"github.com/crucial707/timetable-api/cmd/cli/root"
	"github.com/crucial707/timetable-api/cmd/cli/subjects"
	"github.com/crucial707/timetable-api/cmd/cli/users"
)

func main() {
	rootCmd := root.GetRoot()
	auth.InitAuth(rootCmd)
	users.InitUsers(rootCmd)
	departments.InitDepartments(rootCmd)
	subjects.InitSubjects(rootCmd)
	auditlog.InitAudit(rootCmd)

	// Execute the root Cobra command
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
