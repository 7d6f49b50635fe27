package main

import (
	"context"
	"fmt"
)

// syncUsers reconciles user accounts against approved enrollment records and
// prints the report.
func (cli *commandLine) syncUsers() error {
	report, err := cli.usrSvc.SyncWithEnrollments(context.Background(), cli.enrDir)
	if err != nil {
		return err
	}

	fmt.Printf("checked %d approved enrollment(s)\n", report.Checked)
	for _, id := range report.Activated {
		fmt.Printf("activated user %s\n", id)
	}
	for _, id := range report.Orphaned {
		fmt.Printf("orphaned enrollment %s (no matching user)\n", id)
	}
	if len(report.Activated) == 0 && len(report.Orphaned) == 0 {
		fmt.Println("nothing to reconcile")
	}
	return nil
}
