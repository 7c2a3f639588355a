package formatter

import (
	"bytes"
	"fmt"
	"time"

	"github.com/kelarin/rosync/internal/tasks"
)

// RunReport renders a run result as a plain-text summary.
func RunReport(res *tasks.SyncResult) string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Run %s\n", res.RunID))
	buf.WriteString(fmt.Sprintf("Started:  %s\n", res.StartedAt.Format("2006-01-02 15:04:05")))
	buf.WriteString(fmt.Sprintf("Finished: %s (%s)\n", res.FinishedAt.Format("2006-01-02 15:04:05"), res.Duration().Round(time.Millisecond)))
	buf.WriteString(fmt.Sprintf("Rows:     %d total, %d skipped\n", res.RowsTotal, res.Skipped))
	buf.WriteString(fmt.Sprintf("Records:  %d created, %d updated, %d failed\n", res.Created, res.Updated, res.Failed))

	if res.MailSent {
		buf.WriteString(fmt.Sprintf("Contacts: %d exported, mail sent\n", res.Exported))
	} else {
		buf.WriteString(fmt.Sprintf("Contacts: %d exported, mail not sent\n", res.Exported))
	}

	for _, f := range res.Failures {
		buf.WriteString(fmt.Sprintf("  failed %s: %s\n", f.MemberID, f.Reason))
	}

	return buf.String()
}
