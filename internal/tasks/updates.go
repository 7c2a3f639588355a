package tasks

import "fmt"

// ProgressUpdate represents a progress event during a sync run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Pipeline phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Pipeline phase enumeration
type Phase int

const (
	FetchRoster Phase = iota
	ParseRoster
	ScanRemote
	WriteRecords
	ExportContacts
)

func (p Phase) String() string {
	switch p {
	case FetchRoster:
		return "fetch_roster"
	case ParseRoster:
		return "parse_roster"
	case ScanRemote:
		return "scan_remote"
	case WriteRecords:
		return "write_records"
	case ExportContacts:
		return "export_contacts"
	default:
		return ""
	}
}

func fetchRosterUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRoster,
		Step:    1,
		Total:   1,
		Message: "Fetching roster CSV...",
	}
}

func parseRosterUpdate(members, skipped int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ParseRoster,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Parsed %d members (%d rows skipped)", members, skipped),
	}
}

func scanRemoteUpdate(page, records int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScanRemote,
		Step:    page,
		Total:   0,
		Message: fmt.Sprintf("Scanned page %d (%d records so far)", page, records),
	}
}

func writeRecordUpdate(step, total int, memberID, action string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteRecords,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s", step, total, action, memberID),
	}
}

func exportContactsUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportContacts,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Exporting %d contacts...", count),
	}
}
