package application

import "fmt"

// adminTransitions lists the targets an administrator may move an application to.
// Perlu Dilengkapi only goes back to Pending through a resubmission and Selesai is terminal.
// Ditolak may be reopened to any other status.
var adminTransitions = map[Status][]Status{
	StatusPending:       {StatusProcessing, StatusApproved, StatusRejected, StatusNeedsRevision},
	StatusProcessing:    {StatusApproved, StatusRejected, StatusNeedsRevision},
	StatusApproved:      {StatusCompleted, StatusRejected},
	StatusRejected:      {StatusPending, StatusProcessing, StatusApproved, StatusCompleted, StatusNeedsRevision},
	StatusNeedsRevision: {},
	StatusCompleted:     {},
}

func canTransition(from, to Status) bool {
	for _, s := range adminTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// history notes by target status
const (
	noteSubmitted    = "application submitted"
	noteSeparator    = " - "
	noteResubmission = "resubmission #%d by applicant"
)

var transitionNotes = map[Status]string{
	StatusProcessing:    "review started",
	StatusApproved:      "approved",
	StatusRejected:      "rejected",
	StatusCompleted:     "handed over",
	StatusNeedsRevision: "returned for completion",
}

func transitionNote(from, to Status, adminNote string) string {
	note, ok := transitionNotes[to]
	if !ok {
		note = fmt.Sprintf("status changed from %s to %s", from, to)
	}
	if adminNote != "" {
		note += noteSeparator + adminNote
	}
	return note
}

func resubmissionNote(n int) string {
	return fmt.Sprintf(noteResubmission, n)
}
