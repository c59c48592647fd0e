package appointment

import (
	"strings"

	"github.com/laserowo/studio-manager/internal/httperr"
)

// ===============================
// Appointment Status
// ===============================

type Status string

const (
	StatusScheduled   Status = "Scheduled"
	StatusCompleted   Status = "Completed"
	StatusCancelled   Status = "Cancelled"
	StatusRescheduled Status = "Rescheduled"
)

// ===============================
// Validations
// ===============================

// CanCancel allows cancelling scheduled rows and rescheduled predecessors.
func CanCancel(current Status) error {
	if current != StatusScheduled && current != StatusRescheduled {
		return httperr.InvalidStateTransition{From: string(current), Action: "cancel"}
	}
	return nil
}

func CanReschedule(current Status) error {
	if current != StatusScheduled && current != StatusRescheduled {
		return httperr.InvalidStateTransition{From: string(current), Action: "reschedule"}
	}
	return nil
}

func CanComplete(current Status) error {
	if current != StatusScheduled {
		return httperr.InvalidStateTransition{From: string(current), Action: "complete"}
	}
	return nil
}

// InitialStatus is the status of appointments entered interactively.
func InitialStatus() Status {
	return StatusScheduled
}

// ImportedStatus is the default for spreadsheet rows, which record past visits.
func ImportedStatus() Status {
	return StatusCompleted
}

var statusAliases = map[string]Status{
	"scheduled":    StatusScheduled,
	"zaplanowana":  StatusScheduled,
	"umówiona":     StatusScheduled,
	"completed":    StatusCompleted,
	"zakończona":   StatusCompleted,
	"zrealizowana": StatusCompleted,
	"odbyta":       StatusCompleted,
	"cancelled":    StatusCancelled,
	"canceled":     StatusCancelled,
	"odwołana":     StatusCancelled,
	"anulowana":    StatusCancelled,
	"rescheduled":  StatusRescheduled,
	"przełożona":   StatusRescheduled,
}

// ParseStatus maps free-text status values onto the canonical set.
func ParseStatus(s string) (Status, bool) {
	st, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]
	return st, ok
}
