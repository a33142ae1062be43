package lifecycle

import "fmt"

type ProjectStatus string

const (
	ProjectDraft      ProjectStatus = "DRAFT"
	ProjectOpen       ProjectStatus = "OPEN"
	ProjectInReview   ProjectStatus = "IN_REVIEW"
	ProjectInProgress ProjectStatus = "IN_PROGRESS"
	ProjectOnHold     ProjectStatus = "ON_HOLD"
	ProjectCompleted  ProjectStatus = "COMPLETED"
	ProjectCancelled  ProjectStatus = "CANCELLED"
)

// Projects carry no transition table: the owning client may set any known
// status directly, and the bid-selection flow moves the project to
// IN_PROGRESS. Every change still appends to the status history.
func ParseProjectStatus(s string) (ProjectStatus, error) {
	st := ProjectStatus(s)
	switch st {
	case ProjectDraft, ProjectOpen, ProjectInReview, ProjectInProgress,
		ProjectOnHold, ProjectCompleted, ProjectCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown project status %q", s)
}

// BiddableProjectStatus reports whether a project in this status accepts new
// bids or bid selection.
func BiddableProjectStatus(s ProjectStatus) bool {
	return s == ProjectOpen || s == ProjectInReview
}
