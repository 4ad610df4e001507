package notify

import (
	"fmt"
	"strings"

	"opsportal/internal/model"
)

// SubmissionAlert is sent to admins when a request is submitted.
func SubmissionAlert(kind model.Kind, submitter string) string {
	if submitter == "" {
		submitter = "a public user"
	}
	return fmt.Sprintf("New %s submitted by %s. Please review in admin panel.", kind.Label(), submitter)
}

// DecisionNotice is sent to the requester once a decision is recorded.
func DecisionNotice(kind model.Kind, status model.Status) string {
	return fmt.Sprintf("Your %s has been %s. Check your dashboard for details.",
		kind.Label(), strings.ToLower(string(status)))
}
