package fixer

import (
	"strings"

	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Request asks for a fix of the file at FilePath, relative to the root.
type Request struct {
	FilePath       string `json:"file_path"`
	BugDescription string `json:"bug_description"`
}

// Validate reports blank fields. Whitespace-only counts as blank.
func (r Request) Validate() field.ErrorList {
	var errs field.ErrorList
	if strings.TrimSpace(r.FilePath) == "" {
		errs = append(errs, field.Required(field.NewPath("file_path"), "File path cannot be empty"))
	}
	if strings.TrimSpace(r.BugDescription) == "" {
		errs = append(errs, field.Required(field.NewPath("bug_description"), "Bug description cannot be empty"))
	}
	return errs
}

func validationDetail(errs field.ErrorList) string {
	details := make([]string, 0, len(errs))
	for _, e := range errs {
		details = append(details, e.Detail)
	}
	return strings.Join(details, "; ")
}
