package domain

import "strings"

// ValidationError is a user-facing problem found before a job is saved.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validate checks the fields a job needs before it can be committed.
func (j Job) Validate() error {
	switch {
	case strings.TrimSpace(j.Source) == "":
		return &ValidationError{Field: "source", Message: "Please select an ISO file."}
	case strings.TrimSpace(j.OutputDirectory) == "":
		return &ValidationError{Field: "outputDirectory", Message: "Please select an output folder."}
	case strings.TrimSpace(j.Title.Name) == "":
		return &ValidationError{Field: "name", Message: "Please enter a title name."}
	}
	return nil
}
