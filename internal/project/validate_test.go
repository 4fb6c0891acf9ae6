package project

import (
	"errors"
	"strings"
	"testing"
)

func TestValidator_Validate(t *testing.T) {
	v := NewValidator(false)

	tests := []struct {
		name       string
		fields     Fields
		wantFields map[string]string
	}{
		{
			name:   "valid minimal",
			fields: Fields{Title: "Site", Description: "Marketing site"},
		},
		{
			name:   "valid with url",
			fields: Fields{Title: "Site", Description: "d", Status: StatusTesting, GitHubURL: "https://github.com/otiai10/projectdeck"},
		},
		{
			name:       "blank title",
			fields:     Fields{Title: "   ", Description: "d"},
			wantFields: map[string]string{"title": "Title is required"},
		},
		{
			name:       "blank title and description",
			fields:     Fields{},
			wantFields: map[string]string{"title": "Title is required", "description": "Description is required"},
		},
		{
			name:       "unknown status",
			fields:     Fields{Title: "a", Description: "b", Status: "Done"},
			wantFields: map[string]string{"status": ""},
		},
		{
			name:       "http url",
			fields:     Fields{Title: "a", Description: "b", GitHubURL: "http://github.com/a/b"},
			wantFields: map[string]string{"githubUrl": "Must be a valid https repository URL"},
		},
		{
			name:       "private url",
			fields:     Fields{Title: "a", Description: "b", GitHubURL: "https://10.0.0.1/a/b"},
			wantFields: map[string]string{"githubUrl": "Must be a valid https repository URL"},
		},
		{
			name:       "title too long",
			fields:     Fields{Title: strings.Repeat("x", 201), Description: "b"},
			wantFields: map[string]string{"title": "Must be at most 200 characters long"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(tt.fields)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if len(verr.Errors) != len(tt.wantFields) {
				t.Errorf("got %d errors %v, want %d", len(verr.Errors), verr.Errors, len(tt.wantFields))
			}
			for field, msg := range tt.wantFields {
				got, ok := verr.Errors[field]
				if !ok {
					t.Errorf("missing error for %q in %v", field, verr.Errors)
					continue
				}
				if msg != "" && got != msg {
					t.Errorf("Errors[%q] = %q, want %q", field, got, msg)
				}
			}
		})
	}
}

func TestValidator_AllowLocalURLs(t *testing.T) {
	f := Fields{Title: "a", Description: "b", GitHubURL: "http://localhost:3000/repo"}

	if _, err := NewValidator(true).Validate(f); err != nil {
		t.Errorf("dev validator rejected localhost: %v", err)
	}
	if _, err := NewValidator(false).Validate(f); err == nil {
		t.Error("prod validator accepted localhost")
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Errors: map[string]string{"title": "Title is required", "description": "Description is required"}}

	want := "validation failed: description: Description is required; title: Title is required"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
