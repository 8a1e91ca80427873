package project

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidRequest is returned by Request.Validate.
var ErrInvalidRequest = errors.New("invalid request")

// Request is a user's project request. It is not modified after Normalize.
type Request struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Language       Language `json:"language"`
	GenerateTests  bool     `json:"generate_tests"`
	GenerateReview bool     `json:"generate_review"`
}

// Validate checks that the request can be processed.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidRequest)
	}
	if !r.Language.Supported() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidRequest, ErrUnsupportedLanguage, r.Language)
	}
	return nil
}

// Normalize returns a copy with the name defaulted and whitespace trimmed.
func (r Request) Normalize() Request {
	r.Description = strings.TrimSpace(r.Description)
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		r.Name = Slug(r.Description)
	}
	return r
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug builds a directory-safe name from the first four words of s.
func Slug(s string) string {
	words := strings.Fields(strings.ToLower(s))
	if len(words) > 4 {
		words = words[:4]
	}
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.Join(words, "-"), "-"), "-")
	if slug == "" {
		return "project"
	}
	return slug
}
