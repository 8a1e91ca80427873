package quality

import (
	"fmt"
	"sync"

	"github.com/zricethezav/gitleaks/v8/detect"
)

// SecretScanner finds hard-coded credentials in source text.
type SecretScanner interface {
	Scan(source string) ([]Diagnostic, error)
}

// GitleaksScanner scans with the default gitleaks rule set. The detector is
// built on first use.
type GitleaksScanner struct {
	once     sync.Once
	detector *detect.Detector
	err      error
	mu       sync.Mutex
}

// NewGitleaksScanner returns a lazily initialised gitleaks scanner.
func NewGitleaksScanner() *GitleaksScanner {
	return &GitleaksScanner{}
}

func (s *GitleaksScanner) Scan(source string) ([]Diagnostic, error) {
	s.once.Do(func() {
		s.detector, s.err = detect.NewDetectorDefaultConfig()
	})
	if s.err != nil {
		return nil, fmt.Errorf("creating gitleaks detector: %w", s.err)
	}

	// Detector keeps per-scan state.
	s.mu.Lock()
	findings := s.detector.DetectString(source)
	s.mu.Unlock()

	diags := make([]Diagnostic, 0, len(findings))
	for _, f := range findings {
		d := Diagnostic{
			Severity: SeverityError,
			Message:  fmt.Sprintf("hardcoded secret: %s", f.Description),
			Tool:     "gitleaks",
			Code:     f.RuleID,
		}
		if f.StartLine > 0 {
			d.Location = &Location{Line: f.StartLine, Column: f.StartColumn}
		}
		diags = append(diags, d)
	}
	return diags, nil
}
