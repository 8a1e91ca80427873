package output

import (
	"math"

	"github.com/fyrsmithlabs/airo/internal/project"
)

// Summary aggregates the reviews of a project.
type Summary struct {
	AverageScore     float64                        `json:"average_score"`
	Reviewed         int                            `json:"reviewed"`
	Failed           int                            `json:"failed"`
	Components       []ComponentRating              `json:"components"`
	IssuesByCategory map[project.ReviewCategory]int `json:"issues_by_category"`
	IssuesBySeverity map[string]int                 `json:"issues_by_severity"`
}

// ComponentRating is the review score of one component. Score is zero when
// the review failed.
type ComponentRating struct {
	Component string `json:"component"`
	Filename  string `json:"filename"`
	Score     int    `json:"score"`
	Failed    bool   `json:"failed,omitempty"`
}

// Summarize builds the review summary. Failed reviews are listed but do not
// count towards the average.
func Summarize(reviews []project.ReviewResult) Summary {
	s := Summary{
		Components:       make([]ComponentRating, 0, len(reviews)),
		IssuesByCategory: map[project.ReviewCategory]int{},
		IssuesBySeverity: map[string]int{},
	}
	total := 0
	for _, r := range reviews {
		s.Components = append(s.Components, ComponentRating{
			Component: r.Component,
			Filename:  r.Filename,
			Score:     r.Score,
			Failed:    r.Failed,
		})
		if r.Failed {
			s.Failed++
			continue
		}
		s.Reviewed++
		total += r.Score
		for _, f := range r.Findings {
			s.IssuesByCategory[f.Category]++
			s.IssuesBySeverity[f.Severity]++
		}
	}
	if s.Reviewed > 0 {
		s.AverageScore = math.Round(float64(total)/float64(s.Reviewed)*100) / 100
	}
	return s
}
