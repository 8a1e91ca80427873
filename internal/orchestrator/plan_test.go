package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fyrsmithlabs/airo/internal/project"
)

func comps(rows ...[]string) []project.ComponentSpec {
	out := make([]project.ComponentSpec, len(rows))
	for i, s := range rows {
		out[i] = project.ComponentSpec{Name: s[0], Dependencies: s[1:]}
	}
	return out
}

func TestTopoOrder(t *testing.T) {
	tests := []struct {
		name  string
		comps []project.ComponentSpec
		want  []int
	}{
		{"declared when independent", comps([]string{"a"}, []string{"b"}, []string{"c"}), []int{0, 1, 2}},
		{"chain", comps([]string{"api", "svc"}, []string{"svc", "db"}, []string{"db"}), []int{2, 1, 0}},
		{"ties by declared order", comps([]string{"a"}, []string{"b", "a"}, []string{"c"}), []int{0, 1, 2}},
		{"unknown and self deps ignored", comps([]string{"a", "a", "ghost"}, []string{"b"}), []int{0, 1}},
		{"cycle falls back", comps([]string{"x", "y"}, []string{"y", "x"}, []string{"z"}), []int{2, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, topoOrder(tt.comps))
		})
	}
}

func TestLevels(t *testing.T) {
	c := comps([]string{"api", "svc"}, []string{"svc", "db"}, []string{"db"}, []string{"cache"})
	assert.Equal(t, [][]int{{2, 3}, {1}, {0}}, levels(c))

	cyc := comps([]string{"x", "y"}, []string{"y", "x"}, []string{"z"})
	assert.Equal(t, [][]int{{2}, {0, 1}}, levels(cyc))
}

func TestSchedule(t *testing.T) {
	c := comps([]string{"api", "db"}, []string{"db"})
	assert.Equal(t, [][]int{{0}, {1}}, Schedule(c, 1, false))
	assert.Equal(t, [][]int{{1}, {0}}, Schedule(c, 1, true))
	assert.Equal(t, [][]int{{1}, {0}}, Schedule(c, 4, false))
}

func TestDedupeFilenames(t *testing.T) {
	arts := []project.Artifact{
		{Filename: "a.py"}, {Filename: "a.py"}, {Filename: "a_2.py"}, {Filename: "b.py"}, {Filename: "a.py"},
	}
	DedupeFilenames(arts)
	var got []string
	for _, a := range arts {
		got = append(got, a.Filename)
	}
	assert.Equal(t, []string{"a.py", "a_2.py", "a_2_2.py", "b.py", "a_3.py"}, got)
}
