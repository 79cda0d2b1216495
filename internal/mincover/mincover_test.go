package mincover

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// attribute indices: a=0, b=1, c=2, d=3, e=4.

func TestLinClosure_ScenarioExample(t *testing.T) {
	fds := []FD{
		{LHS: []int{0}, RHS: []int{1}},    // a -> b
		{LHS: []int{1}, RHS: []int{2}},    // b -> c
		{LHS: []int{2, 3}, RHS: []int{4}}, // cd -> e
		{LHS: []int{0, 3}, RHS: []int{4}}, // ad -> e
	}
	closure := LinClosure(fds, []int{0, 3})
	assert.Equal(t, []int{0, 1, 2, 3, 4}, closure)
}

func TestMinimalCover_DropsRedundantFD(t *testing.T) {
	fds := []FD{
		{LHS: []int{0}, RHS: []int{1}},    // a -> b
		{LHS: []int{1}, RHS: []int{2}},    // b -> c
		{LHS: []int{2, 3}, RHS: []int{4}}, // cd -> e
		{LHS: []int{0, 3}, RHS: []int{4}}, // ad -> e (redundant, drop)
	}
	cover := MinimalCover(fds)

	assert.Len(t, cover, 3, "ad -> e must be dropped as redundant")
	assert.ElementsMatch(t, []FD{
		{LHS: []int{0}, RHS: []int{1}},
		{LHS: []int{1}, RHS: []int{2}},
		{LHS: []int{2, 3}, RHS: []int{4}},
	}, cover)
}

func TestMinimalCover_RoundtripKeepsAlreadyMinimalCover(t *testing.T) {
	fds := []FD{
		{LHS: []int{0}, RHS: []int{1}}, // a -> b
		{LHS: []int{2}, RHS: []int{3}}, // c -> d
	}
	cover := MinimalCover(fds)
	assert.ElementsMatch(t, fds, cover, "an already-minimal cover must come back unchanged")
}
