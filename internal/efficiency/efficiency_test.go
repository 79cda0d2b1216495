package efficiency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEval_ZeroBeforeAnyComparison(t *testing.T) {
	e := New(0, []int{3})
	assert.Equal(t, float64(0), e.Eval())
}

func TestIncreaseComps_MarksDoneAtTotal(t *testing.T) {
	e := New(0, []int{3}) // C(3,2) = 3
	assert.Equal(t, 3, e.Total)
	e.IncreaseComps()
	e.IncreaseComps()
	assert.False(t, e.Done)
	e.IncreaseComps()
	assert.True(t, e.Done)
}

func TestQueue_BestSortsDescending(t *testing.T) {
	q := NewQueue()
	a := New(0, []int{2})
	a.Comps, a.Results = 10, 1
	b := New(1, []int{2})
	b.Comps, b.Results = 10, 5
	q.Add(a)
	q.Add(b)

	assert.Equal(t, b, q.Best())
}

func TestQueue_DropDone(t *testing.T) {
	q := NewQueue()
	a := New(0, []int{2})
	a.Done = true
	b := New(1, []int{2})
	q.Add(a)
	q.Add(b)

	q.DropDone()
	assert.Equal(t, 1, q.Len())
	assert.Equal(t, 1, q.Entries()[0].Att)
}
