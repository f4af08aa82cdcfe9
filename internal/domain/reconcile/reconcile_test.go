package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type member struct {
	id      string
	primary bool
}

func (m member) Identity() string { return m.id }

func ids(ms []member) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.id)
	}
	return out
}

func TestCompute_DiffCorrectness(t *testing.T) {
	existing := []member{{id: "A"}, {id: "B"}, {id: "C"}}
	submitted := []member{{id: "B"}, {id: "C"}, {id: "D"}}

	d := Compute(existing, submitted, nil)

	assert.Equal(t, []string{"D"}, ids(d.Add))
	assert.Equal(t, []string{"A"}, ids(d.Remove))
	assert.Empty(t, d.Update)
}

func TestCompute_IdenticalSetsAreIdempotent(t *testing.T) {
	existing := []member{{id: "A"}, {id: "B", primary: true}}
	submitted := []member{{id: "B", primary: true}, {id: "A"}}

	d := Compute(existing, submitted, func(old, new member) bool {
		return old.primary != new.primary
	})

	assert.True(t, d.Empty())
}

func TestCompute_PrimaryFlagChangeIsUpdate(t *testing.T) {
	existing := []member{{id: "A", primary: true}, {id: "B"}}
	submitted := []member{{id: "A"}, {id: "B", primary: true}}

	d := Compute(existing, submitted, func(old, new member) bool {
		return old.primary != new.primary
	})

	assert.Empty(t, d.Add)
	assert.Empty(t, d.Remove)
	assert.Equal(t, []string{"A", "B"}, ids(d.Update))
}

func TestCompute_EmptySubmittedRemovesEverything(t *testing.T) {
	existing := []member{{id: "A"}, {id: "B"}}

	d := Compute(existing, []member{}, nil)

	assert.Empty(t, d.Add)
	assert.Equal(t, []string{"A", "B"}, ids(d.Remove))
}

func TestCompute_DuplicateSubmittedCollapsed(t *testing.T) {
	existing := []member{{id: "A"}}
	submitted := []member{{id: "B"}, {id: "B"}, {id: "A"}}

	d := Compute(existing, submitted, nil)

	assert.Equal(t, []string{"B"}, ids(d.Add))
	assert.Empty(t, d.Remove)
}

func TestCompute_Deterministic(t *testing.T) {
	existing := []member{{id: "A"}, {id: "B"}, {id: "C"}, {id: "D"}}
	submitted := []member{{id: "E"}, {id: "C"}, {id: "F"}}

	first := Compute(existing, submitted, nil)
	for i := 0; i < 10; i++ {
		again := Compute(existing, submitted, nil)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, []string{"E", "F"}, ids(first.Add))
	assert.Equal(t, []string{"A", "B", "D"}, ids(first.Remove))
}

func TestApply_IssuesOneCallPerElement(t *testing.T) {
	existing := []member{{id: "A"}, {id: "B", primary: true}}
	submitted := []member{{id: "B"}, {id: "C"}}

	d := Compute(existing, submitted, func(old, new member) bool {
		return old.primary != new.primary
	})

	var added, removed, updated []string
	err := Apply(d,
		func(m member) error { added = append(added, m.id); return nil },
		func(m member) error { removed = append(removed, m.id); return nil },
		func(m member) error { updated = append(updated, m.id); return nil },
	)

	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, added)
	assert.Equal(t, []string{"A"}, removed)
	assert.Equal(t, []string{"B"}, updated)
}

func TestApply_StopsOnFirstError(t *testing.T) {
	d := Diff[member]{Add: []member{{id: "A"}, {id: "B"}}}

	var added []string
	err := Apply(d,
		func(m member) error {
			added = append(added, m.id)
			return assert.AnError
		},
		func(m member) error { return nil },
		func(m member) error { return nil },
	)

	require.Error(t, err)
	assert.Equal(t, []string{"A"}, added)
}
