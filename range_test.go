package redline_test

import (
	"testing"

	"github.com/fwojciec/redline"
	"github.com/stretchr/testify/assert"
)

func TestLineRange(t *testing.T) {
	t.Parallel()

	t.Run("len and empty", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 3, redline.Range(2, 5).Len())
		assert.True(t, redline.Range(4, 4).Empty())
		assert.False(t, redline.Range(4, 5).Empty())
	})

	t.Run("shift", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, redline.Range(12, 17), redline.Range(10, 15).Shift(2))
		assert.Equal(t, redline.Range(8, 13), redline.Range(10, 15).Shift(-2))
	})

	t.Run("overlaps", func(t *testing.T) {
		t.Parallel()
		a := redline.Range(10, 15)
		assert.True(t, a.Overlaps(redline.Range(14, 20)))
		assert.True(t, a.Overlaps(redline.Range(1, 11)))
		assert.False(t, a.Overlaps(redline.Range(15, 20)), "half-open ranges touching do not overlap")
		assert.False(t, a.Overlaps(redline.Range(1, 10)))
		assert.False(t, a.Overlaps(redline.Range(12, 12)), "empty range never overlaps")
	})

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		assert.True(t, redline.Range(1, 1).Valid())
		assert.False(t, redline.Range(0, 3).Valid())
		assert.False(t, redline.Range(5, 3).Valid())
	})

	t.Run("string", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "[2,5)", redline.Range(2, 5).String())
	})
}

func TestErrorCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", redline.ErrorCode(nil))
	assert.Equal(t, redline.ENOTFOUND, redline.ErrorCode(redline.Errorf(redline.ENOTFOUND, "diff %q", "d1")))
	assert.Equal(t, redline.EINTERNAL, redline.ErrorCode(assert.AnError))
}

func TestDiffAreaClone(t *testing.T) {
	t.Parallel()

	area := &redline.DiffArea{
		ID:        "a1",
		URI:       "file:///x.go",
		StartLine: 1,
		EndLine:   4,
		Baseline:  "a\nb\nc\n",
		Diffs: map[string]*redline.Diff{
			"d1": {ID: "d1", AreaID: "a1", Original: redline.Range(2, 3), Modified: redline.Range(2, 3)},
		},
	}

	clone := area.Clone()
	clone.Diffs["d1"].State = redline.Accepted
	clone.StartLine = 99

	assert.Equal(t, redline.Pending, area.Diffs["d1"].State, "clone must not share diffs")
	assert.Equal(t, 1, area.StartLine)
	assert.Equal(t, 1, area.Unresolved())
	assert.Equal(t, 0, clone.Unresolved())
}
