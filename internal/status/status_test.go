package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "UNKNOWN", Unknown.String())
	assert.Equal(t, "PASS", Pass.String())
	assert.Equal(t, "FAIL", Fail.String())
}

func TestStatus_Conclusive(t *testing.T) {
	assert.False(t, Unknown.Conclusive())
	assert.True(t, Pass.Conclusive())
	assert.True(t, Fail.Conclusive())
}

func TestFold_FailIsSticky(t *testing.T) {
	assert.Equal(t, Fail, Fold(Unknown, Fail))
	assert.Equal(t, Fail, Fold(Pass, Fail))
	assert.Equal(t, Fail, Fold(Fail, Pass))
	assert.Equal(t, Fail, Fold(Fail, Unknown))
}

func TestFold_PassUpgradesUnknownOnly(t *testing.T) {
	assert.Equal(t, Pass, Fold(Unknown, Pass))
	assert.Equal(t, Pass, Fold(Pass, Pass))
	assert.Equal(t, Pass, Fold(Pass, Unknown))
	assert.Equal(t, Unknown, Fold(Unknown, Unknown))
}

func TestParse_RoundTrip(t *testing.T) {
	for _, s := range []Status{Unknown, Pass, Fail} {
		got, err := Parse(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse("MAYBE")
	require.Error(t, err)
}
