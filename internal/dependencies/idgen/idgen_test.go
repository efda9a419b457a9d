package idgen

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundIDIsUniqueUUID(t *testing.T) {
	gen := New()

	a := gen.RoundID()
	b := gen.RoundID()

	assert.NotEqual(t, a, b)
	_, err := uuid.Parse(string(a))
	require.NoError(t, err)
}
