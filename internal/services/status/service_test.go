package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"
)

func TestBeginEnd(t *testing.T) {
	s := NewService(arbor.NewLogger())
	assert.Equal(t, StateIdle, s.GetState())

	assert.True(t, s.Begin(OpExtract))
	assert.False(t, s.Begin(OpExtract))
	assert.True(t, s.Begin(OpSubmit), "operations are guarded independently")
	assert.Equal(t, StateBusy, s.GetState())

	status := s.GetStatus()
	assert.Equal(t, "busy", status["state"])
	assert.Equal(t, []string{OpExtract, OpSubmit}, status["active"])

	s.End(OpExtract)
	s.End(OpSubmit)
	s.End(OpSubmit)
	assert.Equal(t, StateIdle, s.GetState())
	assert.True(t, s.Begin(OpExtract))
}
