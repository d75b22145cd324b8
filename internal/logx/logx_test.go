package logx

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)
	l.Debug("hidden")
	l.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	Component(New(&buf, true), "mirror").Debug("visible")
	assert.Contains(t, buf.String(), "visible")
	assert.Contains(t, buf.String(), "mirror")
}
