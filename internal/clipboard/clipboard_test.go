package clipboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Noop_neverErrors(t *testing.T) {
	assert.NoError(t, Noop{}.Copy("http://localhost:4000"))
}

type recordingCopier struct {
	got string
}

func (r *recordingCopier) Copy(text string) error {
	r.got = text
	return nil
}

func Test_Copier_interfaceSatisfiedByRecorder(t *testing.T) {
	var c Copier = &recordingCopier{}
	assert.NoError(t, c.Copy("http://localhost:4000"))
	assert.Equal(t, "http://localhost:4000", c.(*recordingCopier).got)
}
