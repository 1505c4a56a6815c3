package platform

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetach(t *testing.T) {
	cmd := exec.Command("true")
	Detach(cmd)
	assert.NotNil(t, cmd.SysProcAttr)
}
