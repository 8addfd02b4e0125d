package rigctl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	hamlib "github.com/xylo04/goHamlib"
)

func TestBoolToPTT(t *testing.T) {
	assert.Equal(t, hamlib.PTTOn, boolToPTT(true))
	assert.Equal(t, hamlib.PTTOff, boolToPTT(false))
}
