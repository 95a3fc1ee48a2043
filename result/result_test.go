package result_test

import (
	"errors"
	"testing"

	"github.com/jrsteele09/spares-console/result"
	"github.com/stretchr/testify/assert"
)

func TestResult(t *testing.T) {
	assert.Equal(t, result.Result{Success: true}, result.OK())
	assert.Equal(t, result.Result{Success: true, Cached: true}, result.Cached())

	r := result.Fail(errors.New("boom"))
	assert.False(t, r.Success)
	assert.Equal(t, "boom", r.Error())
	assert.Empty(t, result.OK().Error())
}
