//go:build debug

package drawable_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arthur-debert/objstore/pkg/drawable"
)

func TestExecute_PanicsInDebugBuilds(t *testing.T) {
	base := drawable.NewBaseWith(drawable.NewDefaults(), "box")
	assert.Panics(t, func() { _ = base.Execute("explode") })
}

type widget struct {
	drawable.Base
}

func TestExecute_ZeroBasePanics(t *testing.T) {
	w := &widget{}
	assert.Panics(t, func() { _ = w.Execute("click") })
}
