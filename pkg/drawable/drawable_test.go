//go:build !debug

package drawable_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/objstore/pkg/drawable"
	"github.com/arthur-debert/objstore/pkg/errors"
)

func TestEval_OverridesWinOverDefaults(t *testing.T) {
	d := drawable.NewDefaults()
	require.NoError(t, d.Register("box", map[string]string{"color": "red"}))
	d.Freeze()

	attrs := d.Attributes("box")
	attrs.Set("color", "blue")
	attrs.Set("size", "10")

	tests := []struct {
		name  string
		want  string
		found bool
	}{
		{"color", "blue", true},
		{"size", "10", true},
		{"shape", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := attrs.Eval(tt.name)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEval_UnsetRestoresDefault(t *testing.T) {
	d := drawable.NewDefaults()
	require.NoError(t, d.Register("box", map[string]string{"color": "red"}))
	d.Freeze()

	attrs := d.Attributes("box")
	attrs.Set("color", "blue")
	attrs.Unset("color")

	v, ok := attrs.Eval("color")
	assert.True(t, ok)
	assert.Equal(t, "red", v)
}

func TestEval_KindWithoutDefaults(t *testing.T) {
	d := drawable.NewDefaults()
	d.Freeze()

	attrs := d.Attributes("line")
	_, ok := attrs.Eval("color")
	assert.False(t, ok)

	attrs.Set("color", "green")
	v, ok := attrs.Eval("color")
	assert.True(t, ok)
	assert.Equal(t, "green", v)

	// overrides of one instance never leak into the shared defaults
	_, ok = d.Attributes("line").Eval("color")
	assert.False(t, ok)
}

func TestRegister_CopiesMap(t *testing.T) {
	d := drawable.NewDefaults()
	src := map[string]string{"color": "red"}
	require.NoError(t, d.Register("box", src))
	src["color"] = "purple"

	v, _ := d.Lookup("box", "color")
	assert.Equal(t, "red", v)
}

func TestRegister_Rules(t *testing.T) {
	d := drawable.NewDefaults()
	require.NoError(t, d.Register("box", nil))

	err := d.Register("box", map[string]string{})
	assert.True(t, errors.IsErrorCode(err, errors.ErrAlreadyExists), "got %v", err)

	err = d.Register("", nil)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))

	d.Freeze()
	assert.True(t, d.Frozen())
	err = d.Register("circle", map[string]string{"r": "1"})
	assert.True(t, errors.IsErrorCode(err, errors.ErrAlreadyFrozen), "got %v", err)
	assert.Equal(t, []drawable.Kind{"box"}, d.Kinds())
}

func TestOverrides_AreCopies(t *testing.T) {
	d := drawable.NewDefaults()
	attrs := d.Attributes("box")
	attrs.SetOverrides(map[string]string{"a": "1"})

	o := attrs.Overrides()
	o["a"] = "2"
	v, _ := attrs.Eval("a")
	assert.Equal(t, "1", v)
}

type button struct {
	drawable.Base
	clicks int
}

func (b *button) Execute(command string) error {
	if command == "click" {
		b.clicks++
		return nil
	}
	return b.Base.Execute(command)
}

func TestExecute(t *testing.T) {
	d := drawable.NewDefaults()
	require.NoError(t, d.Register("button", map[string]string{"label": "OK"}))
	d.Freeze()

	b := &button{Base: drawable.NewBaseWith(d, "button")}
	var dr drawable.Drawable = b

	require.NoError(t, dr.Execute("click"))
	assert.Equal(t, 1, b.clicks)
	assert.Equal(t, drawable.Kind("button"), dr.Kind())
	label, _ := dr.Attributes().Eval("label")
	assert.Equal(t, "OK", label)

	err := dr.Execute("explode")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrUnsupportedAction))
	assert.Equal(t, "explode", errors.GetErrorDetails(err)["command"])
}

func TestGlobalDefaults(t *testing.T) {
	require.NoError(t, drawable.RegisterDefaults("global-test-kind", map[string]string{"color": "red"}))

	base := drawable.NewBase("global-test-kind")
	v, ok := base.Attributes().Eval("color")
	assert.True(t, ok)
	assert.Equal(t, "red", v)

	err := base.Execute("anything")
	assert.True(t, errors.IsErrorCode(err, errors.ErrUnsupportedAction))
}

func TestAttributes_FreezesDefaults(t *testing.T) {
	d := drawable.NewDefaults()
	require.NoError(t, d.Register("box", map[string]string{"color": "red"}))

	_ = d.Attributes("box")
	assert.True(t, d.Frozen())

	err := d.Register("circle", map[string]string{"r": "1"})
	assert.True(t, errors.IsErrorCode(err, errors.ErrAlreadyFrozen), "got %v", err)

	_, ok := d.Attributes("circle").Eval("r")
	assert.False(t, ok)
}

type widget struct {
	drawable.Base
}

func TestZeroBase(t *testing.T) {
	w := &widget{}

	assert.Equal(t, drawable.Kind(""), w.Kind())

	err := w.Execute("click")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrUnsupportedAction))

	attrs := w.Attributes()
	require.NotNil(t, attrs)
	_, ok := attrs.Eval("color")
	assert.False(t, ok)

	attrs.Set("color", "green")
	v, _ := w.Attributes().Eval("color")
	assert.Equal(t, "green", v)
}
