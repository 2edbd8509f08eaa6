package geom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/veldra/helmsman/geom"
)

func TestVec2Arithmetic(t *testing.T) {
	a := geom.Vec2{X: 1, Y: 2}
	b := geom.Vec2{X: -3, Y: 0.5}

	assert.Equal(t, geom.Vec2{X: -2, Y: 2.5}, a.Add(b))
	assert.Equal(t, geom.Vec2{X: 4, Y: 1.5}, a.Sub(b))
	assert.Equal(t, geom.Vec2{X: 2, Y: 4}, a.Scale(2))
}

func TestVec2Len(t *testing.T) {
	assert.Equal(t, 5.0, geom.Vec2{X: 3, Y: 4}.Len())
	assert.Equal(t, 0.0, geom.Vec2{}.Len())
}

func TestVec2Normalized(t *testing.T) {
	n := geom.Vec2{X: 0, Y: -10}.Normalized()
	assert.InDelta(t, 0, n.X, 1e-12)
	assert.InDelta(t, -1, n.Y, 1e-12)

	// Zero vector stays zero instead of producing NaNs.
	assert.Equal(t, geom.Vec2{}, geom.Vec2{}.Normalized())
}

func TestVec2IsZero(t *testing.T) {
	assert.True(t, geom.Vec2{}.IsZero())
	assert.False(t, geom.Vec2{X: 1e-9}.IsZero())
}
