package viewport

import (
	"testing"

	"gioui.org/f32"
	"gioui.org/unit"
	"github.com/stretchr/testify/assert"
	"golang.org/x/image/math/fixed"
)

func pt(x, y float32) f32.Point { return f32.Point{X: x, Y: y} }

func TestToViewAppliesScroll(t *testing.T) {
	vp := Viewport{Scroll: pt(10, 5)}
	p := LayoutPos{X: fixed.I(20), Y: fixed.I(15)}

	got := vp.ToView(p)
	assert.Equal(t, pt(10, 10), got)
}

func TestLayoutToPhysicalAppliesScaleAndOrigin(t *testing.T) {
	vp := Viewport{
		Bounds: f32.Rectangle{Min: pt(100, 0), Max: pt(500, 500)},
		Scale:  unit.Metric{PxPerDp: 2},
	}
	p := LayoutPos{X: fixed.I(10), Y: fixed.I(20)}

	got := vp.LayoutToPhysical(p)
	assert.Equal(t, pt(220, 40), got)
}

func TestContainsRespectsPadding(t *testing.T) {
	vp := Viewport{
		Bounds:  f32.Rectangle{Max: pt(100, 100)},
		Scale:   unit.Metric{PxPerDp: 1},
		Padding: 10,
	}

	inside := LayoutPos{X: fixed.I(-5), Y: fixed.I(50)}
	assert.True(t, vp.Contains(inside), "padding should admit points just outside bounds")

	outside := LayoutPos{X: fixed.I(-20), Y: fixed.I(50)}
	assert.False(t, vp.Contains(outside))
}

func TestScissorRectAddsLineHeightMargin(t *testing.T) {
	vp := Viewport{
		Bounds: f32.Rectangle{Min: pt(0, 0), Max: pt(100, 100)},
		Scale:  unit.Metric{PxPerDp: 1},
	}
	r := vp.ScissorRect(20)
	assert.Equal(t, pt(-20, -20), r.Min)
	assert.Equal(t, pt(120, 120), r.Max)
}
