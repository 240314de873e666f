package fontshape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/image/math/fixed"
)

func TestToFeaturesEncodesOnOff(t *testing.T) {
	feats := toFeatures(Features{"liga": true, "kern": false})
	var ligaValue, kernValue uint32
	for _, f := range feats {
		switch f.Tag {
		case mustTag("liga"):
			ligaValue = f.Value
		case mustTag("kern"):
			kernValue = f.Value
		}
	}
	assert.Equal(t, uint32(1), ligaValue)
	assert.Equal(t, uint32(0), kernValue)
}

func TestMustTagPacksFourBytes(t *testing.T) {
	assert.Equal(t, mustTag("liga"), mustTag("liga"))
	assert.NotEqual(t, mustTag("liga"), mustTag("kern"))
}

func TestAbs26_6(t *testing.T) {
	assert.Equal(t, fixed.I(5), abs26_6(fixed.I(-5)))
	assert.Equal(t, fixed.I(5), abs26_6(fixed.I(5)))
}

func TestRuneByteOffsets(t *testing.T) {
	text := []byte("aéb") // 'a' (1 byte), 'é' (2 bytes), 'b' (1 byte)
	runes := []rune(string(text))
	offsets := runeByteOffsets(text, runes)
	assert.Equal(t, []int64{0, 1, 3, 4}, offsets)
}

func TestRuneLen(t *testing.T) {
	assert.Equal(t, 1, runeLen('a'))
	assert.Equal(t, 2, runeLen('é'))
	assert.Equal(t, 3, runeLen('中'))
	assert.Equal(t, 4, runeLen(0x1F600))
}
