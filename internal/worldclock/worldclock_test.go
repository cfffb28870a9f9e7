package worldclock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStartsAtDawn(t *testing.T) {
	c := New(600)
	assert.InDelta(t, 0.25, c.Time(), 1e-9)
}

func TestAdvanceWrapsAroundDayLength(t *testing.T) {
	c := New(100)
	c.Advance(150) // полтора дня
	assert.InDelta(t, 0.75, c.Time(), 1e-9)
}

func TestAdvanceWithZeroDayLengthIsNoOp(t *testing.T) {
	c := New(0)
	c.Advance(1000)
	assert.InDelta(t, 0.25, c.Time(), 1e-9)
}

func TestSyncWrapsNegativeAndOverflowPhases(t *testing.T) {
	c := New(600)
	c.Sync(1.75)
	assert.InDelta(t, 0.75, c.Time(), 1e-9)

	c.Sync(-0.1)
	assert.InDelta(t, 0.9, c.Time(), 1e-9)
}

func TestSunIntensityZeroAtMidnightPositiveAtNoon(t *testing.T) {
	c := New(600)
	c.Sync(0.0)
	assert.InDelta(t, 0, c.SunIntensity(), 1e-9)

	c.Sync(0.5)
	assert.Greater(t, c.SunIntensity(), 0.0)
}

func TestSkyColorAtMidnightIsPlainNightSky(t *testing.T) {
	c := New(600)
	c.Sync(0.0)
	got := c.SkyColor()
	assert.InDelta(t, nightSky.R, got.R, 1e-9)
	assert.InDelta(t, nightSky.G, got.G, 1e-9)
	assert.InDelta(t, nightSky.B, got.B, 1e-9)
}

func TestSkyColorAtNoonIsPlainDaySky(t *testing.T) {
	c := New(600)
	c.Sync(0.5) // intensity=1, edgeness=0: no sunset tint at solar noon
	got := c.SkyColor()
	assert.InDelta(t, daySky.R, got.R, 1e-9)
	assert.InDelta(t, daySky.G, got.G, 1e-9)
	assert.InDelta(t, daySky.B, got.B, 1e-9)
}

func TestSkyColorSunsetTintMatchesSquaredEdgenessFormula(t *testing.T) {
	c := New(600)
	c.Sync(1.0 / 3.0) // sunIntensity=0.5 exactly, where edgeness peaks at 1
	intensity := c.SunIntensity()
	require.InDelta(t, 0.5, intensity, 1e-6)

	base := lerpColor(nightSky, daySky, intensity)
	e := edgeness(intensity)
	tint := e * e * 0.3 * intensity

	got := c.SkyColor()
	assert.InDelta(t, base.R+sunset.R*tint, got.R, 1e-9)
	assert.InDelta(t, base.G+sunset.G*tint, got.G, 1e-9)
	assert.InDelta(t, base.B+sunset.B*tint, got.B, 1e-9)
}
