// Package worldclock отслеживает нормализованное время суток и производные
// от него величины освещения — единственный процесс-глобальный таймер,
// передаваемый по значению, а не через окружающее состояние.
package worldclock

import (
	"math"

	"github.com/voxelcore/voxelcore/internal/vec"
)

// Color — линейный RGB для интерполяции неба.
type Color struct {
	R, G, B float64
}

func lerpColor(a, b Color, t float64) Color {
	return Color{
		R: a.R + (b.R-a.R)*t,
		G: a.G + (b.G-a.G)*t,
		B: a.B + (b.B-a.B)*t,
	}
}

var (
	nightSky = Color{R: 0.02, G: 0.03, B: 0.08}
	daySky   = Color{R: 0.45, G: 0.65, B: 0.95}
	sunset   = Color{R: 0.9, G: 0.45, B: 0.2}
)

// Clock — время суток, нормализованное в [0,1); 0.25 — рассвет.
type Clock struct {
	DayLengthSeconds float64
	time             float64
}

// New создаёт часы, начинающиеся с рассвета (time = 0.25): солнце на
// горизонте (SunIntensity = 0), и с этого момента освещение растёт.
func New(dayLengthSeconds float64) *Clock {
	return &Clock{DayLengthSeconds: dayLengthSeconds, time: 0.25}
}

// Advance продвигает время суток на dt секунд, оборачивая период.
func (c *Clock) Advance(dt float64) {
	if c.DayLengthSeconds <= 0 {
		return
	}
	c.time += dt / c.DayLengthSeconds
	c.time -= math.Floor(c.time)
}

// Sync принудительно устанавливает нормализованную фазу — используется
// при коррекции от ведущего узла кластера через internal/bus, чтобы часы
// нескольких инстансов сервера не расходились дрейфом накопленных dt.
func (c *Clock) Sync(normalizedTime float64) {
	c.time = normalizedTime - math.Floor(normalizedTime)
}

// Time возвращает нормализованную фазу суток в [0,1).
func (c *Clock) Time() float64 { return c.time }

// SunIntensity — 0 ночью, максимум в полдень.
func (c *Clock) SunIntensity() float64 {
	v := math.Sin(2*math.Pi*c.time - math.Pi/2)
	if v < 0 {
		return 0
	}
	return v
}

// SunDir — направление к солнцу, нормализованное.
func (c *Clock) SunDir() vec.Vec3 {
	angle := 2 * math.Pi * c.time
	return vec.Vec3{X: math.Cos(angle), Y: math.Sin(angle), Z: 0.3}.Normalized()
}

// edgeness измеряет близость к восходу/закату — пик ровно при
// sunIntensity=0.5, спадает к нулю на полдень и на полночь.
func edgeness(sunIntensity float64) float64 {
	return 1 - math.Abs(sunIntensity-0.5)*2
}

// SkyColor смешивает ночь/день по интенсивности солнца и добавляет тёплый
// оттенок заката/рассвета — квадрат edgeness даёт узкий пик тёплого тона
// вокруг восхода/заката вместо широкого линейного размытия, а множитель
// sunIntensity гасит его до нуля к полуночи.
func (c *Clock) SkyColor() Color {
	intensity := c.SunIntensity()
	base := lerpColor(nightSky, daySky, intensity)
	e := edgeness(intensity)
	tint := e * e * 0.3 * intensity
	return Color{
		R: base.R + sunset.R*tint,
		G: base.G + sunset.G*tint,
		B: base.B + sunset.B*tint,
	}
}
