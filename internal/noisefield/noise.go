// Package noisefield реализует детерминированный генератор скалярного поля
// изоповерхности: 3-D value-noise fBm поверх целочисленного хеша плюс
// функция высоты поверхности и объёмный генератор с пещерами.
package noisefield

import (
	"math"

	"github.com/voxelcore/voxelcore/internal/coord"
	"github.com/voxelcore/voxelcore/internal/mathx"
)

// Config собирает настраиваемые константы генератора. Визуальная
// тонкая настройка шума (конкретные амплитуды под конкретный ландшафт)
// намеренно не зашита в код — это параметры запуска, не часть алгоритма.
type Config struct {
	Octaves      int
	Lacunarity   float64 // множитель частоты между октавами
	Gain         float64 // множитель амплитуды между октавами
	SeaLevel     float64
	Amplitude    float64
	DetailWeight float64 // вес детального fBm относительно базового (спека: 0.25)
	CaveDepth    float64 // пещеры появляются глубже surfaceY - CaveDepth
}

// DefaultConfig возвращает разумные значения по умолчанию.
func DefaultConfig() Config {
	return Config{
		Octaves:      5,
		Lacunarity:   2.0,
		Gain:         0.5,
		SeaLevel:     64,
		Amplitude:    48,
		DetailWeight: 0.25,
		CaveDepth:    4,
	}
}

// Field — генератор, замкнутый над seed и конфигурацией. Все методы чистые:
// одинаковый seed и координата всегда дают битово одинаковый результат.
type Field struct {
	seed int64
	cfg  Config
}

// New создаёт генератор с заданным seed.
func New(seed int64, cfg Config) *Field {
	return &Field{seed: seed, cfg: cfg}
}

// Seed возвращает seed поля.
func (f *Field) Seed() int64 { return f.seed }

// value2 — решётчатый value-noise в двух измерениях (y лотка фиксирован),
// с трилинейной (тут билинейной) интерполяцией по smoothstep.
func (f *Field) value2(seedOffset int64, x, z float64) float64 {
	x0 := math.Floor(x)
	z0 := math.Floor(z)
	tx := mathx.Smoothstep(x - x0)
	tz := mathx.Smoothstep(z - z0)

	ix0, iz0 := int64(x0), int64(z0)
	v00 := mathx.Rand01(f.seed+seedOffset, ix0, 0, iz0)
	v10 := mathx.Rand01(f.seed+seedOffset, ix0+1, 0, iz0)
	v01 := mathx.Rand01(f.seed+seedOffset, ix0, 0, iz0+1)
	v11 := mathx.Rand01(f.seed+seedOffset, ix0+1, 0, iz0+1)

	a := mathx.Lerp(v00, v10, tx)
	b := mathx.Lerp(v01, v11, tx)
	return mathx.Lerp(a, b, tz)*2 - 1 // в [-1,1)
}

// value3 — решётчатый value-noise в трёх измерениях с трилинейной интерполяцией.
func (f *Field) value3(seedOffset int64, x, y, z float64) float64 {
	x0, y0, z0 := math.Floor(x), math.Floor(y), math.Floor(z)
	tx := mathx.Smoothstep(x - x0)
	ty := mathx.Smoothstep(y - y0)
	tz := mathx.Smoothstep(z - z0)

	ix0, iy0, iz0 := int64(x0), int64(y0), int64(z0)
	s := f.seed + seedOffset
	c000 := mathx.Rand01(s, ix0, iy0, iz0)
	c100 := mathx.Rand01(s, ix0+1, iy0, iz0)
	c010 := mathx.Rand01(s, ix0, iy0+1, iz0)
	c110 := mathx.Rand01(s, ix0+1, iy0+1, iz0)
	c001 := mathx.Rand01(s, ix0, iy0, iz0+1)
	c101 := mathx.Rand01(s, ix0+1, iy0, iz0+1)
	c011 := mathx.Rand01(s, ix0, iy0+1, iz0+1)
	c111 := mathx.Rand01(s, ix0+1, iy0+1, iz0+1)

	x00 := mathx.Lerp(c000, c100, tx)
	x10 := mathx.Lerp(c010, c110, tx)
	x01 := mathx.Lerp(c001, c101, tx)
	x11 := mathx.Lerp(c011, c111, tx)
	y0i := mathx.Lerp(x00, x10, ty)
	y1i := mathx.Lerp(x01, x11, ty)
	return mathx.Lerp(y0i, y1i, tz)*2 - 1
}

// fbm2 суммирует octaves слоёв value2 с удвоением частоты и делением пополам
// амплитуды на каждом слое; у каждой октавы свой сдвиг seed.
func (f *Field) fbm2(seedOffset int64, x, z float64, octaves int) float64 {
	sum, amp, freq := 0.0, 1.0, 1.0
	norm := 0.0
	for o := 0; o < octaves; o++ {
		sum += f.value2(seedOffset+int64(o)*1013, x*freq, z*freq) * amp
		norm += amp
		amp *= f.cfg.Gain
		freq *= f.cfg.Lacunarity
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}

// fbm3 — трёхмерный аналог fbm2, используемый для формы пещер.
func (f *Field) fbm3(seedOffset int64, x, y, z float64, octaves int) float64 {
	sum, amp, freq := 0.0, 1.0, 1.0
	norm := 0.0
	for o := 0; o < octaves; o++ {
		sum += f.value3(seedOffset+int64(o)*1013, x*freq, y*freq, z*freq) * amp
		norm += amp
		amp *= f.cfg.Gain
		freq *= f.cfg.Lacunarity
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}

const (
	baseScale   = 1.0 / 160.0
	detailScale = 1.0 / 40.0
	caveScaleA  = 1.0 / 24.0
	caveScaleB  = 1.0 / 17.0
)

// SurfaceHeight возвращает непрерывную мировую высоту Y поверхности в точке (wx, wz).
func (f *Field) SurfaceHeight(wx, wz float64) float64 {
	base := f.fbm2(0, wx*baseScale, wz*baseScale, f.cfg.Octaves)
	detail := f.fbm2(9001, wx*detailScale, wz*detailScale, 3)
	return f.cfg.SeaLevel + (base+detail*f.cfg.DetailWeight)*f.cfg.Amplitude
}

// caveTerm — абсолютное произведение двух рассогласованных fBm, определяющее
// форму пещерных полостей. Появляется только ниже surfaceY - CaveDepth.
func (f *Field) caveTerm(wx, wy, wz, surfaceY float64) float64 {
	if wy > surfaceY-f.cfg.CaveDepth {
		return 0
	}
	a := f.fbm3(4242, wx*caveScaleA, wy*caveScaleA, wz*caveScaleA, 3)
	b := f.fbm3(8484, wx*caveScaleB, wy*caveScaleB, wz*caveScaleB, 3)
	term := math.Abs(a*b) * f.cfg.Amplitude * 0.5
	return mathx.Clamp(term, 0, f.cfg.Amplitude)
}

// ScalarField — плотный блок PADDED³ значений плотности изоповерхности чанка.
// Отрицательные значения — внутри поверхности.
type ScalarField struct {
	Coord  coord.ChunkCoord
	Values [coord.PADDED][coord.PADDED][coord.PADDED]float32
}

// At возвращает значение в локальных индексах сэмплов [0, PADDED).
func (s *ScalarField) At(x, y, z int) float32 {
	return s.Values[x][y][z]
}

// Generate строит скалярное поле для чанка coord при данном seed. Функция
// чиста: одинаковые (coord, seed) всегда дают битово одинаковый результат,
// требование к детерминизму между пирами.
func (f *Field) Generate(cc coord.ChunkCoord) *ScalarField {
	out := &ScalarField{Coord: cc}
	origin := cc.Origin()
	for x := 0; x < coord.PADDED; x++ {
		wx := origin.X + float64(x)
		for z := 0; z < coord.PADDED; z++ {
			wz := origin.Z + float64(z)
			surfaceY := f.SurfaceHeight(wx, wz)
			for y := 0; y < coord.PADDED; y++ {
				wy := origin.Y + float64(y)
				density := (surfaceY - wy) + f.caveTerm(wx, wy, wz, surfaceY)
				density = mathx.Clamp(density, -2, 2)
				out.Values[x][y][z] = float32(-density)
			}
		}
	}
	return out
}
