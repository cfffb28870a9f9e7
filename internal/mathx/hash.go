// Package mathx содержит детерминированные примитивы хеширования и
// интерполяции, на которых строится генератор шума.
package mathx

// mix64 — широкий мультипликативный смеситель (вариант splitmix64 finalizer).
// Используется как основа хеша координат, чтобы generate(coord, seed) был
// битово одинаковым на всех пирах при одном seed.
func mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// Hash64 мешает seed с тремя целочисленными координатами в 64-битное число.
// Линейная комбинация координат намеренно использует разные простые
// множители по осям, чтобы избежать решётчатых артефактов на осях x=y или y=z.
func Hash64(seed int64, x, y, z int64) uint64 {
	h := uint64(seed)*0x9e3779b97f4a7c15 +
		uint64(x)*0xc2b2ae3d27d4eb4f +
		uint64(y)*0x165667b19e3779f9 +
		uint64(z)*0x27d4eb2f165667c5
	return mix64(h)
}

// Rand01 возвращает Hash64, приведённый к [0,1).
func Rand01(seed int64, x, y, z int64) float64 {
	h := Hash64(seed, x, y, z)
	// 53 значащих бита мантиссы float64 — берём старшие биты хеша.
	return float64(h>>11) / (1 << 53)
}

// Smoothstep — кубическая сглаживающая функция 3t²-2t³, t уже в [0,1].
func Smoothstep(t float64) float64 {
	return t * t * (3 - 2*t)
}

// Lerp — обычная линейная интерполяция.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Clamp ограничивает x диапазоном [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
