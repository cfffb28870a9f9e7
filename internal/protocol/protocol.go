// Package protocol реализует проводной формат сообщений: один байт тега,
// за которым следуют поля в big-endian. Пакет не знает ничего о транспорте —
// только кодирует/декодирует байтовые срезы.
package protocol

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/voxelcore/voxelcore/internal/coord"
	"github.com/voxelcore/voxelcore/internal/mesher"
	"github.com/voxelcore/voxelcore/internal/vec"
)

// Tag — однобайтовый идентификатор типа сообщения.
type Tag byte

const (
	TagChunkData      Tag = 0x01
	TagPlayerMove     Tag = 0x02
	TagPlayerJoin     Tag = 0x03
	TagPlayerLeave    Tag = 0x04
	TagSpawnPosition  Tag = 0x05
	TagRespawnRequest Tag = 0x06
)

// DecodeError — типизированная ошибка разбора пакета: неизвестный тег,
// обрезанный буфер или переполнение счётчика относительно длины буфера.
// Частичное состояние никогда не возвращается вызывающей стороне.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string { return "protocol: decode error: " + e.Reason }

func errTruncated() error    { return &DecodeError{Reason: "truncated buffer"} }
func errUnknownTag(t byte) error {
	return &DecodeError{Reason: fmt.Sprintf("unknown tag 0x%02x", t)}
}
func errOverflow() error { return &DecodeError{Reason: "count overflow against buffer length"} }

// --- примитивные кодеры ------------------------------------------------

func putU32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func putI32(buf []byte, v int32) []byte {
	return putU32(buf, uint32(v))
}

func putF32(buf []byte, v float32) []byte {
	return putU32(buf, math.Float32bits(v))
}

type reader struct {
	buf []byte
	pos int
}

func (r *reader) remaining() int { return len(r.buf) - r.pos }

func (r *reader) u32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, errTruncated()
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) i32() (int32, error) {
	v, err := r.u32()
	return int32(v), err
}

func (r *reader) f32() (float32, error) {
	v, err := r.u32()
	if err != nil {
		return 0, err
	}
	f := math.Float32frombits(v)
	if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
		return 0, &DecodeError{Reason: "non-finite float"}
	}
	return f, nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, errTruncated()
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// --- ChunkData -----------------------------------------------------------

// EncodeChunkData сериализует меш чанка в проводной формат: тег, координата
// (i32×3), список вершин (px,py,pz,nx,ny,nz × f32), список индексов (u32).
func EncodeChunkData(m *mesher.Mesh) []byte {
	buf := make([]byte, 0, 1+12+4+len(m.Vertices)*24+4+len(m.Indices)*4)
	buf = append(buf, byte(TagChunkData))
	buf = putI32(buf, m.Coord.X)
	buf = putI32(buf, m.Coord.Y)
	buf = putI32(buf, m.Coord.Z)
	buf = putU32(buf, uint32(len(m.Vertices)))
	for _, v := range m.Vertices {
		buf = putF32(buf, float32(v.Pos.X))
		buf = putF32(buf, float32(v.Pos.Y))
		buf = putF32(buf, float32(v.Pos.Z))
		buf = putF32(buf, float32(v.Normal.X))
		buf = putF32(buf, float32(v.Normal.Y))
		buf = putF32(buf, float32(v.Normal.Z))
	}
	buf = putU32(buf, uint32(len(m.Indices)))
	for _, idx := range m.Indices {
		buf = putU32(buf, idx)
	}
	return buf
}

// DecodeChunkData разбирает тело ChunkData, начиная сразу после тега.
func DecodeChunkData(body []byte) (*mesher.Mesh, error) {
	r := &reader{buf: body}
	cx, err := r.i32()
	if err != nil {
		return nil, err
	}
	cy, err := r.i32()
	if err != nil {
		return nil, err
	}
	cz, err := r.i32()
	if err != nil {
		return nil, err
	}
	vcount, err := r.u32()
	if err != nil {
		return nil, err
	}
	if int64(vcount)*24 > int64(r.remaining()) {
		return nil, errOverflow()
	}
	m := &mesher.Mesh{Coord: coord.ChunkCoord{X: cx, Y: cy, Z: cz}}
	m.Vertices = make([]mesher.Vertex, vcount)
	for i := range m.Vertices {
		px, err := r.f32()
		if err != nil {
			return nil, err
		}
		py, err := r.f32()
		if err != nil {
			return nil, err
		}
		pz, err := r.f32()
		if err != nil {
			return nil, err
		}
		nx, err := r.f32()
		if err != nil {
			return nil, err
		}
		ny, err := r.f32()
		if err != nil {
			return nil, err
		}
		nz, err := r.f32()
		if err != nil {
			return nil, err
		}
		m.Vertices[i] = mesher.Vertex{
			Pos:    vec.Vec3{X: float64(px), Y: float64(py), Z: float64(pz)},
			Normal: vec.Vec3{X: float64(nx), Y: float64(ny), Z: float64(nz)},
		}
	}
	icount, err := r.u32()
	if err != nil {
		return nil, err
	}
	if int64(icount)*4 > int64(r.remaining()) {
		return nil, errOverflow()
	}
	m.Indices = make([]uint32, icount)
	for i := range m.Indices {
		v, err := r.u32()
		if err != nil {
			return nil, err
		}
		m.Indices[i] = v
	}
	return m, nil
}

// --- PlayerMove ------------------------------------------------------------

// PlayerMove — x,y,z,yaw,pitch как пять f32.
type PlayerMove struct {
	X, Y, Z, Yaw, Pitch float32
}

func EncodePlayerMove(p PlayerMove) []byte {
	buf := make([]byte, 0, 21)
	buf = append(buf, byte(TagPlayerMove))
	buf = putF32(buf, p.X)
	buf = putF32(buf, p.Y)
	buf = putF32(buf, p.Z)
	buf = putF32(buf, p.Yaw)
	buf = putF32(buf, p.Pitch)
	return buf
}

func DecodePlayerMove(body []byte) (PlayerMove, error) {
	r := &reader{buf: body}
	var p PlayerMove
	var err error
	if p.X, err = r.f32(); err != nil {
		return p, err
	}
	if p.Y, err = r.f32(); err != nil {
		return p, err
	}
	if p.Z, err = r.f32(); err != nil {
		return p, err
	}
	if p.Yaw, err = r.f32(); err != nil {
		return p, err
	}
	if p.Pitch, err = r.f32(); err != nil {
		return p, err
	}
	return p, nil
}

// --- SpawnPosition -----------------------------------------------------

func EncodeSpawnPosition(p vec.Vec3) []byte {
	buf := make([]byte, 0, 13)
	buf = append(buf, byte(TagSpawnPosition))
	buf = putF32(buf, float32(p.X))
	buf = putF32(buf, float32(p.Y))
	buf = putF32(buf, float32(p.Z))
	return buf
}

func DecodeSpawnPosition(body []byte) (vec.Vec3, error) {
	r := &reader{buf: body}
	x, err := r.f32()
	if err != nil {
		return vec.Vec3{}, err
	}
	y, err := r.f32()
	if err != nil {
		return vec.Vec3{}, err
	}
	z, err := r.f32()
	if err != nil {
		return vec.Vec3{}, err
	}
	return vec.Vec3{X: float64(x), Y: float64(y), Z: float64(z)}, nil
}

// --- PlayerJoin / PlayerLeave --------------------------------------------

func EncodePlayerJoin(name string) []byte {
	nb := []byte(name)
	buf := make([]byte, 0, 5+len(nb))
	buf = append(buf, byte(TagPlayerJoin))
	buf = putU32(buf, uint32(len(nb)))
	buf = append(buf, nb...)
	return buf
}

func DecodePlayerJoin(body []byte) (string, error) {
	r := &reader{buf: body}
	n, err := r.u32()
	if err != nil {
		return "", err
	}
	if int64(n) > int64(r.remaining()) {
		return "", errOverflow()
	}
	b, err := r.bytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func EncodePlayerLeave() []byte {
	return []byte{byte(TagPlayerLeave)}
}

func EncodeRespawnRequest() []byte {
	return []byte{byte(TagRespawnRequest)}
}

// --- диспетчер верхнего уровня ------------------------------------------

// PeekTag возвращает тег сообщения без его разбора; buf должен содержать
// хотя бы один байт.
func PeekTag(buf []byte) (Tag, error) {
	if len(buf) < 1 {
		return 0, errTruncated()
	}
	return Tag(buf[0]), nil
}

// ValidTag сообщает, известен ли тег протоколу.
func ValidTag(t Tag) bool {
	switch t {
	case TagChunkData, TagPlayerMove, TagPlayerJoin, TagPlayerLeave, TagSpawnPosition, TagRespawnRequest:
		return true
	default:
		return false
	}
}

// Body возвращает срез сообщения после тега, либо ошибку, если тег неизвестен.
func Body(buf []byte) (Tag, []byte, error) {
	tag, err := PeekTag(buf)
	if err != nil {
		return 0, nil, err
	}
	if !ValidTag(tag) {
		return 0, nil, errUnknownTag(byte(tag))
	}
	return tag, buf[1:], nil
}
