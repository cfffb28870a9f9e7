package playersim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxelcore/voxelcore/internal/coord"
	"github.com/voxelcore/voxelcore/internal/ecs"
	"github.com/voxelcore/voxelcore/internal/vec"
)

// fakePresence — управляемая вручную реализация ChunkPresence.
type fakePresence struct {
	present map[coord.ChunkCoord]bool
}

func (p *fakePresence) Has(cc coord.ChunkCoord) bool { return p.present[cc] }

// emptyTris — TriangleSource без единого треугольника: коллайдер всегда no-op.
type emptyTris struct{}

func (emptyTris) ChunksAround(coord.ChunkCoord, int32) []coord.ChunkCoord { return nil }
func (emptyTris) Triangles(coord.ChunkCoord) []vec.Vec3                   { return nil }

func newSim(t *testing.T) (*ecs.Registry, ecs.EntityID, *Sim) {
	t.Helper()
	reg := ecs.New()
	player := reg.SpawnPlayer(vec.Vec3{}, vec.Vec3{X: 0.5, Y: 1, Z: 0.5})
	sim := New(reg, player, DefaultConfig())
	return reg, player, sim
}

func TestGateReadyNarrowerThanSpawnProgress(t *testing.T) {
	_, _, sim := newSim(t)
	sim.SetSpawn(vec.Vec3{X: 0, Y: 0, Z: 0})
	spawnCC := coord.FromWorld(vec.Vec3{X: 0, Y: 0, Z: 0})
	below := spawnCC.Add(0, -1, 0)

	presence := &fakePresence{present: map[coord.ChunkCoord]bool{
		spawnCC: true,
		below:   true,
	}}

	assert.True(t, sim.gateReady(presence), "gateReady requires only the spawn cell and the one below it")
	progress := sim.SpawnProgress(presence)
	assert.Less(t, progress, 1.0, "SpawnProgress requires the full 27-chunk cube, so it must lag the narrow gate")
}

func TestUpdateDoesNothingBeforeGateReady(t *testing.T) {
	reg, player, sim := newSim(t)
	sim.SetSpawn(vec.Vec3{X: 100, Y: 50, Z: 100})
	presence := &fakePresence{present: map[coord.ChunkCoord]bool{}}

	tf := reg.Transform(player)
	before := tf.Pos
	sim.Update(1.0/60, Input{}, emptyTris{}, presence)

	assert.Equal(t, before, tf.Pos)
	assert.False(t, sim.IsSpawned())
}

func TestUpdateTeleportsToSpawnOnceGateOpens(t *testing.T) {
	reg, player, sim := newSim(t)
	spawnPos := vec.Vec3{X: 5, Y: 10, Z: -5}
	sim.SetSpawn(spawnPos)
	spawnCC := coord.FromWorld(spawnPos)
	below := spawnCC.Add(0, -1, 0)
	presence := &fakePresence{present: map[coord.ChunkCoord]bool{spawnCC: true, below: true}}

	sim.Update(1.0/60, Input{}, emptyTris{}, presence)

	require.True(t, sim.IsSpawned())
	tf := reg.Transform(player)
	assert.InDelta(t, spawnPos.X, tf.Pos.X, 1e-6)
	assert.InDelta(t, spawnPos.Y, tf.Pos.Y, 1e-6)
	assert.InDelta(t, spawnPos.Z, tf.Pos.Z, 1e-6)
}

func TestSprintDrainsStaminaAndDepletesIntoCooldown(t *testing.T) {
	reg, player, sim := newSim(t)
	sim.SetSpawn(vec.Vec3{})
	presence := &fakePresence{present: map[coord.ChunkCoord]bool{
		coord.FromWorld(vec.Vec3{}):              true,
		coord.FromWorld(vec.Vec3{}).Add(0, -1, 0): true,
	}}
	sim.Update(0, Input{}, emptyTris{}, presence) // открывает ворота без продвижения времени

	sta := reg.StaminaOf(player)
	sta.Current = 5 // чуть меньше, чем расход за один длинный тик спринта

	in := Input{WishDir: vec.Vec3{Z: -1}, Sprint: true}
	sim.Update(1.0, in, emptyTris{}, presence)

	assert.True(t, sta.Depleted)
	assert.InDelta(t, 0, sta.Current, 1e-9)
	assert.Greater(t, sta.Cooldown, 0.0)
}

func TestStaminaRegensOnlyAfterCooldownExpires(t *testing.T) {
	reg, player, sim := newSim(t)
	sta := reg.StaminaOf(player)
	sta.Depleted = true
	sta.Cooldown = 0.1
	sta.Current = 0

	sim.tickStamina(sta, 0.05)
	assert.True(t, sta.Depleted, "cooldown hasn't fully elapsed yet")
	assert.InDelta(t, 0, sta.Current, 1e-9)

	sim.tickStamina(sta, 0.2)
	assert.False(t, sta.Depleted)
	assert.Greater(t, sta.Current, 0.0)
}

func TestJumpConsumesStaminaAndSetsUpwardVelocity(t *testing.T) {
	reg, player, sim := newSim(t)
	sim.SetSpawn(vec.Vec3{X: 0, Y: 1, Z: 0})
	spawnCC := coord.FromWorld(vec.Vec3{X: 0, Y: 1, Z: 0})
	presence := &fakePresence{present: map[coord.ChunkCoord]bool{
		spawnCC:             true,
		spawnCC.Add(0, -1, 0): true,
	}}
	sim.Update(0, Input{}, emptyTris{}, presence)

	gr := reg.GroundedOf(player)
	gr.Grounded = true
	sta := reg.StaminaOf(player)
	staBefore := sta.Current

	sim.Update(1.0/60, Input{JumpPress: true}, emptyTris{}, presence)

	vel := reg.Velocity(player)
	assert.Less(t, sta.Current, staBefore)
	assert.Greater(t, vel.Vel.Y, 0.0)
}

func TestAccelerateDoesNotExceedWishSpeed(t *testing.T) {
	v := accelerate(vec.Vec3{}, vec.Vec3{X: 1}, 8.0, 15.0, 10.0) // большой dt должен всё равно ограничиться wishSpeed
	assert.InDelta(t, 8.0, v.X, 1e-9)
}

func TestAccelerateDoesNotSlowFasterExistingVelocity(t *testing.T) {
	v := accelerate(vec.Vec3{X: 20}, vec.Vec3{X: 1}, 8.0, 15.0, 1.0/60)
	assert.InDelta(t, 20.0, v.X, 1e-9, "already exceeding wishSpeed in wishDir must not be slowed by accelerate")
}
