package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxelcore/voxelcore/internal/ecs"
	"github.com/voxelcore/voxelcore/internal/vec"
)

func newPlayer(t *testing.T) (*ecs.Registry, *Core, ecs.EntityID) {
	t.Helper()
	reg := ecs.New()
	player := reg.SpawnPlayer(vec.Vec3{}, vec.Vec3{X: 0.5, Y: 1, Z: 0.5})
	return reg, New(reg), player
}

func TestLightAttackFSMSequence(t *testing.T) {
	reg, core, player := newPlayer(t)
	core.LightAttack(player, vec.Vec3{Z: -1})

	atk := reg.AttackOf(player)
	require.Equal(t, ecs.AttackStartup, atk.State)
	assert.InDelta(t, ecs.LightAttack.Startup, atk.Timer, 1e-9)

	core.Update(ecs.LightAttack.Startup, player)
	assert.Equal(t, ecs.AttackActive, atk.State)
	assert.InDelta(t, ecs.LightAttack.Active, atk.Timer, 1e-9)

	core.Update(ecs.LightAttack.Active, player)
	assert.Equal(t, ecs.AttackRecovery, atk.State)
	assert.InDelta(t, ecs.LightAttack.Recovery, atk.Timer, 1e-9)

	core.Update(ecs.LightAttack.Recovery, player)
	assert.Equal(t, ecs.AttackIdle, atk.State)
	assert.Nil(t, atk.Data)
}

func TestAttackWhileNotIdleIsIgnored(t *testing.T) {
	reg, core, player := newPlayer(t)
	core.LightAttack(player, vec.Vec3{Z: -1})
	staBefore := reg.StaminaOf(player).Current

	core.HeavyAttack(player, vec.Vec3{Z: -1}) // должно быть отброшено: уже не Idle

	atk := core.reg.AttackOf(player)
	assert.Equal(t, &ecs.LightAttack, atk.Data, "вторая атака не должна прервать первую")
	assert.InDelta(t, staBefore, reg.StaminaOf(player).Current, 1e-9, "отброшенный запрос не должен списывать стамину")
}

func TestHeavyAttackWithoutStaminaIsRejected(t *testing.T) {
	reg, core, player := newPlayer(t)
	reg.StaminaOf(player).Current = 10 // меньше heavyStaminaCost=25

	core.HeavyAttack(player, vec.Vec3{Z: -1})

	atk := reg.AttackOf(player)
	assert.True(t, atk.IsIdle(), "тяжёлая атака без стамины не должна запускаться")
	assert.InDelta(t, 10, reg.StaminaOf(player).Current, 1e-9)
}

func TestHeavyAttackSpendsStamina(t *testing.T) {
	reg, core, player := newPlayer(t)
	core.HeavyAttack(player, vec.Vec3{Z: -1})

	assert.InDelta(t, 100-heavyStaminaCost, reg.StaminaOf(player).Current, 1e-9)
	assert.Equal(t, ecs.AttackStartup, reg.AttackOf(player).State)
}

func TestParrySuccessGrantsInvincibilityAndShortCircuitsDamage(t *testing.T) {
	reg, core, player := newPlayer(t)
	core.Parry(player)
	require.Equal(t, ecs.ParryActive, reg.ParryOf(player).State)

	enemy := core.SpawnEnemy(vec.Vec3{})
	core.startAttack(enemy, &ecs.LightAttack, vec.Vec3{Z: 1})
	// перематываем до фазы Active вражеской атаки, где эмитится хитбокс.
	core.tickAttacks(ecs.LightAttack.Startup, player)

	hpBefore := reg.HealthOf(player).Current
	core.resolveHits(player)

	assert.Equal(t, hpBefore, reg.HealthOf(player).Current, "успешное парирование не должно наносить урон")
	assert.Equal(t, ecs.ParryCooldown, reg.ParryOf(player).State)
	inv, ok := reg.Invincible(player)
	require.True(t, ok)
	assert.InDelta(t, parrySuccessInvincible, inv.Timer, 1e-9)
}

func TestEnemyHitWithoutParryDamagesPlayer(t *testing.T) {
	reg, core, player := newPlayer(t)
	enemy := core.SpawnEnemy(vec.Vec3{})
	core.startAttack(enemy, &ecs.LightAttack, vec.Vec3{Z: 1})
	core.tickAttacks(ecs.LightAttack.Startup, player)

	hpBefore := reg.HealthOf(player).Current
	core.resolveHits(player)

	assert.Less(t, reg.HealthOf(player).Current, hpBefore)
	inv, ok := reg.Invincible(player)
	require.True(t, ok)
	assert.InDelta(t, hitInvincible, inv.Timer, 1e-9)
}

func TestHitboxFacesAttackDirectionNotBehindIt(t *testing.T) {
	reg, core, player := newPlayer(t)
	enemy := core.SpawnEnemy(vec.Vec3{X: 1, Y: 0, Z: 0})

	core.LightAttack(player, vec.Vec3{X: 1, Y: 0, Z: 0})
	core.tickAttacks(ecs.LightAttack.Startup, player)
	core.resolveHits(player)

	assert.Less(t, reg.HealthOf(enemy).Current, reg.HealthOf(enemy).Max,
		"хитбокс должен эмитироваться перед атакующим по направлению facing, а не позади него")
}

func TestDodgeGrantsIFramesAtStartOfRoll(t *testing.T) {
	reg, core, player := newPlayer(t)
	core.Dodge(player, vec.Vec3{Z: -1})

	dod := reg.DodgeOf(player)
	require.Equal(t, ecs.DodgeRolling, dod.State)
	assert.True(t, dod.HasIFrames(), "i-frames действуют с самого начала переката")

	dod.Timer = ecs.DodgeDuration - ecs.DodgeIFrames - 0.01
	assert.False(t, dod.HasIFrames(), "после первых IFRAMES секунд i-frames заканчиваются")
}

func TestDodgeRejectedWithoutStamina(t *testing.T) {
	reg, core, player := newPlayer(t)
	reg.StaminaOf(player).Current = 5 // меньше DodgeStamCost=20

	core.Dodge(player, vec.Vec3{Z: -1})

	assert.Equal(t, ecs.DodgeIdle, reg.DodgeOf(player).State)
}

func TestDodgeRejectedWhileAttacking(t *testing.T) {
	reg, core, player := newPlayer(t)
	core.LightAttack(player, vec.Vec3{Z: -1})

	core.Dodge(player, vec.Vec3{Z: -1})

	assert.Equal(t, ecs.DodgeIdle, reg.DodgeOf(player).State, "нельзя увернуться во время атаки")
}

func TestEnemyAIPatrolToAggroToAttack(t *testing.T) {
	reg, core, player := newPlayer(t)
	enemy := core.SpawnEnemy(vec.Vec3{X: 20, Y: 0, Z: 0})
	en := reg.EnemyOf(enemy)
	require.Equal(t, ecs.EnemyPatrol, en.AI)

	// игрок ещё далеко — остаёмся в патруле.
	core.tickEnemyAI(0.1, player)
	assert.Equal(t, ecs.EnemyPatrol, en.AI)

	// приближаем игрока в радиус агро.
	reg.Transform(enemy).Pos = vec.Vec3{X: 5, Y: 0, Z: 0}
	core.tickEnemyAI(0.1, player)
	assert.Equal(t, ecs.EnemyAggro, en.AI)

	// сдвигаем противника вплотную для перехода в атаку.
	reg.Transform(enemy).Pos = vec.Vec3{X: 1, Y: 0, Z: 0}
	core.tickEnemyAI(0.1, player)
	assert.Equal(t, ecs.EnemyAttack, en.AI)
}

func TestEnemyDiesAtZeroHealth(t *testing.T) {
	reg, core, player := newPlayer(t)
	enemy := core.SpawnEnemy(vec.Vec3{})
	reg.HealthOf(enemy).Current = 1

	core.LightAttack(player, vec.Vec3{Z: -1})
	core.tickAttacks(ecs.LightAttack.Startup, player)
	core.resolveHits(player)

	assert.True(t, reg.HealthOf(enemy).Dead)
	assert.Equal(t, ecs.EnemyDead, reg.EnemyOf(enemy).AI)
	assert.InDelta(t, 0, reg.HealthOf(enemy).Current, 1e-9)
}
