package ecs

import "github.com/voxelcore/voxelcore/internal/vec"

// Transform — мировая позиция сущности.
type Transform struct {
	Pos vec.Vec3
}

// Velocity — вектор скорости в единицах/сек.
type Velocity struct {
	Vel vec.Vec3
}

// AABB — половинные размеры бокса сущности, центрированного на Transform.Pos.
type AABB struct {
	Half vec.Vec3
}

// Grounded — флаг касания земли, обновляется коллайдером на каждом суб-шаге.
type Grounded struct {
	Grounded bool
}

// Stamina — расходуемый ресурс для спринта, прыжков и уворотов.
type Stamina struct {
	Current, Max float64
	Regen        float64
	SprintCost   float64 // расход в секунду при спринте
	JumpCost     float64
	Depleted     bool
	Cooldown     float64 // оставшееся время до возобновления регенерации
}

// Health — очки здоровья и флаг смерти.
type Health struct {
	Current, Max float64
	Dead         bool
}

// AttackState — состояние конечного автомата атаки.
type AttackState int

const (
	AttackIdle AttackState = iota
	AttackStartup
	AttackActive
	AttackRecovery
)

// Attack — текущая фаза атаки и оставшееся время фазы.
type Attack struct {
	State AttackState
	Timer float64
	Data  *AttackData
}

func (a *Attack) IsIdle() bool   { return a.State == AttackIdle }
func (a *Attack) IsActive() bool { return a.State == AttackActive }
func (a *Attack) CanAct() bool   { return a.State == AttackIdle }

// ParryState — состояние конечного автомата парирования.
type ParryState int

const (
	ParryIdle ParryState = iota
	ParryActive
	ParryCooldown
)

const (
	ParryWindow   = 0.20
	ParryCooldownSec = 0.50
)

// Parry — окно парирования.
type Parry struct {
	State ParryState
	Timer float64
}

func (p *Parry) IsActive() bool { return p.State == ParryActive }

// DodgeState — состояние конечного автомата уворота.
type DodgeState int

const (
	DodgeIdle DodgeState = iota
	DodgeRolling
	DodgeCooldown
)

const (
	DodgeDuration = 0.30
	DodgeIFrames  = 0.20
	DodgeCooldownSec = 0.50
	DodgeStamCost = 20.0
)

// Dodge — перекат с окном неуязвимости в начале.
type Dodge struct {
	State DodgeState
	Timer float64
	Dir   vec.Vec3
	Speed float64
}

func (d *Dodge) IsRolling() bool { return d.State == DodgeRolling }
func (d *Dodge) CanDodge() bool  { return d.State == DodgeIdle }

// HasIFrames — истинно в первые IFRAMES секунд переката (пока Timer > DURATION − IFRAMES).
func (d *Dodge) HasIFrames() bool {
	return d.State == DodgeRolling && d.Timer > (DodgeDuration-DodgeIFrames)
}

// Invincible — оставшееся время неуязвимости к урону.
type Invincible struct {
	Timer float64
}

// HitThisFrame — одноразовая сущность урона, живущая один тик.
type HitThisFrame struct {
	WorldMin, WorldMax vec.Vec3
	Damage             float64
	Knockback          float64
	KnockDir           vec.Vec3
	FromPlayer         bool
}

// EnemyAI — состояние конечного автомата ИИ противника.
type EnemyAI int

const (
	EnemyPatrol EnemyAI = iota
	EnemyAggro
	EnemyAttack
	EnemyDead
)

// Enemy — простой куб-противник.
type Enemy struct {
	AI             EnemyAI
	PatrolOrigin   vec.Vec3
	AggroRange     float64
	AttackRange    float64
	AttackTimer    float64
	AttackCooldown float64
	KnockbackVel   vec.Vec3
}

// AttackData — неизменяемое описание одной атаки: тайминги фаз, урон и
// геометрия хитбокса относительно атакующего.
type AttackData struct {
	Startup, Active, Recovery float64
	Damage, Knockback         float64
	HitboxOffset              vec.Vec3
	HitboxHalf                vec.Vec3
}

// LightAttack и HeavyAttack — канонический набор атак мечом.
var (
	LightAttack = AttackData{
		Startup: 0.15, Active: 0.10, Recovery: 0.30,
		Damage: 15, Knockback: 3,
		HitboxOffset: vec.Vec3{X: 0, Y: 0, Z: -0.9},
		HitboxHalf:   vec.Vec3{X: 0.4, Y: 0.6, Z: 0.5},
	}
	HeavyAttack = AttackData{
		Startup: 0.30, Active: 0.15, Recovery: 0.55,
		Damage: 35, Knockback: 7,
		HitboxOffset: vec.Vec3{X: 0, Y: 0, Z: -1.1},
		HitboxHalf:   vec.Vec3{X: 0.6, Y: 0.7, Z: 0.6},
	}
)
