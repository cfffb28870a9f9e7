// Package combat реализует конечные автоматы атаки/парирования/уворота,
// эмиссию хитбоксов, разрешение попаданий и простой ИИ противников поверх
// арены сущностей internal/ecs.
package combat

import (
	"math"

	"github.com/voxelcore/voxelcore/internal/ecs"
	"github.com/voxelcore/voxelcore/internal/vec"
)

const (
	heavyStaminaCost = 25.0

	parrySuccessInvincible = 0.5
	hitInvincible          = 0.3

	enemyWalkSpeed    = 3.5
	enemyKnockFriction = 10.0
)

func aabbOverlap(minA, maxA, minB, maxB vec.Vec3) bool {
	return minA.X <= maxB.X && maxA.X >= minB.X &&
		minA.Y <= maxB.Y && maxA.Y >= minB.Y &&
		minA.Z <= maxB.Z && maxA.Z >= minB.Z
}

// Core — боевое состояние, разделяемое всеми сущностями в реестре. Держит
// направление лица атакующего на время атаки и список висящих хитбоксов —
// ровно как в исходном CombatSystem, только без владеющих указателей.
type Core struct {
	reg *ecs.Registry

	facing      map[ecs.EntityID]vec.Vec3
	pendingHits []ecs.EntityID
}

// New создаёт боевое ядро над уже существующим реестром.
func New(reg *ecs.Registry) *Core {
	return &Core{reg: reg, facing: make(map[ecs.EntityID]vec.Vec3)}
}

// ── Входной интерфейс игрока ────────────────────────────────────────────────

// LightAttack запрашивает лёгкую атаку в направлении facing (мировые XZ).
func (c *Core) LightAttack(e ecs.EntityID, facing vec.Vec3) {
	c.startAttack(e, &ecs.LightAttack, facing)
}

// HeavyAttack запрашивает тяжёлую атаку; требует ≥25 стамины. Стамина
// списывается только если атака действительно началась — запрос, отброшенный
// startAttack (сущность не Idle), не должен иметь побочных эффектов.
func (c *Core) HeavyAttack(e ecs.EntityID, facing vec.Vec3) {
	sta := c.reg.StaminaOf(e)
	if sta == nil || sta.Current < heavyStaminaCost || sta.Depleted {
		return
	}
	if !c.startAttack(e, &ecs.HeavyAttack, facing) {
		return
	}
	sta.Current -= heavyStaminaCost
}

// Parry открывает окно парирования, если атака и парирование сейчас Idle.
func (c *Core) Parry(e ecs.EntityID) {
	atk := c.reg.AttackOf(e)
	par := c.reg.ParryOf(e)
	if atk == nil || par == nil {
		return
	}
	if !atk.IsIdle() || par.State != ecs.ParryIdle {
		return
	}
	par.State = ecs.ParryActive
	par.Timer = ecs.ParryWindow
}

// Dodge запускает перекат в направлении wishDir (нормализуется здесь).
func (c *Core) Dodge(e ecs.EntityID, wishDir vec.Vec3) {
	dod := c.reg.DodgeOf(e)
	sta := c.reg.StaminaOf(e)
	atk := c.reg.AttackOf(e)
	if dod == nil || sta == nil || atk == nil {
		return
	}
	if !dod.CanDodge() || sta.Depleted || sta.Current < ecs.DodgeStamCost {
		return
	}
	if !atk.IsIdle() {
		return
	}
	sta.Current -= ecs.DodgeStamCost
	dod.State = ecs.DodgeRolling
	dod.Timer = ecs.DodgeDuration
	if wishDir.LengthSq() > 1e-6 {
		dod.Dir = wishDir.Normalized()
	} else {
		dod.Dir = vec.Vec3{Z: -1}
	}
}

// DodgeVelocity возвращает вектор скорости переката, либо ноль вне переката.
func (c *Core) DodgeVelocity(e ecs.EntityID) vec.Vec3 {
	dod := c.reg.DodgeOf(e)
	if dod == nil || !dod.IsRolling() {
		return vec.Vec3{}
	}
	return dod.Dir.Scale(dod.Speed)
}

// IsDodging сообщает, находится ли сущность в фазе переката.
func (c *Core) IsDodging(e ecs.EntityID) bool {
	dod := c.reg.DodgeOf(e)
	return dod != nil && dod.IsRolling()
}

// SpawnEnemy создаёт куб-противника в заданной точке.
func (c *Core) SpawnEnemy(pos vec.Vec3) ecs.EntityID {
	return c.reg.SpawnEnemy(pos)
}

// ── Тик за тиком ─────────────────────────────────────────────────────────────

// Update прогоняет один боевой тик в фиксированном порядке фаз (см. §5
// модели конкурентности): порядок обязателен для корректной семантики
// парирования на попадании.
func (c *Core) Update(dt float64, player ecs.EntityID) {
	c.tickAttacks(dt, player)
	c.tickParry(dt, player)
	c.tickDodge(dt, player)
	c.tickInvincibility(dt)
	c.tickEnemyAI(dt, player)
	c.resolveHits(player)
	c.clearHits()
	c.tickEnemyKnockback(dt)
}

// startAttack transitions e into AttackStartup if it is currently Idle,
// reporting whether the transition happened so callers can gate their own
// side effects (stamina cost) on it.
func (c *Core) startAttack(e ecs.EntityID, data *ecs.AttackData, facing vec.Vec3) bool {
	atk := c.reg.AttackOf(e)
	if atk == nil || !atk.IsIdle() {
		return false
	}
	atk.Data = data
	atk.State = ecs.AttackStartup
	atk.Timer = data.Startup
	flat := vec.Vec3{X: facing.X, Z: facing.Z}
	c.facing[e] = flat.Normalized()
	return true
}

func (c *Core) tickAttacks(dt float64, player ecs.EntityID) {
	c.reg.EachAttack(func(id ecs.EntityID, atk *ecs.Attack, tf *ecs.Transform) {
		if atk.IsIdle() {
			return
		}
		atk.Timer -= dt
		if atk.Timer > 0 {
			return
		}
		switch atk.State {
		case ecs.AttackStartup:
			atk.State = ecs.AttackActive
			atk.Timer = atk.Data.Active
			c.emitHitbox(id, atk, id == player)
		case ecs.AttackActive:
			atk.State = ecs.AttackRecovery
			atk.Timer = atk.Data.Recovery
		case ecs.AttackRecovery:
			atk.State = ecs.AttackIdle
			atk.Timer = 0
			atk.Data = nil
		}
	})
}

func (c *Core) emitHitbox(attacker ecs.EntityID, atk *ecs.Attack, fromPlayer bool) {
	tf := c.reg.Transform(attacker)
	if tf == nil {
		return
	}
	facing, ok := c.facing[attacker]
	if !ok {
		facing = vec.Vec3{Z: -1}
	}
	// vec.RotateYaw rotates (0,0,-1) to facing via X: v.X*c+v.Z*s, Z: -v.X*s+v.Z*c,
	// so the angle that carries the canonical forward onto facing is
	// atan2(-facing.X, -facing.Z), not atan2(facing.X, facing.Z).
	yaw := math.Atan2(-facing.X, -facing.Z)
	rotOff := atk.Data.HitboxOffset.RotateYaw(yaw)
	centre := tf.Pos.Add(rotOff)

	id := c.reg.AddHit(ecs.HitThisFrame{
		WorldMin:   centre.Sub(atk.Data.HitboxHalf),
		WorldMax:   centre.Add(atk.Data.HitboxHalf),
		Damage:     atk.Data.Damage,
		Knockback:  atk.Data.Knockback,
		KnockDir:   facing,
		FromPlayer: fromPlayer,
	})
	c.pendingHits = append(c.pendingHits, id)
}

func (c *Core) tickParry(dt float64, player ecs.EntityID) {
	par := c.reg.ParryOf(player)
	if par == nil || par.State == ecs.ParryIdle {
		return
	}
	par.Timer -= dt
	if par.Timer > 0 {
		return
	}
	if par.State == ecs.ParryActive {
		par.State = ecs.ParryCooldown
		par.Timer = ecs.ParryCooldownSec
	} else {
		par.State = ecs.ParryIdle
	}
}

func (c *Core) tickDodge(dt float64, player ecs.EntityID) {
	dod := c.reg.DodgeOf(player)
	if dod == nil || dod.State == ecs.DodgeIdle {
		return
	}
	dod.Timer -= dt
	if dod.Timer > 0 {
		return
	}
	if dod.State == ecs.DodgeRolling {
		dod.State = ecs.DodgeCooldown
		dod.Timer = ecs.DodgeCooldownSec
	} else {
		dod.State = ecs.DodgeIdle
	}
}

func (c *Core) tickInvincibility(dt float64) {
	var expired []ecs.EntityID
	c.reg.EachInvincible(func(id ecs.EntityID, inv *ecs.Invincible) {
		inv.Timer -= dt
		if inv.Timer <= 0 {
			expired = append(expired, id)
		}
	})
	for _, id := range expired {
		c.reg.ClearInvincible(id)
	}
}

func (c *Core) resolveHits(player ecs.EntityID) {
	for _, hitID := range c.pendingHits {
		h := c.reg.HitOf(hitID)
		if h == nil {
			continue
		}
		if h.FromPlayer {
			c.resolvePlayerHit(h)
			continue
		}
		c.resolveEnemyHit(h, player)
	}
}

func (c *Core) resolvePlayerHit(h *ecs.HitThisFrame) {
	c.reg.EachEnemy(func(id ecs.EntityID, tf *ecs.Transform, en *ecs.Enemy, atk *ecs.Attack, hp *ecs.Health) {
		if hp == nil || hp.Dead {
			return
		}
		mn := tf.Pos.Sub(c.reg.AABBOf(id).Half)
		mx := tf.Pos.Add(c.reg.AABBOf(id).Half)
		if !aabbOverlap(h.WorldMin, h.WorldMax, mn, mx) {
			return
		}
		hp.Current -= h.Damage
		en.KnockbackVel = h.KnockDir.Scale(h.Knockback)
		if hp.Current <= 0 {
			hp.Current = 0
			hp.Dead = true
			en.AI = ecs.EnemyDead
		}
	})
}

func (c *Core) resolveEnemyHit(h *ecs.HitThisFrame, player ecs.EntityID) {
	if !c.reg.Valid(player) {
		return
	}
	hp := c.reg.HealthOf(player)
	tf := c.reg.Transform(player)
	box := c.reg.AABBOf(player)
	par := c.reg.ParryOf(player)
	dod := c.reg.DodgeOf(player)
	if hp == nil || hp.Dead {
		return
	}
	if _, invincible := c.reg.Invincible(player); invincible {
		return
	}
	if dod != nil && dod.HasIFrames() {
		return
	}
	mn := tf.Pos.Sub(box.Half)
	mx := tf.Pos.Add(box.Half)
	if !aabbOverlap(h.WorldMin, h.WorldMax, mn, mx) {
		return
	}
	if par != nil && par.IsActive() {
		par.State = ecs.ParryCooldown
		par.Timer = ecs.ParryCooldownSec
		c.reg.SetInvincible(player, parrySuccessInvincible)
		return
	}
	hp.Current -= h.Damage
	c.reg.SetInvincible(player, hitInvincible)
	if hp.Current <= 0 {
		hp.Current = 0
		hp.Dead = true
	}
}

func (c *Core) clearHits() {
	for _, id := range c.pendingHits {
		c.reg.Destroy(id)
	}
	c.pendingHits = c.pendingHits[:0]
}

func (c *Core) tickEnemyAI(dt float64, player ecs.EntityID) {
	if !c.reg.Valid(player) {
		return
	}
	pTF := c.reg.Transform(player)
	pHP := c.reg.HealthOf(player)

	c.reg.EachEnemy(func(id ecs.EntityID, tf *ecs.Transform, en *ecs.Enemy, atk *ecs.Attack, hp *ecs.Health) {
		if hp == nil || hp.Dead {
			return
		}
		dist := pTF.Pos.DistanceTo(tf.Pos)

		switch en.AI {
		case ecs.EnemyPatrol:
			if (pHP == nil || !pHP.Dead) && dist < en.AggroRange {
				en.AI = ecs.EnemyAggro
			}
		case ecs.EnemyAggro:
			if dist > en.AggroRange*1.5 {
				en.AI = ecs.EnemyPatrol
				return
			}
			dir := pTF.Pos.Sub(tf.Pos)
			if l := dir.Length(); l > 1e-2 {
				tf.Pos = tf.Pos.Add(dir.Scale(1 / l).Scale(enemyWalkSpeed * dt))
			}
			if dist < en.AttackRange {
				en.AI = ecs.EnemyAttack
			}
		case ecs.EnemyAttack:
			if dist > en.AttackRange*1.5 {
				en.AI = ecs.EnemyAggro
				return
			}
			en.AttackTimer -= dt
			if en.AttackTimer <= 0 && atk.IsIdle() {
				en.AttackTimer = en.AttackCooldown
				dir := pTF.Pos.Sub(tf.Pos).Normalized()
				c.facing[id] = dir
				atk.Data = &ecs.LightAttack
				atk.State = ecs.AttackStartup
				atk.Timer = ecs.LightAttack.Startup
			}
		case ecs.EnemyDead:
		}
	})
}

func (c *Core) tickEnemyKnockback(dt float64) {
	c.reg.EachEnemy(func(id ecs.EntityID, tf *ecs.Transform, en *ecs.Enemy, atk *ecs.Attack, hp *ecs.Health) {
		if en.KnockbackVel.LengthSq() < 1e-4 {
			return
		}
		tf.Pos = tf.Pos.Add(en.KnockbackVel.Scale(dt))
		friction := 1 - enemyKnockFriction*dt
		if friction < 0 {
			friction = 0
		}
		en.KnockbackVel = en.KnockbackVel.Scale(friction)
	})
}
