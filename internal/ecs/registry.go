// Package ecs — арена сущностей в стиле entt: непрозрачные ID, компоненты
// хранятся в реестре по типам, никаких владеющих ссылок между сущностями.
// Реестр однопоточно владеется потоком симуляции; воркеры к нему не обращаются.
package ecs

import "github.com/voxelcore/voxelcore/internal/vec"

// EntityID — непрозрачный идентификатор сущности. Нулевое значение невалидно.
type EntityID uint64

// Registry — арена компонентов. Все кросс-сущностные связи (например,
// HitThisFrame → атакующий) хранятся как EntityID, а не указатели.
type Registry struct {
	next  EntityID
	alive map[EntityID]struct{}

	transforms  map[EntityID]*Transform
	velocities  map[EntityID]*Velocity
	aabbs       map[EntityID]*AABB
	grounded    map[EntityID]*Grounded
	staminas    map[EntityID]*Stamina
	healths     map[EntityID]*Health
	attacks     map[EntityID]*Attack
	parries     map[EntityID]*Parry
	dodges      map[EntityID]*Dodge
	invincibles map[EntityID]*Invincible
	hits        map[EntityID]*HitThisFrame
	enemies     map[EntityID]*Enemy
}

// New создаёт пустой реестр.
func New() *Registry {
	return &Registry{
		alive:       make(map[EntityID]struct{}),
		transforms:  make(map[EntityID]*Transform),
		velocities:  make(map[EntityID]*Velocity),
		aabbs:       make(map[EntityID]*AABB),
		grounded:    make(map[EntityID]*Grounded),
		staminas:    make(map[EntityID]*Stamina),
		healths:     make(map[EntityID]*Health),
		attacks:     make(map[EntityID]*Attack),
		parries:     make(map[EntityID]*Parry),
		dodges:      make(map[EntityID]*Dodge),
		invincibles: make(map[EntityID]*Invincible),
		hits:        make(map[EntityID]*HitThisFrame),
		enemies:     make(map[EntityID]*Enemy),
	}
}

// Create выделяет новый идентификатор сущности.
func (r *Registry) Create() EntityID {
	r.next++
	id := r.next
	r.alive[id] = struct{}{}
	return id
}

// Valid сообщает, жива ли сущность.
func (r *Registry) Valid(id EntityID) bool {
	_, ok := r.alive[id]
	return ok
}

// Destroy убивает сущность и снимает с неё все компоненты.
func (r *Registry) Destroy(id EntityID) {
	delete(r.alive, id)
	delete(r.transforms, id)
	delete(r.velocities, id)
	delete(r.aabbs, id)
	delete(r.grounded, id)
	delete(r.staminas, id)
	delete(r.healths, id)
	delete(r.attacks, id)
	delete(r.parries, id)
	delete(r.dodges, id)
	delete(r.invincibles, id)
	delete(r.hits, id)
	delete(r.enemies, id)
}

// SpawnPlayer создаёт сущность игрока с полным набором компонентов движения
// и боя, как того требует спаун игрока и каждого противника.
func (r *Registry) SpawnPlayer(pos, half vec.Vec3) EntityID {
	id := r.Create()
	r.transforms[id] = &Transform{Pos: pos}
	r.velocities[id] = &Velocity{}
	r.aabbs[id] = &AABB{Half: half}
	r.grounded[id] = &Grounded{}
	r.staminas[id] = &Stamina{Current: 100, Max: 100, Regen: 12, SprintCost: 10, JumpCost: 10}
	r.healths[id] = &Health{Current: 100, Max: 100}
	r.attacks[id] = &Attack{}
	r.parries[id] = &Parry{}
	r.dodges[id] = &Dodge{Speed: 12}
	return id
}

// SpawnEnemy создаёт куб-противника с базовым здоровьем и точкой патруля.
func (r *Registry) SpawnEnemy(pos vec.Vec3) EntityID {
	id := r.Create()
	r.transforms[id] = &Transform{Pos: pos}
	r.velocities[id] = &Velocity{}
	r.aabbs[id] = &AABB{Half: vec.Vec3{X: 0.5, Y: 0.5, Z: 0.5}}
	r.healths[id] = &Health{Current: 60, Max: 60}
	r.attacks[id] = &Attack{}
	r.enemies[id] = &Enemy{PatrolOrigin: pos, AggroRange: 12, AttackRange: 1.8, AttackCooldown: 1.5}
	return id
}

// Ниже — типизированные аксессоры компонентов. Get возвращает nil, если
// компонент отсутствует; Add вставляет или заменяет.

func (r *Registry) Transform(id EntityID) *Transform   { return r.transforms[id] }
func (r *Registry) Velocity(id EntityID) *Velocity     { return r.velocities[id] }
func (r *Registry) AABBOf(id EntityID) *AABB           { return r.aabbs[id] }
func (r *Registry) GroundedOf(id EntityID) *Grounded   { return r.grounded[id] }
func (r *Registry) StaminaOf(id EntityID) *Stamina     { return r.staminas[id] }
func (r *Registry) HealthOf(id EntityID) *Health       { return r.healths[id] }
func (r *Registry) AttackOf(id EntityID) *Attack       { return r.attacks[id] }
func (r *Registry) ParryOf(id EntityID) *Parry         { return r.parries[id] }
func (r *Registry) DodgeOf(id EntityID) *Dodge         { return r.dodges[id] }
func (r *Registry) EnemyOf(id EntityID) *Enemy         { return r.enemies[id] }

func (r *Registry) Invincible(id EntityID) (*Invincible, bool) {
	inv, ok := r.invincibles[id]
	return inv, ok
}

func (r *Registry) SetInvincible(id EntityID, timer float64) {
	r.invincibles[id] = &Invincible{Timer: timer}
}

func (r *Registry) ClearInvincible(id EntityID) {
	delete(r.invincibles, id)
}

// AddHit создаёт одноразовую сущность урона и возвращает её ID.
func (r *Registry) AddHit(h HitThisFrame) EntityID {
	id := r.Create()
	r.hits[id] = &h
	return id
}

func (r *Registry) HitOf(id EntityID) *HitThisFrame { return r.hits[id] }

// EachInvincible проходит по всем сущностям с компонентом Invincible.
func (r *Registry) EachInvincible(fn func(id EntityID, inv *Invincible)) {
	for id, inv := range r.invincibles {
		fn(id, inv)
	}
}

// EachAttack проходит по всем сущностям с компонентом Attack (игрок и
// противники) вместе с их Transform для эмиссии хитбокса.
func (r *Registry) EachAttack(fn func(id EntityID, atk *Attack, tf *Transform)) {
	for id, atk := range r.attacks {
		fn(id, atk, r.transforms[id])
	}
}

// EachEnemy проходит по всем живым противникам.
func (r *Registry) EachEnemy(fn func(id EntityID, tf *Transform, en *Enemy, atk *Attack, hp *Health)) {
	for id, en := range r.enemies {
		fn(id, r.transforms[id], en, r.attacks[id], r.healths[id])
	}
}
