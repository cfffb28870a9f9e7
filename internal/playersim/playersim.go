// Package playersim реализует ускорение/трение в духе Quake, суб-шаговую
// интеграцию положения и ворота спауна, разделяющие мир с игроком до тех
// пор, пока опорные чанки под точкой спауна не будут загружены.
package playersim

import (
	"github.com/voxelcore/voxelcore/internal/collider"
	"github.com/voxelcore/voxelcore/internal/coord"
	"github.com/voxelcore/voxelcore/internal/ecs"
	"github.com/voxelcore/voxelcore/internal/vec"
)

// Config — тюнинговые константы движения, читаемые при старте (см. §Glossary).
type Config struct {
	Friction    float64
	GroundAccel float64
	AirAccel    float64
	WalkSpeed   float64
	SprintMult  float64
	JumpVel     float64
	Gravity     float64

	// DepleteCooldown — сколько секунд после обнуления стамины должно пройти,
	// прежде чем возобновится регенерация.
	DepleteCooldown float64

	// AttackRecoveryScale — во сколько раз урезается wishSpeed в фазе Recovery.
	AttackRecoveryScale float64

	SubSteps int
}

// DefaultConfig — значения, унаследованные от исходной константной таблицы игры.
func DefaultConfig() Config {
	return Config{
		Friction:            8.0,
		GroundAccel:         15.0,
		AirAccel:            2.5,
		WalkSpeed:           8.0,
		SprintMult:          1.8,
		JumpVel:             8.0,
		Gravity:             -22.0,
		DepleteCooldown:     1.5,
		AttackRecoveryScale: 0.3,
		SubSteps:            4,
	}
}

// ChunkPresence — то немногое, что нужно воротам спауна от TriSoup клиента.
type ChunkPresence interface {
	Has(cc coord.ChunkCoord) bool
}

// Input — намерение игрока на этот тик, уже спроецированное в мировые оси.
type Input struct {
	WishDir   vec.Vec3 // единичный вектор в горизонтальной плоскости, либо ноль
	Sprint    bool
	JumpPress bool
}

// Sim — контроллер игрока: спауновые ворота, ускорение, суб-шаговая
// интеграция с коллайдером между шагами.
type Sim struct {
	reg    *ecs.Registry
	player ecs.EntityID
	cfg    Config

	spawned         bool
	hasPendingSpawn bool
	pendingSpawn    vec.Vec3
}

// New создаёт симуляцию движения для уже созданной сущности игрока.
func New(reg *ecs.Registry, player ecs.EntityID, cfg Config) *Sim {
	return &Sim{reg: reg, player: player, cfg: cfg}
}

// SetSpawn задаёт точку, в которую игрок телепортируется при открытии ворот.
func (s *Sim) SetSpawn(pos vec.Vec3) {
	s.pendingSpawn = pos
	s.hasPendingSpawn = true
	s.spawned = false
}

// IsSpawned сообщает, прошли ли ворота спауна.
func (s *Sim) IsSpawned() bool { return s.spawned }

// requiredChunks — полный куб 3×3×3 вокруг чанка точки спауна.
func requiredChunks(spawnCC coord.ChunkCoord) [27]coord.ChunkCoord {
	var out [27]coord.ChunkCoord
	i := 0
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			for dz := int32(-1); dz <= 1; dz++ {
				out[i] = spawnCC.Add(dx, dy, dz)
				i++
			}
		}
	}
	return out
}

// SpawnProgress возвращает долю из 27 требуемых чанков вокруг точки спауна,
// уже присутствующих в TriSoup — монотонно растёт к 1.0.
func (s *Sim) SpawnProgress(presence ChunkPresence) float64 {
	spawnCC := coord.FromWorld(s.pendingSpawn)
	req := requiredChunks(spawnCC)
	present := 0
	for _, cc := range req {
		if presence.Has(cc) {
			present++
		}
	}
	return float64(present) / float64(len(req))
}

// gateReady — узкое условие открытия ворот: только ячейка спауна и та, что
// прямо под ней, обязаны присутствовать (двигаться раньше незачем, даже
// если остальной куб ещё не догрузился).
func (s *Sim) gateReady(presence ChunkPresence) bool {
	spawnCC := coord.FromWorld(s.pendingSpawn)
	below := spawnCC.Add(0, -1, 0)
	return presence.Has(spawnCC) && presence.Has(below)
}

// accelerate — Quake-style ускорение: добавляет скорость вдоль wishDir лишь
// до wishSpeed, не трогая компоненту, уже направленную туда же быстрее.
func accelerate(v, wishDir vec.Vec3, wishSpeed, accel, dt float64) vec.Vec3 {
	currentSpeed := v.Dot(wishDir)
	addSpeed := wishSpeed - currentSpeed
	if addSpeed <= 0 {
		return v
	}
	accelSpeed := accel * wishSpeed * dt
	if accelSpeed > addSpeed {
		accelSpeed = addSpeed
	}
	return v.Add(wishDir.Scale(accelSpeed))
}

// Update прогоняет один тик симуляции: спауновые ворота, затем силы, затем
// суб-шаговую интеграцию с коллайдером между шагами. Тик, на котором ворота
// открываются, только ставит игрока в точку спауна и обнуляет скорость;
// силы и интеграция начинаются со следующего тика.
func (s *Sim) Update(dt float64, in Input, tris collider.TriangleSource, presence ChunkPresence) {
	tf := s.reg.Transform(s.player)
	vel := s.reg.Velocity(s.player)
	box := s.reg.AABBOf(s.player)
	gr := s.reg.GroundedOf(s.player)
	sta := s.reg.StaminaOf(s.player)
	atk := s.reg.AttackOf(s.player)

	if !s.spawned {
		if !s.gateReady(presence) {
			return
		}
		if s.hasPendingSpawn {
			tf.Pos = s.pendingSpawn
			vel.Vel = vec.Vec3{}
			s.hasPendingSpawn = false
		}
		s.spawned = true
		return
	}

	// Пока игрок бежит спринтом, пул не регенерирует — только тратится.
	sprinting := in.Sprint && in.WishDir.LengthSq() > 1e-6 && sta != nil && !sta.Depleted
	if !sprinting {
		s.tickStamina(sta, dt)
	}

	wishSpeed := 0.0
	if in.WishDir.LengthSq() > 1e-6 {
		wishSpeed = s.cfg.WalkSpeed
		if in.Sprint && sta != nil && !sta.Depleted {
			wishSpeed *= s.cfg.SprintMult
			s.drainStamina(sta, sta.SprintCost*dt)
		}
		if atk != nil && atk.State == ecs.AttackRecovery {
			wishSpeed *= s.cfg.AttackRecoveryScale
		}
	}

	hVel := vec.Vec3{X: vel.Vel.X, Z: vel.Vel.Z}
	yVel := vel.Vel.Y

	if gr.Grounded {
		speed := hVel.Length()
		if speed > 1e-3 {
			drop := speed * s.cfg.Friction * dt
			newSpeed := speed - drop
			if newSpeed < 0 {
				newSpeed = 0
			}
			hVel = hVel.Scale(newSpeed / speed)
		}
		hVel = accelerate(hVel, in.WishDir, wishSpeed, s.cfg.GroundAccel, dt)
		if yVel < 0 {
			yVel = 0
		}
		if in.JumpPress && sta != nil && !sta.Depleted && sta.Current >= sta.JumpCost {
			yVel = s.cfg.JumpVel
			gr.Grounded = false
			s.drainStamina(sta, sta.JumpCost)
		}
	} else {
		hVel = accelerate(hVel, in.WishDir, wishSpeed, s.cfg.AirAccel, dt)
		yVel += s.cfg.Gravity * dt
	}

	vel.Vel = vec.Vec3{X: hVel.X, Y: yVel, Z: hVel.Z}

	steps := s.cfg.SubSteps
	if steps <= 0 {
		steps = 1
	}
	subDt := dt / float64(steps)
	for i := 0; i < steps; i++ {
		tf.Pos = tf.Pos.Add(vel.Vel.Scale(subDt))
		newPos, grounded := collider.Resolve(tf.Pos, &vel.Vel, box.Half, tris)
		tf.Pos = newPos
		gr.Grounded = grounded
	}
}

// drainStamina подрезает пул и, если он опустошён, запускает cooldown.
func (s *Sim) drainStamina(sta *ecs.Stamina, amount float64) {
	if sta == nil {
		return
	}
	sta.Current -= amount
	if sta.Current <= 0 {
		sta.Current = 0
		sta.Depleted = true
		sta.Cooldown = s.cfg.DepleteCooldown
	}
}

// tickStamina возобновляет регенерацию после cooldown и пополняет пул.
func (s *Sim) tickStamina(sta *ecs.Stamina, dt float64) {
	if sta == nil {
		return
	}
	if sta.Depleted {
		sta.Cooldown -= dt
		if sta.Cooldown > 0 {
			return
		}
		sta.Depleted = false
	}
	sta.Current += sta.Regen * dt
	if sta.Current > sta.Max {
		sta.Current = sta.Max
	}
}
