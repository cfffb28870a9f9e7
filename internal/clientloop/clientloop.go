// Package clientloop — зеркальная половина serverloop на стороне клиента:
// один поток получает сетевые пакеты, копит мировые треугольники в TriSoup,
// прогоняет PlayerSim и CombatCore и шлёт PlayerMove с ограниченной частотой.
package clientloop

import (
	"time"

	"github.com/voxelcore/voxelcore/internal/combat"
	"github.com/voxelcore/voxelcore/internal/config"
	"github.com/voxelcore/voxelcore/internal/coord"
	"github.com/voxelcore/voxelcore/internal/ecs"
	"github.com/voxelcore/voxelcore/internal/intake"
	"github.com/voxelcore/voxelcore/internal/logging"
	"github.com/voxelcore/voxelcore/internal/playersim"
	"github.com/voxelcore/voxelcore/internal/protocol"
	"github.com/voxelcore/voxelcore/internal/transport"
	"github.com/voxelcore/voxelcore/internal/trisoup"
	"github.com/voxelcore/voxelcore/internal/vec"
	"github.com/voxelcore/voxelcore/internal/workerpool"
	"github.com/voxelcore/voxelcore/internal/worldclock"
)

// moveSendInterval — PlayerMove шлётся не чаще, чем раз в этот интервал
// (спека §6: "PlayerMove sent at most every 50 ms").
const moveSendInterval = 50 * time.Millisecond

// Input — намерение игрока за этот тик, собранное слоем ввода (не входит
// в этот пакет — он лишь потребляет уже спроецированные значения).
type Input struct {
	playersim.Input
	LightAttack  bool
	HeavyAttack  bool
	Parry        bool
	Dodge        bool
	AttackFacing vec.Vec3
	RespawnPress bool
	Yaw, Pitch   float32
}

// Client держит весь клиентский конвейер: сеть, ECS, симуляцию движения и боя.
type Client struct {
	cfg  config.Config
	ch   *transport.Channel
	pool *workerpool.Pool

	reg    *ecs.Registry
	player ecs.EntityID
	sim    *playersim.Sim
	combat *combat.Core
	soup   *trisoup.TriSoup
	intake *intake.Intake
	clock  *worldclock.Clock

	log *logging.Logger

	lastSent time.Time
	errCh    chan error
}

// Dial подключается к серверу; ошибка transport.Dial возвращается как есть,
// без повторных попыток, и cmd/client считает её фатальной для сессии.
// transport.Dial не ждёт ответа сервера, поэтому недоступный сервер здесь
// не обнаруживается.
func Dial(addr string, cfg config.Config) (*Client, error) {
	ch, err := transport.Dial(addr, cfg.Server.Compress)
	if err != nil {
		return nil, err
	}

	reg := ecs.New()
	half := vec.Vec3{X: cfg.Player.Width / 2, Y: cfg.Player.Height / 2, Z: cfg.Player.Width / 2}
	player := reg.SpawnPlayer(vec.Vec3{}, half)

	simCfg := playersim.DefaultConfig()
	simCfg.Friction = cfg.Player.Friction
	simCfg.GroundAccel = cfg.Player.GroundAccel
	simCfg.AirAccel = cfg.Player.AirAccel
	simCfg.WalkSpeed = cfg.Player.WalkSpeed
	simCfg.SprintMult = cfg.Player.SprintMult
	simCfg.JumpVel = cfg.Player.JumpVel
	simCfg.Gravity = cfg.Player.Gravity

	pool := workerpool.New(0)

	c := &Client{
		cfg:    cfg,
		ch:     ch,
		pool:   pool,
		reg:    reg,
		player: player,
		sim:    playersim.New(reg, player, simCfg),
		combat: combat.New(reg),
		soup:   trisoup.New(),
		intake: intake.New(pool),
		clock:  worldclock.New(cfg.World.DayLengthSecs),
		log:    logging.GetClientLogger(),
		errCh:  make(chan error, 1),
	}
	return c, nil
}

// Join отправляет PlayerJoin с отображаемым именем.
func (c *Client) Join(name string) error {
	return c.ch.Send(protocol.EncodePlayerJoin(name))
}

// RequestRespawn шлёт запрос на респаун (например, после смерти игрока).
func (c *Client) RequestRespawn() error {
	return c.ch.Send(protocol.EncodeRespawnRequest())
}

// Registry даёт HUD/рендереру доступ к состоянию сущностей на чтение.
func (c *Client) Registry() *ecs.Registry { return c.reg }

// Player возвращает ID сущности локального игрока.
func (c *Client) Player() ecs.EntityID { return c.player }

// Clock возвращает часы суток для расчёта освещения рендерером.
func (c *Client) Clock() *worldclock.Clock { return c.clock }

// SpawnProgress сообщает долю опорных чанков вокруг точки спауна, уже
// полученных от сервера — для индикатора загрузки.
func (c *Client) SpawnProgress() float64 { return c.sim.SpawnProgress(c.soup) }

// RecvLoop читает сетевые пакеты, пока соединение не оборвётся; должен
// выполняться в отдельной горутине. Ошибки публикуются через Errors().
func (c *Client) RecvLoop() {
	for {
		body, err := c.ch.Receive()
		if err != nil {
			select {
			case c.errCh <- err:
			default:
			}
			return
		}
		c.dispatch(body)
	}
}

// Errors возвращает канал, в который RecvLoop публикует фатальную ошибку
// соединения ровно один раз перед завершением.
func (c *Client) Errors() <-chan error { return c.errCh }

func (c *Client) dispatch(body []byte) {
	tag, payload, err := protocol.Body(body)
	if err != nil {
		c.log.Warn("отброшен пакет с неизвестным тегом: %v", err)
		return
	}
	switch tag {
	case protocol.TagChunkData:
		c.intake.OnChunkData(payload)
	case protocol.TagSpawnPosition:
		pos, err := protocol.DecodeSpawnPosition(payload)
		if err != nil {
			c.log.Warn("некорректный SpawnPosition: %v", err)
			return
		}
		c.sim.SetSpawn(pos)
		c.log.Info("получена точка спауна: %.1f %.1f %.1f", pos.X, pos.Y, pos.Z)
	default:
	}
}

// Tick прогоняет один кадр симуляции: дренаж декодированных мешей, боевое
// ядро, движение игрока, затем — при необходимости — отправку PlayerMove.
// Порядок следует схеме данных спеки §2: Input → CombatCore → PlayerSim →
// Collider → NetOut.
func (c *Client) Tick(dt float64, in Input) {
	for _, m := range c.intake.Drain() {
		c.soup.Insert(m)
	}

	if in.LightAttack {
		c.combat.LightAttack(c.player, in.AttackFacing)
	}
	if in.HeavyAttack {
		c.combat.HeavyAttack(c.player, in.AttackFacing)
	}
	if in.Parry {
		c.combat.Parry(c.player)
	}
	if in.Dodge {
		c.combat.Dodge(c.player, in.WishDir)
	}
	c.combat.Update(dt, c.player)

	wishDir := in.WishDir
	if c.combat.IsDodging(c.player) {
		wishDir = vec.Vec3{}
	}
	c.sim.Update(dt, playersim.Input{WishDir: wishDir, Sprint: in.Sprint, JumpPress: in.JumpPress}, c.soup, c.soup)

	if dodgeVel := c.combat.DodgeVelocity(c.player); dodgeVel.LengthSq() > 1e-6 {
		if vel := c.reg.Velocity(c.player); vel != nil {
			vel.Vel = vec.Vec3{X: dodgeVel.X, Y: vel.Vel.Y, Z: dodgeVel.Z}
		}
	}

	c.clock.Advance(dt)

	if tf := c.reg.Transform(c.player); tf != nil {
		playerCC := coord.FromWorld(tf.Pos)
		c.soup.Unload(playerCC, c.cfg.World.ChunkRadiusXZ, c.cfg.World.ChunkRadiusY)
	}

	if in.RespawnPress {
		_ = c.RequestRespawn()
	}

	c.sendMoveThrottled(in.Yaw, in.Pitch)
}

func (c *Client) sendMoveThrottled(yaw, pitch float32) {
	now := time.Now()
	if !c.lastSent.IsZero() && now.Sub(c.lastSent) < moveSendInterval {
		return
	}
	tf := c.reg.Transform(c.player)
	if tf == nil {
		return
	}
	c.lastSent = now
	mv := protocol.PlayerMove{
		X: float32(tf.Pos.X), Y: float32(tf.Pos.Y), Z: float32(tf.Pos.Z),
		Yaw: yaw, Pitch: pitch,
	}
	_ = c.ch.Send(protocol.EncodePlayerMove(mv))
}

// Close завершает соединение и освобождает пул воркеров декодирования.
func (c *Client) Close() error {
	err := c.ch.Close()
	c.pool.Stop()
	return err
}
