package streamer

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxelcore/voxelcore/internal/chunkcache"
	"github.com/voxelcore/voxelcore/internal/coord"
	"github.com/voxelcore/voxelcore/internal/noisefield"
	"github.com/voxelcore/voxelcore/internal/vec"
	"github.com/voxelcore/voxelcore/internal/workerpool"
)

// recordingTransport собирает отправленные пакеты по пиру, потокобезопасно.
type recordingTransport struct {
	mu   sync.Mutex
	sent map[PeerID]int
}

func newRecordingTransport() *recordingTransport {
	return &recordingTransport{sent: make(map[PeerID]int)}
}

func (r *recordingTransport) Send(peer PeerID, _ []byte) error {
	r.mu.Lock()
	r.sent[peer]++
	r.mu.Unlock()
	return nil
}

func (r *recordingTransport) Flush(PeerID) {}

func (r *recordingTransport) count(peer PeerID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent[peer]
}

func newTestStreamer(t *testing.T, rxz, ry int32) (*Streamer, *recordingTransport) {
	t.Helper()
	field := noisefield.New(1, noisefield.DefaultConfig())
	cache, err := chunkcache.New(0)
	require.NoError(t, err)
	pool := workerpool.New(2)
	t.Cleanup(pool.Stop)
	return New(field, cache, pool, rxz, ry), newRecordingTransport()
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}

func TestUpdateClientSchedulesAndFlushesWorkingSet(t *testing.T) {
	s, transport := newTestStreamer(t, 1, 0)
	peer := PeerID("peer-1")
	s.AddClient(peer)

	s.UpdateClient(peer, vec.Vec3{})

	expected := 3 * 3 // Rxz=1 → 3x3 в XZ, Ry=0 → один слой по Y
	waitUntil(t, func() bool {
		s.FlushReady(transport)
		return transport.count(peer) == expected
	})
}

func TestUpdateClientIsNoOpWithinSameChunk(t *testing.T) {
	s, transport := newTestStreamer(t, 0, 0)
	peer := PeerID("peer-1")
	s.AddClient(peer)

	s.UpdateClient(peer, vec.Vec3{X: 1, Y: 0, Z: 1})
	waitUntil(t, func() bool {
		s.FlushReady(transport)
		return transport.count(peer) == 1
	})

	// остаёмся в том же чанке — не должно планироваться повторно.
	s.UpdateClient(peer, vec.Vec3{X: 2, Y: 0, Z: 2})
	s.FlushReady(transport)
	assert.Equal(t, 1, transport.count(peer))
}

func TestScheduleChunkDoesNotDoubleScheduleWhilePending(t *testing.T) {
	s, _ := newTestStreamer(t, 0, 0)
	peer := PeerID("peer-1")
	s.AddClient(peer)
	cs := s.clients[peer]

	cc := coord.ChunkCoord{}
	s.scheduleChunk(peer, cs, cc)
	s.scheduleChunk(peer, cs, cc) // должно быть отброшено — уже pending

	s.mu.Lock()
	_, pending := cs.pending[cc]
	s.mu.Unlock()
	assert.True(t, pending)
}

func TestResetClientClearsWorkingSet(t *testing.T) {
	s, transport := newTestStreamer(t, 0, 0)
	peer := PeerID("peer-1")
	s.AddClient(peer)
	s.UpdateClient(peer, vec.Vec3{})
	waitUntil(t, func() bool {
		s.FlushReady(transport)
		return transport.count(peer) == 1
	})

	s.ResetClient(peer)

	s.mu.Lock()
	cs := s.clients[peer]
	assert.Empty(t, cs.sent)
	assert.Empty(t, cs.pending)
	assert.Equal(t, sentinelChunk, cs.lastChunk)
	s.mu.Unlock()

	// после сброса тот же чанк планируется заново.
	s.UpdateClient(peer, vec.Vec3{})
	waitUntil(t, func() bool {
		s.FlushReady(transport)
		return transport.count(peer) == 2
	})
}

func TestRemoveClientDropsLateDelivery(t *testing.T) {
	s, transport := newTestStreamer(t, 0, 0)
	peer := PeerID("peer-1")
	s.AddClient(peer)
	s.UpdateClient(peer, vec.Vec3{})
	s.RemoveClient(peer)

	// пакеты, готовые после ухода клиента, не должны паниковать или зависать.
	time.Sleep(50 * time.Millisecond)
	s.FlushReady(transport)
	assert.Equal(t, 0, transport.count(peer))
}
