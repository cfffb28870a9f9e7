// Package transport оборачивает надёжный, упорядоченный UDP-канал (KCP) с
// опциональным сжатием поверх уже закодированных пакетов protocol.
// Канал 0 спецификации — единственный используемый канал.
package transport

import (
	"fmt"
	"net"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/xtaci/kcp-go/v5"
)

const (
	maxFrame       = 1 << 20 // 1 MiB — с запасом на крупный ChunkData
	connectTimeout = 5 * time.Second
)

// Channel — одно KCP-соединение в пакетном (не потоковом) режиме: каждый
// Send соответствует ровно одному Receive на другой стороне.
type Channel struct {
	conn         *kcp.UDPSession
	compressor   *zstd.Encoder
	decompressor *zstd.Decoder
}

func tune(conn *kcp.UDPSession) {
	conn.SetStreamMode(false)
	conn.SetWriteDelay(false)
	conn.SetNoDelay(1, 20, 2, 1)
	conn.SetWindowSize(512, 512)
	conn.SetMtu(1400)
	conn.SetACKNoDelay(true)
}

func wrap(conn *kcp.UDPSession, compress bool) (*Channel, error) {
	tune(conn)
	ch := &Channel{conn: conn}
	if compress {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			return nil, fmt.Errorf("transport: zstd encoder: %w", err)
		}
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("transport: zstd decoder: %w", err)
		}
		ch.compressor, ch.decompressor = enc, dec
	}
	return ch, nil
}

// Dial открывает клиентский KCP-сеанс к addr. KCP работает поверх UDP без
// рукопожатия, и Dial возвращается, не дожидаясь ответа сервера: недоступный
// сервер здесь не обнаруживается, а дедлайн connectTimeout действует только
// на время настройки канала и снимается до возврата.
func Dial(addr string, compress bool) (*Channel, error) {
	conn, err := kcp.DialWithOptions(addr, nil, 10, 3)
	if err != nil {
		return nil, err
	}
	conn.SetDeadline(time.Now().Add(connectTimeout))
	ch, err := wrap(conn, compress)
	if err != nil {
		conn.Close()
		return nil, err
	}
	conn.SetDeadline(time.Time{})
	return ch, nil
}

// Listener принимает входящие соединения на сервере.
type Listener struct {
	ln       *kcp.Listener
	compress bool
}

// Listen открывает серверный слушатель KCP на addr.
func Listen(addr string, compress bool) (*Listener, error) {
	ln, err := kcp.ListenWithOptions(addr, nil, 10, 3)
	if err != nil {
		return nil, err
	}
	return &Listener{ln: ln, compress: compress}, nil
}

// Accept блокируется до следующего входящего соединения.
func (l *Listener) Accept() (*Channel, error) {
	conn, err := l.ln.AcceptKCP()
	if err != nil {
		return nil, err
	}
	return wrap(conn, l.compress)
}

// Close останавливает приём новых соединений.
func (l *Listener) Close() error { return l.ln.Close() }

// Addr возвращает локальный адрес слушателя.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Send отправляет один кадр, опционально сжатый zstd. Длина не
// фреймируется отдельно — пакетный режим KCP сохраняет границы сообщений.
func (c *Channel) Send(data []byte) error {
	payload := data
	if c.compressor != nil {
		payload = c.compressor.EncodeAll(data, make([]byte, 0, len(data)))
	}
	_, err := c.conn.Write(payload)
	return err
}

// Receive блокируется до следующего сообщения и возвращает распакованные
// байты.
func (c *Channel) Receive() ([]byte, error) {
	buf := make([]byte, maxFrame)
	n, err := c.conn.Read(buf)
	if err != nil {
		return nil, err
	}
	buf = buf[:n]
	if c.decompressor != nil {
		return c.decompressor.DecodeAll(buf, nil)
	}
	out := make([]byte, n)
	copy(out, buf)
	return out, nil
}

// Flush ничего не делает сверх того, что уже гарантирует KCP (запись
// синхронна для пакетного режима); метод существует, чтобы ChunkStreamer
// мог обращаться к Transport единообразно вне зависимости от реализации.
func (c *Channel) Flush() error { return nil }

// Close закрывает соединение.
func (c *Channel) Close() error { return c.conn.Close() }

// RemoteAddr возвращает адрес удалённой стороны.
func (c *Channel) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }
