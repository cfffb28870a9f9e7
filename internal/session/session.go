// Package session стягивает соединение и игровую личность вместе: Issue
// выдаёт случайный ID сессии (google/uuid) и подписанный claim (golang-jwt),
// удостоверяющий отображаемое имя, Verify проверяет такой claim. serverloop
// создаёт Issuer, но при PlayerJoin и RespawnRequest токены не выдаёт и не
// проверяет.
// Протокол §6 не несёт учётных данных — этого достаточно для однопирового
// удостоверения имени, не для полноценной аутентификации аккаунта.
package session

import (
	"crypto/rand"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// GenerateSecret генерирует случайный HMAC-секрет для NewIssuer.
func GenerateSecret() []byte {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// Claims — то немногое, что удостоверяет один игровой сеанс.
type Claims struct {
	SessionID string `json:"sid"`
	Name      string `json:"name"`
	jwt.RegisteredClaims
}

// Issuer подписывает и проверяет claim'ы сессий одним секретом на процесс
// сервера. Секрет генерируется случайно при старте, если не задан явно —
// сессии не переживают рестарт сервера, что приемлемо: мир не хранит
// персистентного состояния (§6 "Persisted state: none in the core").
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer создаёт эмитент с заданным секретом (может быть сгенерирован
// вызывающим кодом через GenerateSecret) и временем жизни сессии.
func NewIssuer(secret []byte, ttl time.Duration) *Issuer {
	return &Issuer{secret: secret, ttl: ttl}
}

// Issue создаёт новую сессию для только что подключившегося игрока и
// возвращает её подписанный токен вместе со случайным SessionID.
func (i *Issuer) Issue(name string) (token string, sessionID string, err error) {
	sessionID = uuid.NewString()
	claims := &Claims{
		SessionID: sessionID,
		Name:      name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "voxelcore",
			Subject:   name,
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", "", err
	}
	return signed, sessionID, nil
}

// Verify проверяет и декодирует токен сессии, выпущенный этим (или
// одинаково сконфигурированным) эмитентом.
func (i *Issuer) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("session: unexpected signing method")
		}
		return i.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, errors.New("session: invalid or expired token")
	}
	return claims, nil
}
