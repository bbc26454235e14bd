package api

import (
	"crypto/hmac"
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// sessionClaims binds a bearer to exactly one battle session.
type sessionClaims struct {
	Sub string `json:"sub"` // session id
	Iat int64  `json:"iat"`
	Exp int64  `json:"exp"`
}

var (
	errTokenFormat    = errors.New("invalid token format")
	errTokenSignature = errors.New("invalid signature")
	errTokenExpired   = errors.New("token expired")
)

// tokenSigner issues and checks HS256 JWT-style session tokens.
type tokenSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// newTokenSigner uses secret, or a random in-memory secret when it is empty
// so tokens simply stop validating after a restart.
func newTokenSigner(secret string, ttl time.Duration) (*tokenSigner, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := crand.Read(key); err != nil {
			return nil, errors.New("failed to generate dev session secret")
		}
	}
	return &tokenSigner{secret: key, ttl: ttl, now: time.Now}, nil
}

func b64url(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

func b64urlDecode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}

func (t *tokenSigner) sign(data string) string {
	mac := hmac.New(sha256.New, t.secret)
	mac.Write([]byte(data))
	return b64url(mac.Sum(nil))
}

func (t *tokenSigner) create(sessionID string) string {
	header := map[string]string{"alg": "HS256", "typ": "JWT"}
	hdrJSON, _ := json.Marshal(header)
	now := t.now().Unix()
	claims := sessionClaims{Sub: sessionID, Iat: now, Exp: now + int64(t.ttl.Seconds())}
	clJSON, _ := json.Marshal(claims)
	unsigned := fmt.Sprintf("%s.%s", b64url(hdrJSON), b64url(clJSON))
	return unsigned + "." + t.sign(unsigned)
}

func (t *tokenSigner) parse(token string) (*sessionClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, errTokenFormat
	}
	unsigned := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(t.sign(unsigned)), []byte(parts[2])) {
		return nil, errTokenSignature
	}
	payload, err := b64urlDecode(parts[1])
	if err != nil {
		return nil, errTokenFormat
	}
	var claims sessionClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, errTokenFormat
	}
	if t.now().Unix() > claims.Exp {
		return nil, errTokenExpired
	}
	return &claims, nil
}
