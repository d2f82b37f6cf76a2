package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/beta-access-portal/internal/utils"
)

// The operator passphrase check is deliberately a deterministic salted
// digest of a value baked into the binary, mirroring the original
// site. It is obfuscation, not authentication: anyone with the binary
// can recover the rule. A real deployment would move this behind a
// server-held secret; kept as-is because the intent of the original is
// preserved, not endorsed.
const operatorSalt = "SALT_ArBrowser_2025"

// sha256 of the fixed operator passphrase plus operatorSalt.
const operatorDigest = "58787f24e8779265c0434d2457fe6218a4888910d8822b7f96b04bede441186f"

// VerifyPassphrase derives the candidate's digest and compares it to
// the baked-in value. Wrong passphrases just return false; there is no
// lockout and no rate limiting.
func VerifyPassphrase(candidate string) bool {
	sum := sha256.Sum256([]byte(candidate + operatorSalt))
	derived := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(derived), []byte(operatorDigest)) == 1
}

// Operator manages the operator session: a Redis-held token with a
// fixed TTL, the server-side equivalent of the original's localStorage
// flag with its one-hour auto-logout.
type Operator struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewOperator(rdb *redis.Client, ttl time.Duration) *Operator {
	return &Operator{rdb: rdb, ttl: ttl}
}

func operatorKey(token string) string { return "session:operator:" + token }

// StartSession verifies the passphrase and, on success, issues a
// session token that expires after the configured TTL.
func (o *Operator) StartSession(ctx context.Context, passphrase string) (string, error) {
	if !VerifyPassphrase(passphrase) {
		return "", ErrAuth
	}
	token, err := utils.RandomHex(24)
	if err != nil {
		return "", err
	}
	if err := o.rdb.Set(ctx, operatorKey(token), "1", o.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// IsActive reports whether the token still names a live operator
// session. Expiry is handled by the key TTL.
func (o *Operator) IsActive(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	n, err := o.rdb.Exists(ctx, operatorKey(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// EndSession invalidates the token immediately.
func (o *Operator) EndSession(ctx context.Context, token string) error {
	return o.rdb.Del(ctx, operatorKey(token)).Err()
}
