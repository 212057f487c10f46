package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/argon2"
)

const (
	argonTime    uint32 = 1
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 4
	argonKeyLen  uint32 = 32
	argonSaltLen        = 16

	MinLength = 8
	MaxLength = 128
)

var (
	ErrTooShort = errors.New("password_too_short")
	ErrTooLong  = errors.New("password_too_long")
)

// Validate enforces the length policy for new passwords.
func Validate(password string) error {
	n := utf8.RuneCountInString(password)
	if strings.TrimSpace(password) == "" || n < MinLength {
		return ErrTooShort
	}
	if n > MaxLength {
		return ErrTooLong
	}
	return nil
}

// Hash returns an encoded Argon2id hash in PHC string format.
func Hash(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	saltB64 := base64.RawStdEncoding.EncodeToString(salt)
	hashB64 := base64.RawStdEncoding.EncodeToString(hash)
	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s", argonMemory, argonTime, argonThreads, saltB64, hashB64), nil
}

// Verify checks whether a password matches the encoded Argon2id hash.
func Verify(password, encoded string) bool {
	params, salt, hash, ok := decode(encoded)
	if !ok {
		return false
	}
	check := argon2.IDKey([]byte(password), salt, params.time, params.memory, params.threads, uint32(len(hash)))
	return subtle.ConstantTimeCompare(hash, check) == 1
}

// NeedsRehash reports whether encoded was produced with weaker parameters
// than the current ones.
func NeedsRehash(encoded string) bool {
	params, _, _, ok := decode(encoded)
	if !ok {
		return true
	}
	return params.memory < argonMemory || params.time < argonTime || params.threads < argonThreads
}

type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
}

func decode(encoded string) (argonParams, []byte, []byte, bool) {
	var out argonParams
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" || parts[2] != "v=19" {
		return out, nil, nil, false
	}

	params := strings.Split(parts[3], ",")
	if len(params) != 3 {
		return out, nil, nil, false
	}
	m, ok := strings.CutPrefix(params[0], "m=")
	if !ok {
		return out, nil, nil, false
	}
	t, ok := strings.CutPrefix(params[1], "t=")
	if !ok {
		return out, nil, nil, false
	}
	p, ok := strings.CutPrefix(params[2], "p=")
	if !ok {
		return out, nil, nil, false
	}

	m64, err := strconv.ParseUint(m, 10, 32)
	if err != nil {
		return out, nil, nil, false
	}
	t64, err := strconv.ParseUint(t, 10, 32)
	if err != nil {
		return out, nil, nil, false
	}
	p64, err := strconv.ParseUint(p, 10, 8)
	if err != nil {
		return out, nil, nil, false
	}
	out = argonParams{memory: uint32(m64), time: uint32(t64), threads: uint8(p64)}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return out, nil, nil, false
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(hash) == 0 {
		return out, nil, nil, false
	}
	return out, salt, hash, true
}
