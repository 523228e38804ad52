// Package passwordhash hashes and verifies passwords with argon2id.
// Digests use the PHC string format:
//
//	$argon2id$v=19$m=<memory KiB>,t=<time>,p=<parallelism>$<salt>$<key>
//
// with unpadded standard base64 salt and key, so hashes produced by other
// argon2id implementations verify as well.
package passwordhash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	// ErrInvalidInput is returned for an empty plaintext.
	ErrInvalidInput = errors.New("password must not be empty")

	// ErrMalformedDigest is returned when a digest cannot be parsed.
	ErrMalformedDigest = errors.New("malformed password digest")

	// ErrIncompatibleVersion is returned for digests of another argon2 version.
	ErrIncompatibleVersion = errors.New("incompatible argon2 version")
)

// Params are the argon2id cost parameters.
type Params struct {
	Time        uint32
	MemoryKiB   uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams follow the OWASP argon2id baseline.
var DefaultParams = Params{
	Time:        2,
	MemoryKiB:   64 * 1024,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// Hasher produces and checks argon2id digests.
type Hasher struct {
	params Params
}

// Option tunes a Hasher.
type Option func(*Params)

// WithTime sets the number of passes over memory.
func WithTime(time uint32) Option {
	return func(params *Params) {
		params.Time = time
	}
}

// WithMemory sets the memory cost in KiB.
func WithMemory(memoryKiB uint32) Option {
	return func(params *Params) {
		params.MemoryKiB = memoryKiB
	}
}

// WithParallelism sets the number of lanes.
func WithParallelism(parallelism uint8) Option {
	return func(params *Params) {
		params.Parallelism = parallelism
	}
}

// New creates a Hasher. Zero-valued options fall back to DefaultParams.
func New(optionsProto ...Option) *Hasher {
	params := DefaultParams
	for _, protoOption := range optionsProto {
		protoOption(&params)
	}
	if params.Time == 0 {
		params.Time = DefaultParams.Time
	}
	if params.MemoryKiB == 0 {
		params.MemoryKiB = DefaultParams.MemoryKiB
	}
	if params.Parallelism == 0 {
		params.Parallelism = DefaultParams.Parallelism
	}

	return &Hasher{params: params}
}

// Hash derives a salted digest of the plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrInvalidInput
	}

	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("in internal/passwordhash/passwordhash.go/Hash(): error while `rand.Read()` calling: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, h.params.Time, h.params.MemoryKiB, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.MemoryKiB,
		h.params.Time,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the digest with the parameters stored in it and compares
// the keys in constant time.
func (h *Hasher) Verify(plaintext, digest string) (bool, error) {
	if plaintext == "" {
		return false, ErrInvalidInput
	}

	params, salt, key, err := decode(digest)
	if err != nil {
		return false, err
	}

	otherKey := argon2.IDKey([]byte(plaintext), salt, params.Time, params.MemoryKiB, params.Parallelism, params.KeyLength)

	return subtle.ConstantTimeCompare(key, otherKey) == 1, nil
}

func decode(digest string) (Params, []byte, []byte, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Params{}, nil, nil, ErrMalformedDigest
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return Params{}, nil, nil, ErrMalformedDigest
	}
	if version != argon2.Version {
		return Params{}, nil, nil, ErrIncompatibleVersion
	}

	var params Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.MemoryKiB, &params.Time, &params.Parallelism); err != nil {
		return Params{}, nil, nil, ErrMalformedDigest
	}
	if params.Time == 0 || params.Parallelism == 0 {
		return Params{}, nil, nil, ErrMalformedDigest
	}

	salt, err := base64.RawStdEncoding.Strict().DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return Params{}, nil, nil, ErrMalformedDigest
	}
	params.SaltLength = uint32(len(salt))

	key, err := base64.RawStdEncoding.Strict().DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return Params{}, nil, nil, ErrMalformedDigest
	}
	params.KeyLength = uint32(len(key))

	return params, salt, key, nil
}
