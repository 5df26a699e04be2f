// Package imagehash computes the two fingerprints the duplicate detector
// works with: a cryptographic digest for byte-exact matches and a
// perceptual hash for visually similar images.
package imagehash

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/corona10/goimagehash"
	"golang.org/x/crypto/blake2b"
	_ "golang.org/x/image/webp"
)

const (
	// CryptographicHashLength is the hex length of a BLAKE2b-256 digest.
	CryptographicHashLength = 2 * blake2b.Size256

	// PerceptualHashWidth is fixed for the lifetime of the store. Changing it
	// makes every stored fingerprint incomparable with new ones.
	PerceptualHashWidth = 64
)

var (
	ErrInvalidHash        = errors.New("invalid hash")
	ErrHashLengthMismatch = errors.New("hash length mismatch")
	ErrUndecodableImage   = errors.New("undecodable image")
)

type Hashes struct {
	Cryptographic string
	Perceptual    string
}

// Computer produces Hashes from raw image bytes.
type Computer struct{}

func NewComputer() *Computer {
	return &Computer{}
}

func (c *Computer) Compute(data []byte) (Hashes, error) {
	if len(data) == 0 {
		return Hashes{}, fmt.Errorf("%w: empty image", ErrUndecodableImage)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Hashes{}, fmt.Errorf("%w: %v", ErrUndecodableImage, err)
	}

	phash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return Hashes{}, fmt.Errorf("perception hash: %w", err)
	}

	return Hashes{
		Cryptographic: CryptographicHash(data),
		Perceptual:    FormatBits(phash.GetHash()),
	}, nil
}

// CryptographicHash returns the hex BLAKE2b-256 digest of data.
func CryptographicHash(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FormatBits renders a 64-bit fingerprint as '0'/'1' characters, most
// significant bit first.
func FormatBits(v uint64) string {
	return fmt.Sprintf("%0*b", PerceptualHashWidth, v)
}

// ValidateCryptographic checks width and lowercase hex alphabet.
func ValidateCryptographic(h string) error {
	if len(h) != CryptographicHashLength {
		return fmt.Errorf("%w: cryptographic hash has %d characters, want %d", ErrInvalidHash, len(h), CryptographicHashLength)
	}
	for i := 0; i < len(h); i++ {
		c := h[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return fmt.Errorf("%w: cryptographic hash has non-hex character %q at %d", ErrInvalidHash, c, i)
		}
	}
	return nil
}

// ValidatePerceptual checks the fixed width and the bit alphabet.
func ValidatePerceptual(h string) error {
	if len(h) != PerceptualHashWidth {
		return fmt.Errorf("%w: perceptual hash has %d characters, want %d", ErrInvalidHash, len(h), PerceptualHashWidth)
	}
	for i := 0; i < len(h); i++ {
		if h[i] != '0' && h[i] != '1' {
			return fmt.Errorf("%w: perceptual hash has non-bit character %q at %d", ErrInvalidHash, h[i], i)
		}
	}
	return nil
}

// Validate checks both fingerprints of a submission.
func (h Hashes) Validate() error {
	if err := ValidateCryptographic(h.Cryptographic); err != nil {
		return err
	}
	return ValidatePerceptual(h.Perceptual)
}

// Hamming counts the positions at which a and b differ. Strings of
// different length cannot be compared and yield ErrHashLengthMismatch.
func Hamming(a, b string) (int, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrHashLengthMismatch, len(a), len(b))
	}
	d := 0
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			d++
		}
	}
	return d, nil
}
