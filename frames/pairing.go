package frames

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/corona10/goimagehash"
)

// DefaultPairingThreshold is the largest Hamming distance (0-64) between the
// perceptual hashes of a raw frame and its colorized counterpart.
const DefaultPairingThreshold = 10

// ErrPairingMismatch is returned when a colorized frame does not look like its raw frame.
var ErrPairingMismatch = errors.New("colorized frame does not match its raw frame")

// VerifyPairing checks index-for-index that every raw frame has exactly one
// colorized frame and that both depict the same picture. Colorization keeps
// luminance, and the perception hash works on luminance, so a matching pair
// has a small distance.
//
// onPair is called after each verified pair with the number verified so far; it may be nil.
func VerifyPairing(raw, colorized []Frame, threshold int, onPair func(done int)) error {
	if len(raw) != len(colorized) {
		return fmt.Errorf("%w: %d raw frames but %d colorized frames", ErrPairingMismatch, len(raw), len(colorized))
	}

	for i := range raw {
		if raw[i].Index != colorized[i].Index {
			return fmt.Errorf("%w: raw frame %d paired with colorized frame %d", ErrPairingMismatch, raw[i].Index, colorized[i].Index)
		}

		distance, err := HashDistance(raw[i].Path, colorized[i].Path)
		if err != nil {
			return err
		}
		if distance > threshold {
			return fmt.Errorf("%w: frame %d has distance %d (threshold %d)", ErrPairingMismatch, raw[i].Index, distance, threshold)
		}
		if onPair != nil {
			onPair(i + 1)
		}
	}
	return nil
}

// HashDistance returns the Hamming distance between the perceptual hashes of two image files.
func HashDistance(a, b string) (int, error) {
	ha, err := perceptionHash(a)
	if err != nil {
		return 0, err
	}
	hb, err := perceptionHash(b)
	if err != nil {
		return 0, err
	}
	distance, err := ha.Distance(hb)
	if err != nil {
		return 0, fmt.Errorf("failed to compare %s and %s: %w", filepath.Base(a), filepath.Base(b), err)
	}
	return distance, nil
}

func perceptionHash(path string) (*goimagehash.ImageHash, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame: %w", err)
	}
	defer func() { _ = file.Close() }()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame %s: %w", filepath.Base(path), err)
	}

	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate perceptual hash: %w", err)
	}
	return hash, nil
}
