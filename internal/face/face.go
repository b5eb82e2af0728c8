// Package face abstracts the face-detection capability so the core
// stays testable without a vision stack. The production detector runs
// out of process; tests use Fixed.
package face

import (
	"context"
	"io"
)

// Detector counts detectable face regions in an image.
type Detector interface {
	DetectFaces(ctx context.Context, image io.Reader) (int, error)
}

// Matcher compares a captured face against a registered profile image.
type Matcher interface {
	// Match returns a distance score; lower means more similar.
	Match(ctx context.Context, captured, registered io.Reader) (float64, error)
}

// Fixed is a stub detector/matcher returning canned values.
type Fixed struct {
	Faces    int
	Distance float64
	Err      error
}

// DetectFaces implements Detector.
func (f Fixed) DetectFaces(ctx context.Context, image io.Reader) (int, error) {
	if f.Err != nil {
		return 0, f.Err
	}
	return f.Faces, nil
}

// Match implements Matcher.
func (f Fixed) Match(ctx context.Context, captured, registered io.Reader) (float64, error) {
	if f.Err != nil {
		return 0, f.Err
	}
	return f.Distance, nil
}
