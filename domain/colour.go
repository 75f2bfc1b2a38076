package domain

import (
	"errors"
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidInput is returned when a username cannot be hashed, which today
// only happens for empty input.
var ErrInvalidInput = errors.New("invalid input")

// ColourHasher is the core port for any username colouring strategy.
// Implementations must not retain username after returning.
type ColourHasher interface {
	Hash(username []byte) (Colour, error)
}

// Colour is an RGB triple with every channel in [0, 1].
type Colour struct {
	R float32 `json:"r"`
	G float32 `json:"g"`
	B float32 `json:"b"`
}

// Triple returns the channels in red, green, blue order.
func (c Colour) Triple() [3]float32 {
	return [3]float32{c.R, c.G, c.B}
}

// Hex renders the colour as #rrggbb.
func (c Colour) Hex() string {
	return colorful.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B)}.Hex()
}

func (c Colour) String() string {
	return fmt.Sprintf("rgb(%.4f, %.4f, %.4f)", c.R, c.G, c.B)
}

// Gray is what clients show when no colour could be derived.
var Gray = Colour{R: 0x88 / 255.0, G: 0x88 / 255.0, B: 0x88 / 255.0}

// Avatar is everything a client needs to draw a user's badge.
type Avatar struct {
	Username string `json:"username"`
	Initial  string `json:"initial"`
	Colour   Colour `json:"colour"`
	Hex      string `json:"hex"`
}
