package main

import (
	"errors"
	"testing"

	"github.com/redderi/avatar-colour/domain"
)

func TestColourTriple(t *testing.T) {
	got, err := colourTriple([]byte("alice"))
	if err != nil {
		t.Fatal(err)
	}
	want := [3]float32{float32(106) / 255, float32(138) / 255, float32(129) / 255}
	if got != want {
		t.Errorf("colourTriple(alice) = %v, want %v", got, want)
	}
}

func TestColourTripleEmpty(t *testing.T) {
	got, err := colourTriple(nil)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if got != [3]float32{} {
		t.Errorf("expected zero triple, got %v", got)
	}
}

func TestColourTripleModifiedUTF8(t *testing.T) {
	// U+0000 is 0xC0 0x80 in modified UTF-8; only the first byte and length matter.
	got, err := colourTriple([]byte{0xC0, 0x80})
	if err != nil {
		t.Fatal(err)
	}
	want := [3]float32{
		float32((0xC0*22+2*4)%256) / 255,
		float32((0xC0*17+2*5)%256) / 255,
		float32((0xC0*67+2*6)%256) / 255,
	}
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}
