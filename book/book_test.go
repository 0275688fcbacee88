package book_test

import (
	"errors"
	"testing"

	"github.com/kennyp/swatchmatch/book"
)

func TestParseErrorMessage(t *testing.T) {
	wrapped := errors.New("unexpected EOF")
	err := &book.ParseError{
		Source:  "pantone.acb",
		Offset:  128,
		Context: "color record 3 name",
		Err:     wrapped,
	}

	want := "pantone.acb: color record 3 name at offset 128: unexpected EOF"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	if !errors.Is(err, wrapped) {
		t.Error("expected errors.Is to unwrap to the wrapped error")
	}
}

func TestParseErrorNoWrappedErr(t *testing.T) {
	err := &book.ParseError{Source: "s.ase", Offset: 4, Context: "signature"}
	want := "s.ase: signature at offset 4"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
