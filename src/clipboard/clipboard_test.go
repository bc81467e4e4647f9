package clipboard

import (
	"errors"
	"testing"
)

func TestWriteBeforeInit(t *testing.T) {
	if err := Write("test text"); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("Write before Init = %v, want ErrNotInitialized", err)
	}
}
