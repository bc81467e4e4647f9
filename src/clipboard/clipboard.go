package clipboard

import (
	"errors"
	"sync"

	"golang.design/x/clipboard"
)

// ErrNotInitialized is returned by Write before a successful Init.
var ErrNotInitialized = errors.New("clipboard not initialized")

var (
	initOnce sync.Once
	initErr  error
	ready    bool
	writeMu  sync.Mutex
)

// Init prepares the system clipboard. Later calls return the first result.
func Init() error {
	initOnce.Do(func() {
		initErr = clipboard.Init()
		writeMu.Lock()
		ready = initErr == nil
		writeMu.Unlock()
	})
	return initErr
}

// Write performs a mutex-guarded clipboard write to prevent corruption under parallel writes.
func Write(text string) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	if !ready {
		return ErrNotInitialized
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
