package tray

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/getlantern/systray"

	"circle-to-search/src/popup"
)

var (
	ready   atomic.Bool
	aboutMu sync.Mutex
	about   struct {
		hotkey string
		extra  string
	}
)

type Config struct {
	Title   string
	Tooltip string
	Color   string
	// OnCapture is called from the menu goroutine; it must not block.
	OnCapture func()
	OnQuit    func()
}

type Tray struct {
	cfg  Config
	icon []byte
	once sync.Once
}

func New(cfg Config) (*Tray, error) {
	png, err := encodePNG(renderIcon(cfg.Color))
	if err != nil {
		return nil, fmt.Errorf("failed to render tray icon: %w", err)
	}
	return &Tray{cfg: cfg, icon: iconBytes(png)}, nil
}

// Run blocks until Destroy or the Quit menu item.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {
		ready.Store(false)
		log.Printf("Tray: exited")
	})
}

func (t *Tray) Destroy() {
	t.once.Do(func() {
		if ready.Load() {
			systray.Quit()
		}
	})
}

func (t *Tray) onReady() {
	systray.SetIcon(t.icon)
	systray.SetTitle(t.cfg.Title)
	systray.SetTooltip(t.cfg.Tooltip)

	capture := systray.AddMenuItem("Search screen region", "Select a region and search it")
	aboutItem := systray.AddMenuItem("About", "About "+t.cfg.Title)
	systray.AddSeparator()
	quit := systray.AddMenuItem("Quit", "Quit "+t.cfg.Title)
	ready.Store(true)
	log.Printf("Tray: ready")

	go func() {
		for {
			select {
			case <-capture.ClickedCh:
				log.Printf("Tray: capture requested")
				if t.cfg.OnCapture != nil {
					t.cfg.OnCapture()
				}
			case <-aboutItem.ClickedCh:
				_ = popup.Show(AboutText(t.cfg.Title))
			case <-quit.ClickedCh:
				log.Printf("Tray: quit requested")
				if t.cfg.OnQuit != nil {
					t.cfg.OnQuit()
				}
				t.Destroy()
				return
			}
		}
	}()
}

// UpdateTooltip is a no-op until the tray is ready.
func UpdateTooltip(text string) {
	if ready.Load() {
		systray.SetTooltip(text)
	}
}

func SetAboutHotkey(hotkey string) {
	aboutMu.Lock()
	defer aboutMu.Unlock()
	about.hotkey = hotkey
}

func SetAboutExtra(extra string) {
	aboutMu.Lock()
	defer aboutMu.Unlock()
	about.extra = extra
}

func AboutText(title string) string {
	aboutMu.Lock()
	defer aboutMu.Unlock()
	lines := []string{title}
	if about.hotkey != "" {
		lines = append(lines, "Hotkey: "+about.hotkey)
	}
	if about.extra != "" {
		lines = append(lines, about.extra)
	}
	return strings.Join(lines, "\n")
}
