package x11

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xgraphics"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/1broseidon/tessel/internal/bar"
	"github.com/1broseidon/tessel/internal/platform"
)

// Preview is a top-level X window that shows composited frames.
type Preview struct {
	conn *Connection
	win  *xwindow.Window
	size platform.Size

	mu    sync.Mutex
	img   *xgraphics.Image
	dirty chan struct{}

	logger *slog.Logger
}

// NewPreview creates and maps a size.Width x size.Height window. onClose runs
// when the window manager asks the window to close.
func NewPreview(conn *Connection, size platform.Size, title string, onClose func(), logger *slog.Logger) (*Preview, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if size.Width <= 0 || size.Height <= 0 {
		return nil, fmt.Errorf("invalid preview size %dx%d", size.Width, size.Height)
	}

	win, err := xwindow.Generate(conn.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate preview window: %w", err)
	}
	win.Create(conn.Root, 0, 0, size.Width, size.Height, xproto.CwBackPixel, 0x000000)
	if err := win.Listen(xproto.EventMaskKeyPress, xproto.EventMaskExposure, xproto.EventMaskStructureNotify); err != nil {
		return nil, fmt.Errorf("failed to select preview events: %w", err)
	}
	if err := ewmh.WmNameSet(conn.XUtil, win.Id, title); err != nil {
		logger.Debug("failed to set preview title", "error", err)
	}

	img := xgraphics.New(conn.XUtil, image.Rect(0, 0, size.Width, size.Height))
	if err := img.XSurfaceSet(win.Id); err != nil {
		win.Destroy()
		return nil, fmt.Errorf("failed to create preview surface: %w", err)
	}

	p := &Preview{
		conn:   conn,
		win:    win,
		size:   size,
		img:    img,
		dirty:  make(chan struct{}, 1),
		logger: logger.With("component", "x11-preview"),
	}

	win.WMGracefulClose(func(w *xwindow.Window) {
		p.logger.Info("preview window closed")
		if onClose != nil {
			onClose()
		}
	})
	xevent.ExposeFun(func(xu *xgbutil.XUtil, ev xevent.ExposeEvent) {
		if ev.Count == 0 {
			p.markDirty()
		}
	}).Connect(conn.XUtil, win.Id)

	win.Map()
	return p, nil
}

// Window is the preview window id.
func (p *Preview) Window() xproto.Window {
	return p.win.Id
}

// Present copies a composite into the preview buffer. It does no X I/O and
// is safe to call from the renderer's frame callback.
func (p *Preview) Present(c *bar.Canvas) {
	if c.Width != p.size.Width || c.Height != p.size.Height {
		return
	}
	p.mu.Lock()
	copyBGRA(p.img.Pix, p.img.Stride, c)
	p.mu.Unlock()
	p.markDirty()
}

func (p *Preview) markDirty() {
	select {
	case p.dirty <- struct{}{}:
	default:
	}
}

// Run pushes dirty frames to the X server until ctx is cancelled. Bursts of
// frames collapse into one upload.
func (p *Preview) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-p.dirty:
			p.mu.Lock()
			p.img.XDraw()
			p.img.XPaint(p.win.Id)
			p.mu.Unlock()
		}
	}
}

// Destroy releases the window and its pixmap.
func (p *Preview) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.img.Destroy()
	p.win.Destroy()
}

// copyBGRA converts canvas RGBA pixels into an X image buffer laid out as BGRA.
func copyBGRA(dst []byte, stride int, c *bar.Canvas) {
	for y := 0; y < c.Height; y++ {
		src := c.Pix[y*c.Stride() : y*c.Stride()+c.Width*4]
		row := dst[y*stride : y*stride+c.Width*4]
		for x := 0; x < len(src); x += 4 {
			row[x] = src[x+2]
			row[x+1] = src[x+1]
			row[x+2] = src[x]
			row[x+3] = 0xff
		}
	}
}
