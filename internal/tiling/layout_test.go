package tiling

import (
	"io"
	"log/slog"
	"testing"

	"github.com/1broseidon/tessel/internal/config"
	"github.com/1broseidon/tessel/internal/platform"
	"github.com/1broseidon/tessel/internal/workspace"
)

func view(mode config.LayoutMode, outer, inner int, ids ...platform.WindowID) workspace.View {
	v := workspace.View{ID: 1, Layout: mode, Gaps: config.Gaps{Outer: outer, Inner: inner}, Active: true}
	for _, id := range ids {
		v.Windows = append(v.Windows, workspace.WindowView{ID: id, Workspace: 1})
	}
	return v
}

func quietEngine() *Engine {
	return NewEngine(config.LayoutDefaults{FloatingWidth: 800, FloatingHeight: 600}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCompute_TilingTwoWindows(t *testing.T) {
	v := view(config.LayoutTiling, 10, 10, 1, 2)
	geoms, fits := Compute(v, platform.Rect{Width: 1000, Height: 1000}, platform.Size{Width: 800, Height: 600})
	if !fits {
		t.Fatalf("expected layout to fit")
	}

	// usable=980, slot=(980-20)/2=480; B starts at 10+480+10=500 and stretches to 990.
	want := map[platform.WindowID]platform.Rect{
		1: {X: 10, Y: 10, Width: 980, Height: 480},
		2: {X: 10, Y: 500, Width: 980, Height: 490},
	}
	for id, r := range want {
		if geoms[id] != r {
			t.Fatalf("window %d: expected %+v, got %+v", id, r, geoms[id])
		}
	}
}

func TestCompute_TilingColumnProperties(t *testing.T) {
	outputs := []platform.Rect{
		{Width: 1000, Height: 1000},
		{X: 0, Y: 30, Width: 1280, Height: 770},
		{Width: 333, Height: 517},
	}
	gaps := []config.Gaps{{Outer: 0, Inner: 0}, {Outer: 10, Inner: 10}, {Outer: 7, Inner: 3}}

	for _, out := range outputs {
		for _, g := range gaps {
			for n := 1; n <= 8; n++ {
				ids := make([]platform.WindowID, n)
				for i := range ids {
					ids[i] = platform.WindowID(i + 1)
				}
				v := view(config.LayoutTiling, g.Outer, g.Inner, ids...)
				geoms, fits := Compute(v, out, platform.Size{Width: 800, Height: 600})
				if !fits {
					t.Fatalf("n=%d out=%+v gaps=%+v: expected fit", n, out, g)
				}
				usable := Usable(out, g.Outer)

				sum := 0
				var union platform.Rect
				for i, id := range ids {
					r := geoms[id]
					if r.Width != out.Width-2*g.Outer {
						t.Fatalf("n=%d: width %d, want %d", n, r.Width, out.Width-2*g.Outer)
					}
					if r.Empty() {
						t.Fatalf("n=%d: window %d has empty rect", n, id)
					}
					for _, other := range ids[i+1:] {
						if r.Overlaps(geoms[other]) {
							t.Fatalf("n=%d: windows %d and %d overlap", n, id, other)
						}
					}
					sum += r.Height
					union = union.Union(r)
				}
				if union != usable {
					t.Fatalf("n=%d out=%+v gaps=%+v: union %+v, want usable %+v", n, out, g, union, usable)
				}
				if want := usable.Height - g.Inner*(n-1); sum != want {
					t.Fatalf("n=%d: total height %d, want %d", n, sum, want)
				}
			}
		}
	}
}

func TestCompute_ZeroWindows(t *testing.T) {
	for _, mode := range []config.LayoutMode{config.LayoutTiling, config.LayoutFloating, config.LayoutMonocle} {
		geoms, fits := Compute(view(mode, 10, 10), platform.Rect{Width: 100, Height: 100}, platform.Size{})
		if len(geoms) != 0 || !fits {
			t.Fatalf("%s: expected no geometries, got %v", mode, geoms)
		}
	}
}

func TestCompute_TooSmallForGaps(t *testing.T) {
	v := view(config.LayoutTiling, 30, 30, 1, 2, 3)
	geoms, fits := Compute(v, platform.Rect{Width: 50, Height: 50}, platform.Size{})
	if fits {
		t.Fatalf("expected layout not to fit")
	}
	for id, r := range geoms {
		if !r.Empty() {
			t.Fatalf("window %d: expected zero-area rect, got %+v", id, r)
		}
	}
}

func TestCompute_SplitRatio(t *testing.T) {
	v := view(config.LayoutTiling, 10, 10, 1, 2, 3)
	v.SplitRatio = 0.5
	geoms, _ := Compute(v, platform.Rect{Width: 1000, Height: 1000}, platform.Size{})

	// primary = (980-10)*0.5 = 485; secondary starts at 10+485+10 = 505 and is 485 wide.
	if got := geoms[1]; got != (platform.Rect{X: 10, Y: 10, Width: 485, Height: 980}) {
		t.Fatalf("primary: got %+v", got)
	}
	if got := geoms[2]; got != (platform.Rect{X: 505, Y: 10, Width: 485, Height: 480}) {
		t.Fatalf("secondary top: got %+v", got)
	}
	if got := geoms[3]; got != (platform.Rect{X: 505, Y: 500, Width: 485, Height: 490}) {
		t.Fatalf("secondary bottom: got %+v", got)
	}
}

func TestCompute_Monocle(t *testing.T) {
	area := platform.Rect{Width: 1000, Height: 1000}
	usable := platform.Rect{X: 10, Y: 10, Width: 980, Height: 980}

	tests := []struct {
		name   string
		mutate func(*workspace.View)
		want   platform.WindowID
	}{
		{name: "no focus picks first", mutate: func(*workspace.View) {}, want: 1},
		{name: "focused window", mutate: func(v *workspace.View) { v.Windows[2].Focused = true }, want: 3},
		{name: "last focused on inactive workspace", mutate: func(v *workspace.View) { v.LastFocused = 2 }, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := view(config.LayoutMonocle, 10, 10, 1, 2, 3)
			tt.mutate(&v)
			geoms, _ := Compute(v, area, platform.Size{})

			visible := 0
			for id, r := range geoms {
				if r.Empty() {
					continue
				}
				visible++
				if id != tt.want || r != usable {
					t.Fatalf("expected only window %d at %+v, got %d at %+v", tt.want, usable, id, r)
				}
			}
			if visible != 1 {
				t.Fatalf("expected exactly one visible window, got %d", visible)
			}
		})
	}
}

func TestCompute_FloatingCascade(t *testing.T) {
	v := view(config.LayoutFloating, 10, 10, 1, 2)
	v.Windows[1].FloatSize = platform.Size{Width: 400, Height: 300}
	geoms, _ := Compute(v, platform.Rect{Width: 1000, Height: 1000}, platform.Size{Width: 800, Height: 600})

	if got := geoms[1]; got != (platform.Rect{X: 100, Y: 200, Width: 800, Height: 600}) {
		t.Fatalf("default size window: got %+v", got)
	}
	if got := geoms[2]; got != (platform.Rect{X: 330, Y: 380, Width: 400, Height: 300}) {
		t.Fatalf("explicit size window: got %+v", got)
	}
}

func TestCascade_Clamps(t *testing.T) {
	area := platform.Rect{X: 0, Y: 30, Width: 1000, Height: 700}

	tests := []struct {
		name  string
		size  platform.Size
		index int
		want  platform.Rect
	}{
		{name: "deep cascade clamps to edge", size: platform.Size{Width: 800, Height: 600}, index: 10,
			want: platform.Rect{X: 200, Y: 130, Width: 800, Height: 600}},
		{name: "larger than output pins origin", size: platform.Size{Width: 1200, Height: 900}, index: 1,
			want: platform.Rect{X: 0, Y: 30, Width: 1200, Height: 900}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cascade(area, tt.size, tt.index); got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestCompute_FloatingWindowsInTilingMode(t *testing.T) {
	v := view(config.LayoutTiling, 10, 10, 1, 2)
	v.Windows[1].Floating = true
	geoms, _ := Compute(v, platform.Rect{Width: 1000, Height: 1000}, platform.Size{Width: 800, Height: 600})

	if got := geoms[1]; got != (platform.Rect{X: 10, Y: 10, Width: 980, Height: 980}) {
		t.Fatalf("tiled window should fill the column, got %+v", got)
	}
	if got := geoms[2]; got != (platform.Rect{X: 100, Y: 200, Width: 800, Height: 600}) {
		t.Fatalf("floating window should be centred, got %+v", got)
	}
}

func TestEngine_CachesUntilInvalidated(t *testing.T) {
	e := quietEngine()
	area := platform.Rect{Width: 1000, Height: 1000}
	v := view(config.LayoutTiling, 10, 10, 1, 2)

	first := e.Geometries(v, area)
	e.Geometries(v, area)
	if e.Computations() != 1 {
		t.Fatalf("expected cached result, computed %d times", e.Computations())
	}

	first[1] = platform.Rect{}
	if again := e.Geometries(v, area); again[1].Empty() {
		t.Fatalf("mutating a returned map must not corrupt the cache")
	}

	e.Geometries(v, platform.Rect{Width: 800, Height: 600})
	if e.Computations() != 2 {
		t.Fatalf("expected recompute on area change, computed %d times", e.Computations())
	}

	e.Invalidate(1)
	e.Geometries(v, platform.Rect{Width: 800, Height: 600})
	if e.Computations() != 3 {
		t.Fatalf("expected recompute after invalidate, computed %d times", e.Computations())
	}
}
