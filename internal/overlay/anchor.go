package overlay

import "image"

// Anchor enumerates the screen corners the overlay can attach to.
// AnchorNearClock tracks the taskbar tray corner.
type Anchor int

const (
	AnchorNearClock Anchor = iota
	AnchorUpperLeft
	AnchorUpperRight
	AnchorLowerRight
	AnchorLowerLeft
)

var anchorNames = map[Anchor]string{
	AnchorNearClock:  "near-clock",
	AnchorUpperLeft:  "upper-left",
	AnchorUpperRight: "upper-right",
	AnchorLowerRight: "lower-right",
	AnchorLowerLeft:  "lower-left",
}

func (a Anchor) String() string {
	if name, ok := anchorNames[a]; ok {
		return name
	}
	return "near-clock"
}

// ParseAnchor maps a config anchor name to its Anchor. Unknown names fall
// back to near-clock.
func ParseAnchor(name string) Anchor {
	for a, n := range anchorNames {
		if n == name {
			return a
		}
	}
	return AnchorNearClock
}

// Position computes the overlay's top-left screen coordinate for a
// content box of the given size. taskbar may be the zero rectangle when
// the desktop reports no reserved strip; AnchorNearClock then behaves
// like lower-right.
func Position(anchor Anchor, screen, taskbar image.Rectangle, size image.Point, outsideMargin int) image.Point {
	work := workArea(screen, taskbar)
	switch anchor {
	case AnchorUpperLeft:
		return image.Pt(screen.Min.X+outsideMargin, screen.Min.Y+outsideMargin)
	case AnchorUpperRight:
		return image.Pt(screen.Max.X-size.X-outsideMargin, screen.Min.Y+outsideMargin)
	case AnchorLowerLeft:
		return image.Pt(screen.Min.X+outsideMargin, screen.Max.Y-size.Y-outsideMargin)
	case AnchorLowerRight:
		return image.Pt(screen.Max.X-size.X-outsideMargin, screen.Max.Y-size.Y-outsideMargin)
	default:
		// Near the clock: the tray corner of the unreserved work area.
		return image.Pt(work.Max.X-size.X-outsideMargin, work.Max.Y-size.Y-outsideMargin)
	}
}

// workArea subtracts the taskbar strip from the screen rectangle.
func workArea(screen, taskbar image.Rectangle) image.Rectangle {
	if taskbar.Empty() || !taskbar.Overlaps(screen) {
		return screen
	}
	work := screen
	switch {
	case taskbar.Dx() >= taskbar.Dy() && taskbar.Min.Y <= screen.Min.Y:
		work.Min.Y = taskbar.Max.Y // top bar
	case taskbar.Dx() >= taskbar.Dy():
		work.Max.Y = taskbar.Min.Y // bottom bar
	case taskbar.Min.X <= screen.Min.X:
		work.Min.X = taskbar.Max.X // left bar
	default:
		work.Max.X = taskbar.Min.X // right bar
	}
	return work
}
