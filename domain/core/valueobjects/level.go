package valueobjects

// Level is a knowledge item's hierarchy level. Smaller numbers are more prominent.
// Raw keeps what the store reported; Display is clamped to the display ceiling.
type Level struct {
	raw     int
	display int
}

// NewLevel clamps raw to ceiling for display. Values below 1 are kept unless floor is set.
func NewLevel(raw, ceiling int, floor bool) Level {
	display := raw
	if display > ceiling {
		display = ceiling
	}
	if floor && display < 1 {
		display = 1
	}
	return Level{raw: raw, display: display}
}

// Raw returns the level as reported by the store
func (l Level) Raw() int { return l.raw }

// Display returns the clamped level used for classification and synthesis
func (l Level) Display() int { return l.display }

// BelowMinimum reports whether the displayed level is under 1
func (l Level) BelowMinimum() bool { return l.display < 1 }

// Diff returns the absolute distance between two display levels
func (l Level) Diff(other Level) int {
	d := l.display - other.display
	if d < 0 {
		return -d
	}
	return d
}
