package unspool

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values, so the app
// automatically matches any color scheme.
type Theme struct {
	Prompt  int // Viewer prompt accent
	Literal int // Literal block header
	Focus   int // Focused literal block marker
	Error   int // Error messages
	Success int // Completion indicators
	Muted   int // Status bar, placeholders, gutters
	Panel   int // Side panel border
	Accent  int // Headings, links
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		Prompt:  4,
		Literal: 3,
		Focus:   6,
		Error:   1,
		Success: 2,
		Muted:   8,
		Panel:   4,
		Accent:  5,
	}
}
