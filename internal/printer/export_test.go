package printer

import "time"

// SetViewClock replaces the clock of a terminal view.
func SetViewClock(v *TerminalView, now func() time.Time) { v.now = now }
