package feed

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Window is a look-back period. The zero value means no time restriction.
type Window time.Duration

// WindowAll disables time filtering
const WindowAll Window = 0

var namedWindows = map[string]Window{
	"":    WindowAll,
	"all": WindowAll,
	"24h": Window(24 * time.Hour),
	"7d":  Window(7 * 24 * time.Hour),
	"30d": Window(30 * 24 * time.Hour),
	"90d": Window(90 * 24 * time.Hour),
}

// ParseWindow accepts the dashboard presets (24h, 7d, 30d, 90d, all),
// a day count such as "14d", or any Go duration string.
func ParseWindow(s string) (Window, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if w, ok := namedWindows[s]; ok {
		return w, nil
	}

	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid time window %q", s)
		}
		return Window(time.Duration(n) * 24 * time.Hour), nil
	}

	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid time window %q", s)
	}
	return Window(d), nil
}

// Cutoff returns the earliest timestamp retained by the window
func (w Window) Cutoff(now time.Time) time.Time {
	return now.Add(-time.Duration(w))
}

// IsAll reports whether the window lets everything through
func (w Window) IsAll() bool {
	return w <= 0
}

func (w Window) String() string {
	if w.IsAll() {
		return "all"
	}
	d := time.Duration(w)
	if d%(24*time.Hour) == 0 {
		return strconv.Itoa(int(d/(24*time.Hour))) + "d"
	}
	return d.String()
}
