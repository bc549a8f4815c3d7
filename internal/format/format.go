// Package format renders durations and counts for CLI progress lines.
package format

import (
	"fmt"
	"time"
)

// Elapsed formats a duration as HH:MM:SS or MM:SS.
func Elapsed(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// Delay formats a backoff delay: "250ms", "2s", "1m30s".
// Sub-second precision is kept only below one second.
func Delay(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d/time.Millisecond)
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", d/time.Second)
	}
	m := d / time.Minute
	if s := (d % time.Minute) / time.Second; s > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%dm", m)
}

// Minutes formats a study session length: "45 min", "1h", "1h05".
func Minutes(n int) string {
	if n < 60 {
		return fmt.Sprintf("%d min", n)
	}
	if n%60 == 0 {
		return fmt.Sprintf("%dh", n/60)
	}
	return fmt.Sprintf("%dh%02d", n/60, n%60)
}

// Tokens formats a token count: "850 tokens", "12.5k tokens", "1.2M tokens".
func Tokens(n int) string {
	switch {
	case n == 1:
		return "1 token"
	case n < 1000:
		return fmt.Sprintf("%d tokens", n)
	case n < 1_000_000:
		return fmt.Sprintf("%.1fk tokens", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM tokens", float64(n)/1_000_000)
}

// Size formats a size in bytes: "512 bytes", "3 KB", "2 MB".
func Size(bytes int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	switch {
	case bytes >= mb:
		return fmt.Sprintf("%d MB", bytes/mb)
	case bytes >= kb:
		return fmt.Sprintf("%d KB", bytes/kb)
	case bytes == 1:
		return "1 byte"
	}
	return fmt.Sprintf("%d bytes", bytes)
}
