package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// ConsoleMessage is a log line forwarded to a viewer's console panel
type ConsoleMessage struct {
	Session   string    `json:"session"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "info", "warning", "error"
}

// WebLogger implements core.Logger by sending messages to a console channel
type WebLogger struct {
	sessionID   string
	consoleChan chan<- ConsoleMessage
	now         func() time.Time
}

// NewWebLogger creates a logger for one render session. A nil channel only
// writes to stdout.
func NewWebLogger(sessionID string, consoleChan chan<- ConsoleMessage) core.Logger {
	return &WebLogger{
		sessionID:   sessionID,
		consoleChan: consoleChan,
		now:         time.Now,
	}
}

// Printf implements core.Logger
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)

	// Also write to stdout for server logs
	fmt.Printf("[%s] %s", wl.sessionID, message)

	if wl.consoleChan == nil {
		return
	}
	select {
	case wl.consoleChan <- ConsoleMessage{
		Session:   wl.sessionID,
		Message:   message,
		Timestamp: wl.now(),
		Level:     messageLevel(message),
	}:
	default:
		// Channel full, the viewer misses this line
	}
}

// messageLevel classifies a log line by its leading word
func messageLevel(message string) string {
	lower := strings.ToLower(strings.TrimSpace(message))
	switch {
	case strings.HasPrefix(lower, "error"), strings.Contains(lower, "failed"):
		return "error"
	case strings.HasPrefix(lower, "warning"), strings.Contains(lower, "cancelled"):
		return "warning"
	default:
		return "info"
	}
}
