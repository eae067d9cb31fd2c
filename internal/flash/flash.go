// Package flash carries one-shot notifications across a redirect. Messages
// are queued on the cookie session and drained the next time a page renders.
package flash

import (
	"encoding/gob"
	"log"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Severity labels a message for presentation.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityError   Severity = "error"
)

// Message is a single one-shot notification.
type Message struct {
	Severity Severity
	Text     string
}

func init() {
	gob.Register(Message{})
}

// Success queues a success notification for the next rendered page.
func Success(c *gin.Context, text string) {
	add(c, Message{Severity: SeveritySuccess, Text: text})
}

// Info queues an informational notification for the next rendered page.
func Info(c *gin.Context, text string) {
	add(c, Message{Severity: SeverityInfo, Text: text})
}

// Error queues an error notification for the next rendered page.
func Error(c *gin.Context, text string) {
	add(c, Message{Severity: SeverityError, Text: text})
}

func add(c *gin.Context, msg Message) {
	session := sessions.Default(c)
	session.AddFlash(msg)
	if err := session.Save(); err != nil {
		log.Printf("flash: failed to save session: %v", err)
	}
}

// Take drains and returns all queued messages. Draining persists immediately,
// so a message renders exactly once.
func Take(c *gin.Context) []Message {
	session := sessions.Default(c)
	raw := session.Flashes()
	if len(raw) > 0 {
		if err := session.Save(); err != nil {
			log.Printf("flash: failed to clear session: %v", err)
		}
	}

	messages := make([]Message, 0, len(raw))
	for _, v := range raw {
		if msg, ok := v.(Message); ok {
			messages = append(messages, msg)
		}
	}
	return messages
}
