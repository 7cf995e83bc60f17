package web

import (
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	LevelSuccess = "success"
	LevelError   = "error"
)

const flashSession = "portal_flash"

// Message is a one-time notification shown on the next rendered page.
type Message struct {
	Level string
	Text  string
}

// Flash is a session-backed, single-use notification inbox. Messages are
// queued under their level key and drained on the next render.
type Flash struct {
	store sessions.Store
}

func NewFlash(secret string) *Flash {
	return &Flash{store: sessions.NewCookieStore([]byte(secret))}
}

func (f *Flash) Add(w http.ResponseWriter, r *http.Request, level, text string) {
	sess, _ := f.store.Get(r, flashSession)
	sess.AddFlash(text, level)
	_ = sess.Save(r, w)
}

// Pop drains every queued message, success before error, and persists
// the now-empty session so each message is shown exactly once.
func (f *Flash) Pop(w http.ResponseWriter, r *http.Request) []Message {
	sess, _ := f.store.Get(r, flashSession)

	var msgs []Message
	for _, level := range []string{LevelSuccess, LevelError} {
		for _, v := range sess.Flashes(level) {
			text, ok := v.(string)
			if !ok {
				continue
			}
			msgs = append(msgs, Message{Level: level, Text: text})
		}
	}

	_ = sess.Save(r, w)
	return msgs
}
