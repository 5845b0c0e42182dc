package admin

import (
	"log/slog"
	"net/http"
)

const flashSession = "leapadmin-flash"

// addFlash stores a message shown on the next rendered page.
func (a *Admin) addFlash(w http.ResponseWriter, r *http.Request, msg string) {
	if a.sessions == nil {
		return
	}
	sess, err := a.sessions.Get(r, flashSession)
	if err != nil {
		a.logger.Warn("discarding unreadable flash session", slog.Any("error", err))
	}
	sess.AddFlash(msg)
	if err := sess.Save(r, w); err != nil {
		a.logger.Error("failed to save flash session", slog.Any("error", err))
	}
}

// popFlashes returns and clears pending messages.
func (a *Admin) popFlashes(w http.ResponseWriter, r *http.Request) []string {
	if a.sessions == nil {
		return nil
	}
	sess, err := a.sessions.Get(r, flashSession)
	if err != nil {
		return nil
	}
	flashes := sess.Flashes()
	if len(flashes) == 0 {
		return nil
	}
	if err := sess.Save(r, w); err != nil {
		a.logger.Error("failed to save flash session", slog.Any("error", err))
	}

	out := make([]string, 0, len(flashes))
	for _, f := range flashes {
		if s, ok := f.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
