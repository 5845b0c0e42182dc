package admin

import (
	"net/http"

	"github.com/starfederation/datastar-go/datastar"
)

// changes streams the view's committed writes as datastar signal patches.
// Clients receive {"lastChange": {...}} for every create, update or delete.
func (h *modelHandlers) changes(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates := h.admin.notifier.Subscribe()
	defer h.admin.notifier.Unsubscribe(updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-updates:
			if !ok {
				return
			}
			if c.Table != h.view.slug() {
				continue
			}
			if err := sse.MarshalAndPatchSignals(map[string]any{"lastChange": c}); err != nil {
				_ = sse.ConsoleError(err)
				return
			}
		}
	}
}
