package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/hbashir/paniwala/internal/app"
	"github.com/hbashir/paniwala/internal/voice/capture/ws"
	"github.com/hbashir/paniwala/internal/voice/grammar"
)

// VoiceHandler upgrades /ws/voice to a WebSocket, binds it to a command
// session, and relays session statuses back as toast frames.
type VoiceHandler struct {
	app     *app.App
	origins []string
}

func NewVoiceHandler(a *app.App, origins []string) *VoiceHandler {
	return &VoiceHandler{app: a, origins: origins}
}

func (h *VoiceHandler) Serve(w http.ResponseWriter, r *http.Request) {
	capSess, err := ws.Accept(w, r, h.origins)
	if err != nil {
		// Accept has already written the handshake failure.
		slog.Debug("httpapi: voice ws handshake failed", "err", err)
		return
	}

	mode := grammar.Mode(r.URL.Query().Get("mode"))
	sess := h.app.NewCommandSession(capSess, mode)
	ctx := r.Context()

	// Statuses flow back on the same connection. The channel closes when
	// the session ends, which ends this goroutine.
	go func() {
		for st := range sess.Status() {
			level := "info"
			if st.Error {
				level = "error"
			}
			err := capSess.SendStatus(ctx, ws.StatusMessage{
				Kind:    string(st.Code),
				Level:   level,
				Message: st.Message,
			})
			if err != nil {
				slog.Debug("httpapi: voice status dropped", "err", err)
			}
		}
	}()

	if err := sess.Run(ctx); err != nil {
		slog.Debug("httpapi: voice session ended", "err", err)
	}
}
