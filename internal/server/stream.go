package server

import (
	"fmt"
	"net/http"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/render"
	"github.com/ayusman/mudra/internal/scene"
)

// Stream size and rate.
const (
	StreamWidth  = 640
	StreamHeight = 360
	streamPeriod = 66 * time.Millisecond // ~15 FPS
)

// StreamHandler serves the rendered scene as MJPEG.
type StreamHandler struct {
	app Controller
}

// NewStreamHandler creates a new StreamHandler reading from app.
func NewStreamHandler(app Controller) *StreamHandler {
	return &StreamHandler{app: app}
}

// ServeHTTP streams MJPEG frames to connected clients.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Each client paints its own frames.
	painter := render.NewPainter(render.DefaultCamera(), StreamWidth, StreamHeight)
	var snap scene.Snapshot

	ticker := time.NewTicker(streamPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		h.app.Latest(&snap)
		img := painter.Paint(&snap)

		mat, err := gocv.ImageToMatRGB(img)
		if err != nil {
			continue
		}
		buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
		mat.Close()
		if err != nil {
			continue
		}

		// Write MJPEG frame
		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", buf.Len())
		w.Write(buf.GetBytes())
		fmt.Fprintf(w, "\r\n")
		buf.Close()

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
