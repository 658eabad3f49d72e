package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// streamInterval paces the MJPEG stream at about 15 FPS.
const streamInterval = 66 * time.Millisecond

// handleStream serves the annotated frames published to the hub as MJPEG.
func (s *Server) handleStream(c *gin.Context) {
	release := s.config.Hub.watch()
	defer release()

	w := c.Writer
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	var last uint64
	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
		}

		jpeg, seq := s.config.Hub.Frame()
		if seq == last || len(jpeg) == 0 {
			continue
		}
		last = seq

		if err := writePart(w, jpeg); err != nil {
			s.logger.Debug("stream client gone", "err", err)
			return
		}
		w.Flush()
	}
}

// writePart writes one multipart JPEG part.
func writePart(w http.ResponseWriter, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	_, err := fmt.Fprint(w, "\r\n")
	return err
}
