package web

import (
	"net/http"

	"github.com/JonMunkholm/tabconvert/internal/core"
)

// FormatInfo describes a registered format for API clients.
type FormatInfo struct {
	Format      core.Format `json:"format"`
	Label       string      `json:"label"`
	Extensions  []string    `json:"extensions"`
	Aliases     []string    `json:"aliases,omitempty"`
	ContentType string      `json:"content_type"`
	Readable    bool        `json:"readable"`
	Writable    bool        `json:"writable"`
}

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status      string             `json:"status"`
	Conversions core.LimiterStatus `json:"conversions"`
}

func (s *Server) handleListFormats(w http.ResponseWriter, r *http.Request) {
	defs := core.Formats()
	infos := make([]FormatInfo, 0, len(defs))
	for _, def := range defs {
		infos = append(infos, FormatInfo{
			Format:      def.Format,
			Label:       def.Label,
			Extensions:  def.Extensions,
			Aliases:     def.Aliases,
			ContentType: def.ContentType,
			Readable:    def.Read != nil,
			Writable:    def.Write != nil,
		})
	}
	writeJSON(w, r, infos)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, HealthResponse{
		Status:      "ok",
		Conversions: s.service.LimiterStatus(),
	})
}
