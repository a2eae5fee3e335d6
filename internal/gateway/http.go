package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/pillarhq/routegate/internal/route"
	"github.com/pillarhq/routegate/internal/server"
)

// maxBodyBytes caps inbound request bodies at 10 MiB.
const maxBodyBytes = 10 << 20

// ServeHTTP adapts the transport request into the routing layer and writes
// the normalized response back. The request ID assigned by the server
// middleware doubles as the correlation ID.
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		server.AddError(r.Context(), err)
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	req := &route.Request{
		Method:        r.Method,
		Path:          r.URL.Path,
		QueryParams:   r.URL.Query(),
		Headers:       r.Header,
		Body:          body,
		CorrelationID: server.GetRequestID(r.Context()),
	}

	resp := s.Handle(r.Context(), req)
	if resp == nil {
		// Caller went away; there is nobody to answer.
		return
	}
	// Surface the matched route's tag on the request log line.
	server.AddLogField(r.Context(), "route_tag", req.Tag)
	s.writeResponse(w, resp)
}

func (s *Service) writeResponse(w http.ResponseWriter, resp *route.Response) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)

	if resp.Body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(resp.Body); err != nil {
		s.logger.Error("failed to encode response body", slog.String("error", err.Error()))
	}
}
