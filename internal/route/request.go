package route

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"
)

// Request carries the transport-independent view of one inbound call. It is
// created per request and discarded after the response is sent.
type Request struct {
	Method        string
	Path          string
	PathParams    map[string]string
	QueryParams   url.Values
	Headers       http.Header
	Body          json.RawMessage
	TenantID      string
	Subject       string
	CorrelationID string

	// Tag is the grouping tag of the matched route, set by the router
	// before the middleware chain runs.
	Tag string
}

// Handler is a locally bound callable that terminates a route.
type Handler func(ctx context.Context, req *Request) (*Response, error)

// Response is the normalized envelope every routed call yields.
type Response struct {
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    any               `json:"body"`
}

// JSON builds a response with the given status and body.
func JSON(status int, body any) *Response {
	return &Response{Status: status, Body: body}
}

// errorBody is the wire shape of a structured error response.
type errorBody struct {
	Success bool        `json:"success"`
	Error   errorDetail `json:"error"`
}

type errorDetail struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlation_id,omitempty"`
	Timestamp     string `json:"timestamp"`
}

// NotFoundResponse builds the structured not-found envelope.
func NotFoundResponse(method, path, correlationID string) *Response {
	return ErrorResponse(ErrRouteNotFound(method, path), correlationID)
}

// ErrorResponse converts any error into a structured response carrying the
// correlation ID. Raw error chains never reach the transport.
func ErrorResponse(err error, correlationID string) *Response {
	status := http.StatusInternalServerError
	code := string(ErrorCodeHandlerFailed)
	msg := "internal error"

	var rerr *Error
	if AsError(err, &rerr) {
		status = rerr.HTTPStatusCode()
		code = string(rerr.Code)
		msg = rerr.Message
	} else if err != nil {
		msg = err.Error()
	}

	return &Response{
		Status: status,
		Body: errorBody{
			Error: errorDetail{
				Code:          code,
				Message:       msg,
				CorrelationID: correlationID,
				Timestamp:     time.Now().UTC().Format(time.RFC3339),
			},
		},
	}
}
