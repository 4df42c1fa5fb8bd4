package core

import (
	"encoding/json"
	"net/http"
)

// RequestBody decodes the JSON request body into TRequest.
func RequestBody[TRequest any](r *http.Request) (TRequest, error) {
	var request TRequest
	err := json.NewDecoder(r.Body).Decode(&request)
	return request, err
}

type errorResponse struct {
	Error string `json:"error"`
}

type ResponseOption func(http.ResponseWriter, *http.Request)

func WithHeader(header, value string) ResponseOption {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add(header, value)
	}
}

func WriteOK(w http.ResponseWriter, r *http.Request, body interface{}) {
	WriteResponse(w, r, http.StatusOK, body)
}

func WriteCreated(w http.ResponseWriter, r *http.Request, location string, body interface{}) {
	WriteResponse(w, r, http.StatusCreated, body, WithHeader("Location", location))
}

func WriteBadRequest(w http.ResponseWriter, r *http.Request, err error) {
	WriteResponse(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func WriteUnauthorized(w http.ResponseWriter, r *http.Request) {
	WriteResponse(w, r, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
}

func WriteInternalServerError(w http.ResponseWriter, r *http.Request) {
	WriteResponse(w, r, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}

// WriteCommandError maps a handler error onto an HTTP response. Unrecognized
// errors become a generic 500 so internals never leak to clients.
func WriteCommandError(w http.ResponseWriter, r *http.Request, err error) {
	if commandErr, ok := err.(CommandError); ok {
		WriteResponse(w, r, commandErr.StatusCode, errorResponse{Error: commandErr.Message()})
		return
	}

	WriteInternalServerError(w, r)
}

func WriteResponse(
	w http.ResponseWriter,
	r *http.Request,
	statusCode int,
	body interface{},
	opts ...ResponseOption,
) {
	for _, opt := range opts {
		opt(w, r)
	}

	if body == nil {
		w.WriteHeader(statusCode)
		return
	}

	responseBytes, err := json.Marshal(body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(responseBytes)
}
