package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/fpang/reel-studio/internal/catalog"
	"github.com/fpang/reel-studio/internal/reel"
	"github.com/fpang/reel-studio/internal/selection"
	"github.com/fpang/reel-studio/internal/workspace"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	Transient bool   `json:"transient,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response")
	}
}

func httpError(w http.ResponseWriter, status int, kind, message string) {
	respondJSON(w, status, errorBody{Error: message, Kind: kind})
}

// decodeJSON reads a request body into dst and validates it.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &badRequest{msg: "invalid JSON body: " + err.Error()}
	}
	if err := s.validate.Struct(dst); err != nil {
		return err
	}
	return nil
}

type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

// writeError maps an error to a status code and JSON body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	ev := log.Warn()
	if status >= 500 {
		ev = log.Error()
	}
	ev.Err(err).Str("path", r.URL.Path).Int("status", status).Str("kind", body.Kind).Msg("Request failed")
	respondJSON(w, status, body)
}

func classify(err error) (int, errorBody) {
	var (
		re  *reel.Error
		se  *selection.Error
		ve  validator.ValidationErrors
		bad *badRequest
	)
	switch {
	case errors.As(err, &re):
		body := errorBody{Error: re.Message, Kind: re.Kind.Error(), Transient: re.Transient()}
		switch re.Kind {
		case reel.ErrInvalidSelection:
			return http.StatusBadRequest, body
		case reel.ErrUnknownSession:
			return http.StatusNotFound, body
		case reel.ErrProviderUnavailable:
			return http.StatusServiceUnavailable, body
		case reel.ErrArtifact, reel.ErrSubmission:
			return http.StatusBadGateway, body
		default:
			return http.StatusInternalServerError, body
		}
	case errors.As(err, &se):
		return http.StatusConflict, errorBody{Error: se.Error(), Kind: se.Kind.String()}
	case errors.Is(err, workspace.ErrNoCategory), errors.Is(err, workspace.ErrNotInCategory):
		return http.StatusBadRequest, errorBody{Error: err.Error(), Kind: reel.ErrInvalidSelection.Error()}
	case errors.Is(err, catalog.ErrUnknownCategory):
		return http.StatusNotFound, errorBody{Error: err.Error(), Kind: "unknown category"}
	case errors.As(err, &ve):
		return http.StatusBadRequest, errorBody{Error: validationMessage(ve), Kind: "invalid request"}
	case errors.As(err, &bad):
		return http.StatusBadRequest, errorBody{Error: bad.msg, Kind: "invalid request"}
	default:
		return http.StatusInternalServerError, errorBody{Error: "internal error", Kind: "internal"}
	}
}

func validationMessage(ve validator.ValidationErrors) string {
	if len(ve) == 0 {
		return "invalid request"
	}
	fe := ve[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fe.Field() + " must have at most " + fe.Param() + " entries"
	default:
		return fe.Field() + " is invalid (" + fe.Tag() + ")"
	}
}
