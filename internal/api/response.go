package api

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, payload any) {
	render.Status(r, statusCode)
	render.JSON(w, r, payload)
}

func writeError(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	writeJSON(w, r, statusCode, errorResponse{Error: message})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return render.DecodeJSON(r.Body, v)
}

type requestValidator struct {
	v *validator.Validate
}

func newRequestValidator() *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their JSON names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &requestValidator{v: v}
}

// Struct validates s and returns a client-facing message, or "" when valid.
func (rv *requestValidator) Struct(s any) string {
	err := rv.v.Struct(s)
	if err == nil {
		return ""
	}

	var validateErr validator.ValidationErrors
	if !errors.As(err, &validateErr) {
		return "invalid request"
	}

	msgs := make([]string, 0, len(validateErr))
	for _, fe := range validateErr {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "email":
			msgs = append(msgs, fmt.Sprintf("%s is not a valid email", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is not valid", fe.Field()))
		}
	}
	return strings.Join(msgs, ", ")
}
