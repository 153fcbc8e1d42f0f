package httperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classe une erreur métier dans la taxonomie de l'API.
type Kind int

const (
	KindValidation Kind = iota
	KindNotFound
	KindConflict
	KindAuthorization
	KindGenerationExhausted
	KindStorage
)

type Error struct {
	Kind    Kind
	Code    string
	Message string

	// Erreurs par champ, remontées telles quelles dans l'enveloppe 422.
	Fields map[string]string

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindAuthorization:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func ValidationFields(code, message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message, Fields: fields}
}

func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

func Authorization(code, message string) *Error {
	return &Error{Kind: KindAuthorization, Code: code, Message: message}
}

func GenerationExhausted(code, message string) *Error {
	return &Error{Kind: KindGenerationExhausted, Code: code, Message: message}
}

func Storage(err error) *Error {
	return &Error{Kind: KindStorage, Code: "storage_error", Message: "Erreur de stockage.", Err: err}
}

// Is vérifie qu'une erreur appartient à un kind donné.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
