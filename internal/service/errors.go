package service

import (
	"errors"
	"strings"
)

var (
	// ErrUserExists is returned when the email or username is already registered.
	ErrUserExists = errors.New("user with this email or username already exists")
	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned when a token refers to a user that no longer exists.
	ErrUserNotFound = errors.New("user not found")

	// ErrProjectNotFound covers both missing projects and projects owned by someone else.
	ErrProjectNotFound = errors.New("project not found")
	// ErrProjectExists is returned when the owner already has a project with that name.
	ErrProjectExists = errors.New("project with this name already exists")

	// ErrEpisodeNotFound is returned when the episode does not exist.
	ErrEpisodeNotFound = errors.New("episode not found")
	// ErrEpisodeForbidden is returned when the episode exists but belongs to another user.
	ErrEpisodeForbidden = errors.New("not authorized to access this episode")
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when a payload fails validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// validator collects field errors in the order checks are made.
type validator struct {
	fields []FieldError
}

func (v *validator) check(ok bool, field, message string) {
	if !ok {
		v.fields = append(v.fields, FieldError{Field: field, Message: message})
	}
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}
