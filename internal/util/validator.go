package util

import "strings"

// ValidationError descreve um campo de entrada recusado.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// NewValidationError cria erro de validação para o campo.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ValidatePassword verifica requisitos mínimos de senha.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return NewValidationError("senha", "deve ter pelo menos 8 caracteres")
	}
	return nil
}

// RequireString garante string não vazia.
func RequireString(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return NewValidationError(field, "obrigatório")
	}
	return nil
}
