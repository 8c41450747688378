package domain

import (
	"errors"
	"fmt"
)

// BusinessError ошибка входных данных, которую можно показать вызывающей стороне как есть.
// Ядро сервисов такие ошибки не возвращает - только HTTP-слой при валидации запросов
type BusinessError struct {
	Err error
}

func (e *BusinessError) Error() string {
	return e.Err.Error()
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError создаёт BusinessError по формату
func NewBusinessError(format string, args ...any) error {
	return &BusinessError{Err: fmt.Errorf(format, args...)}
}

func IsBusinessError(err error) bool {
	var businessErr *BusinessError
	return errors.As(err, &businessErr)
}
