package service

import (
	"context"
)

// IAlerterService отправка алертов операторам (например, о падении джобы)
type IAlerterService interface {
	SendAlert(ctx context.Context, message string) error
}
