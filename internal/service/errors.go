package service

import (
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/payment"
)

var (
	ErrValidation          = errors.New("validation")             // 400
	ErrNotFound            = errors.New("not found")              // 404
	ErrConflict            = errors.New("conflict")               // 409
	ErrUnknownProduct      = payment.ErrUnknownProduct            // 400
	ErrPaymentNotCompleted = errors.New("payment not completed")  // terminal
	ErrInvalidTransition   = errors.New("invalid status change")  // 409
	ErrInvalidCredentials  = errors.New("invalid credentials")    // 401
	ErrBanned              = errors.New("account is banned")      // 403
)

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// bestEffort logs a failed side effect and swallows it.
func bestEffort(l *slog.Logger, event string, err error, args ...any) {
	if err == nil {
		return
	}
	l.Warn(event, append(args, "error", err)...)
}
