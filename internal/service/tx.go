package service

import (
	"database/sql"
	"errors"
	"log/slog"
)

// rollback откатывает транзакцию; ошибку отката только логируем, наружу уходит исходная
func rollback(logger *slog.Logger, tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logger.Error("transaction rollback failed", slog.Any("error", err))
	}
}
