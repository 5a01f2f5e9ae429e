package service

import (
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/lessonbook/internal/ledger"
	"github.com/mmynk/lessonbook/internal/models"
	"github.com/mmynk/lessonbook/pkg/api"
)

var errInternal = errors.New("internal error")

// toConnectError maps ledger errors onto Connect codes. The wire code from
// ledger.ErrorCode is attached as metadata. Unexpected errors are logged
// and hidden from the caller.
func toConnectError(op string, err error) error {
	code := ledger.ErrorCode(err)

	var connectErr *connect.Error
	switch code {
	case ledger.CodeDateTooEarly, ledger.CodeInvalidStatus, ledger.CodeInvalidAmount,
		ledger.CodeInvalidInput, ledger.CodeNotTracked:
		connectErr = connect.NewError(connect.CodeInvalidArgument, err)
	case ledger.CodeStudentNotFound, ledger.CodeTeacherNotFound, ledger.CodePackageNotFound:
		connectErr = connect.NewError(connect.CodeNotFound, err)
	case ledger.CodeNotYourStudent:
		connectErr = connect.NewError(connect.CodePermissionDenied, err)
	default:
		slog.Error(op+" failed", "error", err)
		connectErr = connect.NewError(connect.CodeInternal, errInternal)
	}
	connectErr.Meta().Set(api.MetaErrorCode, code)

	var tooEarly *ledger.DateTooEarlyError
	if errors.As(err, &tooEarly) {
		connectErr.Meta().Set(api.MetaMinDate, models.FormatDay(tooEarly.Floor))
	}
	return connectErr
}

func invalidArgument(err error) error {
	connectErr := connect.NewError(connect.CodeInvalidArgument, err)
	connectErr.Meta().Set(api.MetaErrorCode, ledger.CodeInvalidInput)
	return connectErr
}

func parseDay(s string) (time.Time, error) {
	day, err := models.ParseDay(s)
	if err != nil {
		return time.Time{}, invalidArgument(err)
	}
	return day, nil
}
