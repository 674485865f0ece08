package translator

import "github.com/kisanseva/pagetrans/internal/apperrors"

func kindOf(err error) apperrors.Kind {
	kind, _ := apperrors.KindOf(err)
	return kind
}

func statusOf(err error) int {
	return apperrors.StatusOf(err)
}
