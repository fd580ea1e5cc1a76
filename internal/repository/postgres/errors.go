package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"mentorlink-backend/internal/domain"

	"github.com/lib/pq"
)

// translateError maps driver-level failures onto the domain taxonomy.
// 42501 (insufficient_privilege) is what a row policy rejection surfaces as;
// the invitation store turns it into the delete fallback. Connection-class
// errors become ErrTransient so callers know a retry is safe.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "42501":
			return fmt.Errorf("%w: %s", domain.ErrAuthorizationDenied, pqErr.Message)
		case pqErr.Code.Class() == "08": // connection exceptions
			return fmt.Errorf("%w: %s", domain.ErrTransient, pqErr.Message)
		}
	}
	return err
}
