package application

import (
	"errors"

	"github.com/example/onrope-scheduler/internal/persistence"
)

func requirePrincipal(p Principal) error {
	if p.UserID == "" || p.CompanyID == "" || !p.Role.Valid() {
		return ErrUnauthorized
	}
	return nil
}

func requireManager(p Principal) error {
	if err := requirePrincipal(p); err != nil {
		return err
	}
	if !p.Role.CanManageSchedule() {
		return ErrForbidden
	}
	return nil
}

// sameCompany hides records of other tenants behind ErrNotFound.
func sameCompany(p Principal, companyID string) error {
	if companyID != p.CompanyID {
		return ErrNotFound
	}
	return nil
}

func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return newValidationError("reference", "related records are missing")
	case errors.Is(err, persistence.ErrConstraintViolation):
		return newValidationError("record", "record violates a storage constraint")
	}
	return err
}

func isNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound)
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result
}
