package repo

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflict")
)

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// validID guards uuid columns: postgres rejects malformed input with a
// syntax error rather than an empty result.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
