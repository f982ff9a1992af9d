package persistent

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when no row matches both the id and the owner.
var ErrNotFound = errors.New("post not found")

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
