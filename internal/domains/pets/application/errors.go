package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/domain"
	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/ports"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant or targeted a pet in the wrong state.
	ErrInvalidInput = errors.New("invalid pet input")
	// ErrNotAuthorized signals the caller does not own the pet.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrNotFound aliases the store sentinel so transports need only this package.
	ErrNotFound = ports.ErrNotFound
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrEmptyName) ||
		errors.Is(err, domain.ErrEmptyBreed) ||
		errors.Is(err, domain.ErrEmptyColor) ||
		errors.Is(err, domain.ErrEmptyPhotoReference) ||
		errors.Is(err, domain.ErrEmptyOwner) ||
		errors.Is(err, domain.ErrEmptyLostLocation) ||
		errors.Is(err, domain.ErrEmptyFinderName) ||
		errors.Is(err, domain.ErrEmptyFoundLocation) ||
		errors.Is(err, domain.ErrNotLost) ||
		errors.Is(err, ports.ErrRecordTooLarge) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
