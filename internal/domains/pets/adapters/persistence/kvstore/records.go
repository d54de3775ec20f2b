package kvstore

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/domain"
	"github.com/Apurer/go-gin-pet-finder/internal/platform/kv"
)

const (
	// MaxPetRecordSize bounds the encoded size of a pet entry.
	MaxPetRecordSize = 1024
	// MaxFoundReportSize bounds the encoded size of a found report entry.
	MaxFoundReportSize = 512
	// MaxRegistrationSize bounds the encoded size of a registration token entry.
	MaxRegistrationSize = 256
)

type petRecord struct {
	ID             uint64     `json:"id"`
	Name           string     `json:"name"`
	Breed          string     `json:"breed"`
	Color          string     `json:"color"`
	PhotoReference string     `json:"photo"`
	Owner          string     `json:"owner"`
	IsLost         bool       `json:"is_lost"`
	LostLocation   *string    `json:"lost_location,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

type foundReportRecord struct {
	PetID         uint64    `json:"pet_id"`
	FinderName    string    `json:"finder_name"`
	FoundLocation string    `json:"found_location"`
	CreatedAt     time.Time `json:"created_at"`
}

type registrationRecord struct {
	Digest string `json:"digest"`
	PetID  uint64 `json:"pet_id"`
}

var (
	petCodec          = kv.JSONCodec[petRecord]{Kind: "pet", Version: 1, MaxSize: MaxPetRecordSize}
	foundReportCodec  = kv.JSONCodec[foundReportRecord]{Kind: "found_report", Version: 1, MaxSize: MaxFoundReportSize}
	registrationCodec = kv.JSONCodec[registrationRecord]{Kind: "registration", Version: 1, MaxSize: MaxRegistrationSize}
)

func toPetRecord(p *domain.Pet) petRecord {
	return petRecord{
		ID:             p.ID,
		Name:           p.Name,
		Breed:          p.Breed,
		Color:          p.Color,
		PhotoReference: p.PhotoReference,
		Owner:          p.Owner,
		IsLost:         p.IsLost,
		LostLocation:   p.LostLocation,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func (r petRecord) toDomain(key uint64) (*domain.Pet, error) {
	if r.ID != key {
		return nil, fmt.Errorf("%w: pet stored under %d carries id %d", kv.ErrCorruptRecord, key, r.ID)
	}
	pet := &domain.Pet{
		ID:             r.ID,
		Name:           r.Name,
		Breed:          r.Breed,
		Color:          r.Color,
		PhotoReference: r.PhotoReference,
		Owner:          r.Owner,
		IsLost:         r.IsLost,
		LostLocation:   r.LostLocation,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if err := pet.CheckInvariants(); err != nil {
		return nil, fmt.Errorf("%w: pet %d: %w", kv.ErrCorruptRecord, key, err)
	}
	return pet, nil
}

func toFoundReportRecord(r *domain.FoundReport) foundReportRecord {
	return foundReportRecord{
		PetID:         r.PetID,
		FinderName:    r.FinderName,
		FoundLocation: r.FoundLocation,
		CreatedAt:     r.CreatedAt,
	}
}

func (r foundReportRecord) toDomain(key uint64) (*domain.FoundReport, error) {
	if r.PetID != key {
		return nil, fmt.Errorf("%w: found report stored under %d carries pet id %d", kv.ErrCorruptRecord, key, r.PetID)
	}
	return &domain.FoundReport{
		PetID:         r.PetID,
		FinderName:    r.FinderName,
		FoundLocation: r.FoundLocation,
		CreatedAt:     r.CreatedAt,
	}, nil
}

// registrationKey derives the storage key and the full digest of a token.
func registrationKey(token string) (uint64, string) {
	sum := sha256.Sum256([]byte(token))
	return binary.BigEndian.Uint64(sum[:8]) & kv.MaxKey, hex.EncodeToString(sum[:])
}
