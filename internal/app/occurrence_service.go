package app

import (
	"context"
	"time"

	"github.com/Erich2020/challenge-server/internal/clock"
	"github.com/Erich2020/challenge-server/internal/domain"
	"github.com/google/uuid"
)

type OccurrenceRepository interface {
	CreateOccurrence(ctx context.Context, occ domain.Occurrence) error
	GetOccurrence(ctx context.Context, id string) (domain.Occurrence, error)
	ListOccurrences(ctx context.Context) ([]domain.Occurrence, error)
	UpdateOccurrence(ctx context.Context, occ domain.Occurrence) error
	DeleteOccurrence(ctx context.Context, id string) error
}

type OccurrenceService struct {
	repo  OccurrenceRepository
	clock clock.Clock
}

func NewOccurrenceService(repo OccurrenceRepository, clk clock.Clock) *OccurrenceService {
	return &OccurrenceService{
		repo:  repo,
		clock: clk,
	}
}

type CreateOccurrenceInput struct {
	Name     string
	Date     time.Time
	Location string
	Capacity int
}

func (s *OccurrenceService) CreateOccurrence(ctx context.Context, in CreateOccurrenceInput, creatorID string) (domain.Occurrence, error) {
	if creatorID == "" {
		return domain.Occurrence{}, domain.ErrInvalidID
	}
	if in.Name == "" {
		return domain.Occurrence{}, domain.ErrOccurrenceNameRequired
	}
	if in.Capacity < 0 {
		return domain.Occurrence{}, domain.ErrInvalidCapacity
	}

	now := s.clock.Now()
	occ := domain.Occurrence{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Date:      in.Date,
		Location:  in.Location,
		Capacity:  in.Capacity,
		CreatedBy: creatorID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateOccurrence(ctx, occ); err != nil {
		return domain.Occurrence{}, err
	}
	return occ, nil
}

func (s *OccurrenceService) GetOccurrence(ctx context.Context, id string) (domain.Occurrence, error) {
	if id == "" {
		return domain.Occurrence{}, domain.ErrInvalidID
	}
	return s.repo.GetOccurrence(ctx, id)
}

func (s *OccurrenceService) ListOccurrences(ctx context.Context) ([]domain.Occurrence, error) {
	return s.repo.ListOccurrences(ctx)
}

type UpdateOccurrenceInput struct {
	Name     *string
	Date     *time.Time
	Location *string
	Capacity *int
}

// UpdateOccurrence applies the provided fields. Only the occurrence's owner
// may update it.
func (s *OccurrenceService) UpdateOccurrence(ctx context.Context, id string, in UpdateOccurrenceInput, requesterID string) (domain.Occurrence, error) {
	if id == "" {
		return domain.Occurrence{}, domain.ErrInvalidID
	}

	occ, err := s.repo.GetOccurrence(ctx, id)
	if err != nil {
		return domain.Occurrence{}, err
	}
	if occ.CreatedBy != requesterID {
		return domain.Occurrence{}, domain.ErrUnauthorized
	}

	if in.Name != nil {
		if *in.Name == "" {
			return domain.Occurrence{}, domain.ErrOccurrenceNameRequired
		}
		occ.Name = *in.Name
	}
	if in.Date != nil {
		occ.Date = *in.Date
	}
	if in.Location != nil {
		occ.Location = *in.Location
	}
	if in.Capacity != nil {
		if *in.Capacity < 0 {
			return domain.Occurrence{}, domain.ErrInvalidCapacity
		}
		occ.Capacity = *in.Capacity
	}
	occ.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdateOccurrence(ctx, occ); err != nil {
		return domain.Occurrence{}, err
	}
	return occ, nil
}

// DeleteOccurrence removes an occurrence. Only the owner may delete it.
func (s *OccurrenceService) DeleteOccurrence(ctx context.Context, id, requesterID string) error {
	if id == "" {
		return domain.ErrInvalidID
	}

	occ, err := s.repo.GetOccurrence(ctx, id)
	if err != nil {
		return err
	}
	if occ.CreatedBy != requesterID {
		return domain.ErrUnauthorized
	}
	return s.repo.DeleteOccurrence(ctx, id)
}
