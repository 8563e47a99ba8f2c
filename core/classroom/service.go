package classroom

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/checkin/core"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("classroom")
)

type (
	Repository interface {
		// CreateClassroom inserts the classroom unless one with the same ID exists.
		CreateClassroom(ctx context.Context, c Classroom) error
		GetClassroom(ctx context.Context, id string) (Classroom, error)
		QueryClassrooms(ctx context.Context) ([]Classroom, error)
		DeleteClassroom(ctx context.Context, id string) error
		SetCheckinOpen(ctx context.Context, id string, open bool) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Add registers a classroom. Adding an existing ID is a no-op.
func (svc *Service) Add(ctx context.Context, nc NewClassroom) (Classroom, error) {
	c := Classroom{ID: nc.ID, Rows: nc.Rows, Columns: nc.Columns}
	if err := svc.repo.CreateClassroom(ctx, c); err != nil {
		return Classroom{}, errors.Wrap(err, "creating classroom")
	}
	return svc.repo.GetClassroom(ctx, c.ID)
}

func (svc *Service) Get(ctx context.Context, id string) (Classroom, error) {
	return svc.repo.GetClassroom(ctx, core.CleanString(id))
}

func (svc *Service) List(ctx context.Context) ([]Classroom, error) {
	return svc.repo.QueryClassrooms(ctx)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteClassroom(ctx, core.CleanString(id))
}

// OpenGate starts accepting seat scans for the classroom.
func (svc *Service) OpenGate(ctx context.Context, id string) error {
	return svc.repo.SetCheckinOpen(ctx, id, true)
}

// CloseGate stops accepting seat scans for the classroom.
func (svc *Service) CloseGate(ctx context.Context, id string) error {
	return svc.repo.SetCheckinOpen(ctx, id, false)
}

func (svc *Service) IsOpen(ctx context.Context, id string) (bool, error) {
	c, err := svc.repo.GetClassroom(ctx, id)
	if err != nil {
		return false, err
	}
	return c.CheckinOpen, nil
}
