package projects

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Directory answers whether a customer exists within a branch.
type Directory interface {
	Exists(ctx context.Context, branchID, id int64) (bool, error)
}

// Service handles project and timesheet logic.
type Service struct {
	repo      Repository
	customers Directory
}

// NewService builds a Service instance.
func NewService(repo Repository, customers Directory) *Service {
	return &Service{repo: repo, customers: customers}
}

func (s *Service) validate(ctx context.Context, p Project) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: project name is required", shared.ErrValidation)
	}
	switch p.Status {
	case StatusActive, StatusOnHold, StatusCompleted:
	default:
		return fmt.Errorf("%w: invalid project status %q", shared.ErrValidation, p.Status)
	}
	if p.CustomerID != nil {
		ok, err := s.customers.Exists(ctx, p.BranchID, *p.CustomerID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: customer %d not found in branch", shared.ErrValidation, *p.CustomerID)
		}
	}
	return nil
}

func (s *Service) Create(ctx context.Context, p Project) (*Project, error) {
	if p.Status == "" {
		p.Status = StatusActive
	}
	if err := s.validate(ctx, p); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id int64) (*Project, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid project id", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, branchIDs []int64, page shared.PageRequest) ([]Project, int, error) {
	return s.repo.List(ctx, branchIDs, page)
}

func (s *Service) Update(ctx context.Context, p Project) error {
	if p.ID <= 0 {
		return fmt.Errorf("%w: invalid project id", shared.ErrValidation)
	}
	current, err := s.repo.Get(ctx, p.ID)
	if err != nil {
		return err
	}
	p.BranchID = current.BranchID
	if err := s.validate(ctx, p); err != nil {
		return err
	}
	return s.repo.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id, deletedBy int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid project id", shared.ErrValidation)
	}
	return s.repo.SoftDelete(ctx, id, deletedBy)
}

// LogTime records a timesheet entry on an existing project.
func (s *Service) LogTime(ctx context.Context, t Timesheet) (*Timesheet, error) {
	if _, err := s.repo.Get(ctx, t.ProjectID); err != nil {
		return nil, err
	}
	if t.Hours <= 0 || t.Hours > 24 {
		return nil, fmt.Errorf("%w: hours must be between 0 and 24", shared.ErrValidation)
	}
	if t.WorkDate.IsZero() {
		t.WorkDate = time.Now().UTC().Truncate(24 * time.Hour)
	}
	t.Note = strings.TrimSpace(t.Note)
	return s.repo.AddTimesheet(ctx, t)
}

func (s *Service) Timesheets(ctx context.Context, projectID int64, page shared.PageRequest) ([]Timesheet, int, error) {
	if _, err := s.repo.Get(ctx, projectID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListTimesheets(ctx, projectID, page)
}
