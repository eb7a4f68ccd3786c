package projects

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryProjectRepo struct {
	projects   map[int64]*Project
	timesheets map[int64][]Timesheet
	nextID     int64
	nextTSID   int64
}

func newMemoryProjectRepo() *memoryProjectRepo {
	return &memoryProjectRepo{
		projects:   make(map[int64]*Project),
		timesheets: make(map[int64][]Timesheet),
	}
}

func (r *memoryProjectRepo) Create(ctx context.Context, p Project) (*Project, error) {
	r.nextID++
	p.ID = r.nextID
	r.projects[p.ID] = &p
	copied := p
	return &copied, nil
}

func (r *memoryProjectRepo) Get(ctx context.Context, id int64) (*Project, error) {
	p, ok := r.projects[id]
	if !ok || p.IsDeleted {
		return nil, shared.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *memoryProjectRepo) List(ctx context.Context, branchIDs []int64, page shared.PageRequest) ([]Project, int, error) {
	var out []Project
	for _, p := range r.projects {
		if !p.IsDeleted {
			out = append(out, *p)
		}
	}
	return out, len(out), nil
}

func (r *memoryProjectRepo) Update(ctx context.Context, p Project) error {
	if _, ok := r.projects[p.ID]; !ok {
		return shared.ErrNotFound
	}
	r.projects[p.ID] = &p
	return nil
}

func (r *memoryProjectRepo) SoftDelete(ctx context.Context, id, deletedBy int64) error {
	p, ok := r.projects[id]
	if !ok || p.IsDeleted {
		return shared.ErrNotFound
	}
	p.IsDeleted = true
	return nil
}

func (r *memoryProjectRepo) AddTimesheet(ctx context.Context, t Timesheet) (*Timesheet, error) {
	r.nextTSID++
	t.ID = r.nextTSID
	r.timesheets[t.ProjectID] = append(r.timesheets[t.ProjectID], t)
	copied := t
	return &copied, nil
}

func (r *memoryProjectRepo) ListTimesheets(ctx context.Context, projectID int64, page shared.PageRequest) ([]Timesheet, int, error) {
	entries := r.timesheets[projectID]
	return entries, len(entries), nil
}

type customerTable map[int64]int64

func (t customerTable) Exists(ctx context.Context, branchID, id int64) (bool, error) {
	owner, ok := t[id]
	return ok && owner == branchID, nil
}

func newProjectFixture() (*Service, *memoryProjectRepo) {
	repo := newMemoryProjectRepo()
	return NewService(repo, customerTable{10: 1}), repo
}

func TestCreateDefaultsToActive(t *testing.T) {
	svc, _ := newProjectFixture()

	p, err := svc.Create(context.Background(), Project{BranchID: 1, Name: "Rollout"})
	require.NoError(t, err)
	require.Equal(t, StatusActive, p.Status)
}

func TestCreateValidatesStatusAndCustomer(t *testing.T) {
	svc, _ := newProjectFixture()

	_, err := svc.Create(context.Background(), Project{BranchID: 1, Name: "X", Status: "ARCHIVED"})
	require.ErrorIs(t, err, shared.ErrValidation)

	foreign := int64(99)
	_, err = svc.Create(context.Background(), Project{BranchID: 1, Name: "X", CustomerID: &foreign})
	require.ErrorIs(t, err, shared.ErrValidation)

	known := int64(10)
	p, err := svc.Create(context.Background(), Project{BranchID: 1, Name: "X", CustomerID: &known})
	require.NoError(t, err)
	require.Equal(t, known, *p.CustomerID)
}

func TestUpdatePreservesBranch(t *testing.T) {
	svc, repo := newProjectFixture()

	p, err := svc.Create(context.Background(), Project{BranchID: 1, Name: "Rollout"})
	require.NoError(t, err)

	err = svc.Update(context.Background(), Project{ID: p.ID, BranchID: 99, Name: "Rollout v2", Status: StatusOnHold})
	require.NoError(t, err)
	require.Equal(t, int64(1), repo.projects[p.ID].BranchID)
	require.Equal(t, StatusOnHold, repo.projects[p.ID].Status)
}

func TestLogTime(t *testing.T) {
	svc, _ := newProjectFixture()

	p, err := svc.Create(context.Background(), Project{BranchID: 1, Name: "Rollout"})
	require.NoError(t, err)

	entry, err := svc.LogTime(context.Background(), Timesheet{ProjectID: p.ID, UserID: 2, Hours: 7.5, Note: " standup "})
	require.NoError(t, err)
	require.Equal(t, "standup", entry.Note)
	require.False(t, entry.WorkDate.IsZero())

	_, err = svc.LogTime(context.Background(), Timesheet{ProjectID: p.ID, UserID: 2, Hours: 0})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.LogTime(context.Background(), Timesheet{ProjectID: p.ID, UserID: 2, Hours: 25})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.LogTime(context.Background(), Timesheet{ProjectID: 999, UserID: 2, Hours: 1})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestTimesheetsRequireProject(t *testing.T) {
	svc, _ := newProjectFixture()

	_, _, err := svc.Timesheets(context.Background(), 42, shared.PageRequest{Page: 1, Limit: 10})
	require.ErrorIs(t, err, shared.ErrNotFound)
}
