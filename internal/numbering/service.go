package numbering

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// ExistsFunc checks whether a candidate number is already taken in the owning
// collection, scoped to non-deleted rows of the branch.
type ExistsFunc func(ctx context.Context, branchID int64, number string) (bool, error)

const allocateAttempts = 3

// Service allocates branch-scoped sequential document numbers.
type Service struct {
	repo  Repository
	sleep func(time.Duration)
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, sleep: time.Sleep}
}

// Allocate produces the next document number for the (branch, kind) pair.
//
// When an AUTO setting exists the counter is bumped atomically and the issued
// value is rendered with the padding width fixed by the setting's raw string.
// Without a setting, or under MANUAL mode, manualID is validated for presence
// and uniqueness and no counter is touched.
func (s *Service) Allocate(ctx context.Context, branchID int64, kind DocKind, manualID string, exists ExistsFunc) (string, error) {
	if branchID == 0 {
		return "", fmt.Errorf("%w: branch id is required", shared.ErrValidation)
	}
	if kind == "" {
		return "", fmt.Errorf("%w: document kind is required", shared.ErrValidation)
	}

	setting, err := s.repo.Get(ctx, branchID, kind)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return "", err
	}
	if setting == nil || setting.Mode != ModeAuto {
		return s.allocateManual(ctx, branchID, manualID, exists)
	}

	claim, err := s.repo.ClaimNext(ctx, branchID, kind)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			// Setting flipped to MANUAL between the read and the claim.
			return s.allocateManual(ctx, branchID, manualID, exists)
		}
		return "", err
	}

	candidate := claim.Prefix + zeroPad(claim.Sequence, len(claim.Raw))
	if exists != nil {
		taken, err := exists(ctx, branchID, candidate)
		if err != nil {
			return "", err
		}
		if taken {
			return "", fmt.Errorf("%w: document number %s already exists", shared.ErrDuplicate, candidate)
		}
	}
	return candidate, nil
}

// AllocateRequired behaves like Allocate but demands a configured AUTO
// setting. Invoice and credit-note creation use it; a missing setting is a
// client error rather than a silent manual fallback.
func (s *Service) AllocateRequired(ctx context.Context, branchID int64, kind DocKind, manualID string, exists ExistsFunc) (string, error) {
	setting, err := s.repo.Get(ctx, branchID, kind)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", fmt.Errorf("%w: no number setting configured for %s", shared.ErrValidation, kind)
		}
		return "", err
	}
	if setting.Mode == ModeManual {
		return s.allocateManual(ctx, branchID, manualID, exists)
	}
	return s.Allocate(ctx, branchID, kind, manualID, exists)
}

// AllocateWithRetry retries the whole allocation a bounded number of times
// when the candidate collides, backing off briefly between attempts. Duplicate
// after the final attempt surfaces to the caller.
func (s *Service) AllocateWithRetry(ctx context.Context, branchID int64, kind DocKind, manualID string, exists ExistsFunc) (string, error) {
	var lastErr error
	for attempt := 0; attempt < allocateAttempts; attempt++ {
		number, err := s.Allocate(ctx, branchID, kind, manualID, exists)
		if err == nil {
			return number, nil
		}
		lastErr = err
		// Manual collisions never resolve on retry.
		if !errors.Is(err, shared.ErrDuplicate) || manualID != "" {
			return "", err
		}
		s.sleep(time.Duration(attempt+1) * 10 * time.Millisecond)
	}
	return "", lastErr
}

func (s *Service) allocateManual(ctx context.Context, branchID int64, manualID string, exists ExistsFunc) (string, error) {
	manualID = strings.TrimSpace(manualID)
	if manualID == "" {
		return "", fmt.Errorf("%w: document id is required in manual mode", shared.ErrValidation)
	}
	if exists != nil {
		taken, err := exists(ctx, branchID, manualID)
		if err != nil {
			return "", err
		}
		if taken {
			return "", fmt.Errorf("%w: document number %s already exists", shared.ErrDuplicate, manualID)
		}
	}
	return manualID, nil
}

// GetSetting returns the configured setting for a pair.
func (s *Service) GetSetting(ctx context.Context, branchID int64, kind DocKind) (*Setting, error) {
	return s.repo.Get(ctx, branchID, kind)
}

// ListSettings returns every setting for the branch.
func (s *Service) ListSettings(ctx context.Context, branchID int64) ([]Setting, error) {
	return s.repo.ListByBranch(ctx, branchID)
}

// SaveSetting validates and upserts a setting.
func (s *Service) SaveSetting(ctx context.Context, setting Setting) (*Setting, error) {
	if setting.BranchID == 0 {
		return nil, fmt.Errorf("%w: branch id is required", shared.ErrValidation)
	}
	if setting.DocKind == "" {
		return nil, fmt.Errorf("%w: document kind is required", shared.ErrValidation)
	}
	switch setting.Mode {
	case ModeAuto, ModeManual:
	default:
		return nil, fmt.Errorf("%w: mode must be AUTO or MANUAL", shared.ErrValidation)
	}
	if setting.Mode == ModeAuto {
		if setting.NextNumber <= 0 {
			setting.NextNumber = 1
		}
		if strings.TrimSpace(setting.NextNumberRaw) == "" {
			setting.NextNumberRaw = zeroPad(setting.NextNumber, 4)
		}
		// The raw string must render the counter; only the width is
		// caller-controlled.
		width := len(setting.NextNumberRaw)
		setting.NextNumberRaw = zeroPad(setting.NextNumber, width)
	}
	return s.repo.Upsert(ctx, setting)
}

func zeroPad(n int64, width int) string {
	return fmt.Sprintf("%0*d", width, n)
}
