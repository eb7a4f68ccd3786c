package numbering

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memorySettingsRepo struct {
	settings map[string]*Setting
	nextID   int64
}

func newMemorySettingsRepo() *memorySettingsRepo {
	return &memorySettingsRepo{settings: make(map[string]*Setting)}
}

func settingKey(branchID int64, kind DocKind) string {
	return string(kind) + "/" + zeroPad(branchID, 6)
}

func (r *memorySettingsRepo) Get(ctx context.Context, branchID int64, kind DocKind) (*Setting, error) {
	s, ok := r.settings[settingKey(branchID, kind)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *memorySettingsRepo) Upsert(ctx context.Context, setting Setting) (*Setting, error) {
	key := settingKey(setting.BranchID, setting.DocKind)
	if existing, ok := r.settings[key]; ok {
		setting.ID = existing.ID
	} else {
		r.nextID++
		setting.ID = r.nextID
	}
	setting.UpdatedAt = time.Now()
	r.settings[key] = &setting
	copied := setting
	return &copied, nil
}

func (r *memorySettingsRepo) ListByBranch(ctx context.Context, branchID int64) ([]Setting, error) {
	var out []Setting
	for _, s := range r.settings {
		if s.BranchID == branchID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *memorySettingsRepo) ClaimNext(ctx context.Context, branchID int64, kind DocKind) (*Claim, error) {
	s, ok := r.settings[settingKey(branchID, kind)]
	if !ok || s.Mode != ModeAuto {
		return nil, shared.ErrNotFound
	}
	claim := &Claim{Prefix: s.Prefix, Sequence: s.NextNumber, Raw: s.NextNumberRaw}
	s.NextNumber++
	s.NextNumberRaw = zeroPad(s.NextNumber, len(s.NextNumberRaw))
	return claim, nil
}

func autoSetting(branchID int64, kind DocKind, prefix string, next int64, width int) Setting {
	return Setting{
		BranchID:      branchID,
		DocKind:       kind,
		Prefix:        prefix,
		NextNumber:    next,
		NextNumberRaw: zeroPad(next, width),
		Mode:          ModeAuto,
	}
}

func newTestService(repo Repository) *Service {
	svc := NewService(repo)
	svc.sleep = func(time.Duration) {}
	return svc
}

func TestAllocateSequentialWithPadding(t *testing.T) {
	repo := newMemorySettingsRepo()
	_, err := repo.Upsert(context.Background(), autoSetting(1, KindInvoice, "INV-", 1, 4))
	require.NoError(t, err)

	svc := newTestService(repo)

	first, err := svc.Allocate(context.Background(), 1, KindInvoice, "", nil)
	require.NoError(t, err)
	require.Equal(t, "INV-0001", first)

	second, err := svc.Allocate(context.Background(), 1, KindInvoice, "", nil)
	require.NoError(t, err)
	require.Equal(t, "INV-0002", second)
}

func TestAllocatePaddingWidthNeverShrinks(t *testing.T) {
	repo := newMemorySettingsRepo()
	_, err := repo.Upsert(context.Background(), autoSetting(1, KindQuote, "Q", 9999, 4))
	require.NoError(t, err)

	svc := newTestService(repo)

	n, err := svc.Allocate(context.Background(), 1, KindQuote, "", nil)
	require.NoError(t, err)
	require.Equal(t, "Q9999", n)

	// The counter rolled past the original width; the issued value keeps
	// its natural length and the stored raw grows with it.
	n, err = svc.Allocate(context.Background(), 1, KindQuote, "", nil)
	require.NoError(t, err)
	require.Equal(t, "Q10000", n)

	setting, err := repo.Get(context.Background(), 1, KindQuote)
	require.NoError(t, err)
	require.Equal(t, "10001", setting.NextNumberRaw)
}

func TestAllocateBranchesCountIndependently(t *testing.T) {
	repo := newMemorySettingsRepo()
	_, err := repo.Upsert(context.Background(), autoSetting(1, KindInvoice, "INV-", 1, 4))
	require.NoError(t, err)
	_, err = repo.Upsert(context.Background(), autoSetting(2, KindInvoice, "INV-", 1, 4))
	require.NoError(t, err)

	svc := newTestService(repo)

	a, err := svc.Allocate(context.Background(), 1, KindInvoice, "", nil)
	require.NoError(t, err)
	b, err := svc.Allocate(context.Background(), 2, KindInvoice, "", nil)
	require.NoError(t, err)
	require.Equal(t, "INV-0001", a)
	require.Equal(t, "INV-0001", b)
}

func TestAllocateManualFallbackWithoutSetting(t *testing.T) {
	svc := newTestService(newMemorySettingsRepo())

	_, err := svc.Allocate(context.Background(), 1, KindBill, "", nil)
	require.ErrorIs(t, err, shared.ErrValidation)

	n, err := svc.Allocate(context.Background(), 1, KindBill, "BILL-77", nil)
	require.NoError(t, err)
	require.Equal(t, "BILL-77", n)
}

func TestAllocateManualModeChecksUniqueness(t *testing.T) {
	repo := newMemorySettingsRepo()
	_, err := repo.Upsert(context.Background(), Setting{BranchID: 1, DocKind: KindExpense, Mode: ModeManual})
	require.NoError(t, err)

	svc := newTestService(repo)

	exists := func(ctx context.Context, branchID int64, number string) (bool, error) {
		return number == "EXP-1", nil
	}

	_, err = svc.Allocate(context.Background(), 1, KindExpense, "EXP-1", exists)
	require.ErrorIs(t, err, shared.ErrDuplicate)

	n, err := svc.Allocate(context.Background(), 1, KindExpense, "EXP-2", exists)
	require.NoError(t, err)
	require.Equal(t, "EXP-2", n)
}

func TestAllocateRequiredDemandsSetting(t *testing.T) {
	svc := newTestService(newMemorySettingsRepo())

	_, err := svc.AllocateRequired(context.Background(), 1, KindInvoice, "", nil)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestAllocateWithRetrySkipsTakenNumbers(t *testing.T) {
	repo := newMemorySettingsRepo()
	_, err := repo.Upsert(context.Background(), autoSetting(1, KindPayment, "PAY-", 1, 4))
	require.NoError(t, err)

	svc := newTestService(repo)

	taken := map[string]bool{"PAY-0001": true, "PAY-0002": true}
	exists := func(ctx context.Context, branchID int64, number string) (bool, error) {
		return taken[number], nil
	}

	n, err := svc.AllocateWithRetry(context.Background(), 1, KindPayment, "", exists)
	require.NoError(t, err)
	require.Equal(t, "PAY-0003", n)
}

func TestAllocateWithRetryGivesUpOnManualCollision(t *testing.T) {
	repo := newMemorySettingsRepo()
	_, err := repo.Upsert(context.Background(), Setting{BranchID: 1, DocKind: KindPayment, Mode: ModeManual})
	require.NoError(t, err)

	svc := newTestService(repo)

	calls := 0
	exists := func(ctx context.Context, branchID int64, number string) (bool, error) {
		calls++
		return true, nil
	}

	_, err = svc.AllocateWithRetry(context.Background(), 1, KindPayment, "PAY-X", exists)
	require.ErrorIs(t, err, shared.ErrDuplicate)
	require.Equal(t, 1, calls)
}

func TestSaveSettingValidation(t *testing.T) {
	repo := newMemorySettingsRepo()
	svc := newTestService(repo)

	_, err := svc.SaveSetting(context.Background(), Setting{DocKind: KindInvoice, Mode: ModeAuto})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.SaveSetting(context.Background(), Setting{BranchID: 1, DocKind: KindInvoice, Mode: "WEEKLY"})
	require.ErrorIs(t, err, shared.ErrValidation)

	saved, err := svc.SaveSetting(context.Background(), Setting{BranchID: 1, DocKind: KindInvoice, Mode: ModeAuto, Prefix: "INV-"})
	require.NoError(t, err)
	require.Equal(t, int64(1), saved.NextNumber)
	require.Equal(t, "0001", saved.NextNumberRaw)
}

func TestSaveSettingKeepsRequestedWidth(t *testing.T) {
	svc := newTestService(newMemorySettingsRepo())

	saved, err := svc.SaveSetting(context.Background(), Setting{
		BranchID:      1,
		DocKind:       KindInvoice,
		Mode:          ModeAuto,
		NextNumber:    25,
		NextNumberRaw: "000025",
	})
	require.NoError(t, err)
	require.Equal(t, "000025", saved.NextNumberRaw)
}
