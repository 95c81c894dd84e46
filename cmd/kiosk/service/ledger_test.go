package service

import (
	"context"
	"testing"

	"github.com/forusastrid/info-booth-2025/cmd/kiosk/models"
	"github.com/forusastrid/info-booth-2025/cmd/kiosk/storage"
	"github.com/forusastrid/info-booth-2025/cmd/kiosk/storage/memory"
	"github.com/forusastrid/info-booth-2025/common/events"
	"github.com/forusastrid/info-booth-2025/common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*LedgerService, *memory.Store) {
	t.Helper()
	store := memory.New()
	svc := NewLedgerService(store, nil, events.NewNoopPublisher(), nil, logger.New("error", "json"))
	return svc, store
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func purchase(student string, booths ...BoothPurchase) PurchaseInput {
	return PurchaseInput{
		StudentNumber: student,
		Phone:         "010-0000-0000",
		Name:          "Kim",
		Booths:        booths,
	}
}

func TestRecordPurchaseCreatesRecord(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	result, err := svc.RecordPurchase(ctx, purchase("10203",
		BoothPurchase{Number: 1, Name: "3회 체험", Price: 3000},
	))
	require.NoError(t, err)
	assert.False(t, result.Merged)

	rec, err := store.FindByID(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, "10203", rec.StudentNumber)
	assert.Equal(t, "010-0000-0000", rec.Phone)
	assert.Equal(t, "Kim", rec.Name)
	assert.Equal(t, 3000, rec.TotalPrice)
	require.Len(t, rec.Entitlements, 1)
	assert.Equal(t, 1, rec.Entitlements[0].Number)
	assert.Equal(t, 3, rec.Entitlements[0].Remaining)
	assert.Equal(t, 3000, rec.Entitlements[0].Price)
}

func TestRecordPurchaseMergesSameBooth(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	first, err := svc.RecordPurchase(ctx, purchase("10203",
		BoothPurchase{Number: 1, Name: "3회 체험", Price: 3000},
	))
	require.NoError(t, err)

	second, err := svc.RecordPurchase(ctx, purchase("10203",
		BoothPurchase{Number: 1, Name: "2회", Price: 2000},
	))
	require.NoError(t, err)

	assert.True(t, second.Merged)
	assert.Equal(t, first.ID, second.ID, "merge must reuse the existing record")
	assert.Equal(t, 1, store.Count(), "merge must not create a second row")

	rec, err := store.FindByID(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, rec.Entitlements, 1)
	assert.Equal(t, 5, rec.Entitlements[0].Remaining, "remaining counts accumulate")
	assert.Equal(t, 3000, rec.Entitlements[0].Price, "per-line price stays at the first purchase")
	assert.Equal(t, 5000, rec.TotalPrice, "totals are summed")
}

func TestRecordPurchaseRemainingAccumulates(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	var id int64
	for i := 0; i < 2; i++ {
		result, err := svc.RecordPurchase(ctx, purchase("55555",
			BoothPurchase{Number: 7, Name: "3회", Price: 1000},
		))
		require.NoError(t, err)
		id = result.ID
	}

	rec, err := store.FindByID(ctx, id)
	require.NoError(t, err)
	require.Len(t, rec.Entitlements, 1)
	assert.Equal(t, 7, rec.Entitlements[0].Number)
	assert.Equal(t, 6, rec.Entitlements[0].Remaining)
}

func TestRecordPurchaseAppendsNewBooths(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.RecordPurchase(ctx, purchase("10203",
		BoothPurchase{Number: 1, Name: "[1회]", Price: 1000},
		BoothPurchase{Number: 2, Name: "[2회]", Price: 1000},
	))
	require.NoError(t, err)

	result, err := svc.RecordPurchase(ctx, purchase("10203",
		BoothPurchase{Number: 2, Name: "[2회]", Price: 1000},
		BoothPurchase{Number: 3, Name: "[3회]", Price: 2000},
	))
	require.NoError(t, err)
	require.True(t, result.Merged)

	rec, err := store.FindByID(ctx, result.ID)
	require.NoError(t, err)
	require.Len(t, rec.Entitlements, 3)

	seen := make(map[int]int)
	for _, e := range rec.Entitlements {
		seen[e.Number]++
	}
	for number, count := range seen {
		assert.Equal(t, 1, count, "booth %d duplicated", number)
	}
	assert.Equal(t, 4, rec.FindEntitlement(2).Remaining)
	assert.Equal(t, 3, rec.FindEntitlement(3).Remaining)
}

func TestRecordPurchaseDerivesTotal(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	result, err := svc.RecordPurchase(ctx, purchase("10203",
		BoothPurchase{Number: 1, Name: "[1회]", Price: 1000},
		BoothPurchase{Number: 2, Name: "[2회]", Price: 2500},
	))
	require.NoError(t, err)

	rec, err := store.FindByID(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, 3500, rec.TotalPrice)
}

func TestRecordPurchaseUsesGivenTotal(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	in := purchase("10203", BoothPurchase{Number: 1, Name: "[1회]", Price: 1000})
	in.TotalPrice = intPtr(999)

	result, err := svc.RecordPurchase(ctx, in)
	require.NoError(t, err)

	rec, err := store.FindByID(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, 999, rec.TotalPrice)
}

func TestRecordPurchaseOverwritesFlagsOnMerge(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	first := purchase("10203", BoothPurchase{Number: 6, Name: "INFOPASS [1인]", Price: 6000})
	first.Booths[0].Derived = boolPtr(true)
	first.Booths[0].DerivedFrom = intPtr(6)
	_, err := svc.RecordPurchase(ctx, first)
	require.NoError(t, err)

	second := purchase("10203", BoothPurchase{Number: 6, Name: "INFOPASS [1인]", Price: 0})
	second.Booths[0].IsGolden = boolPtr(true)
	second.Booths[0].GoldenFrom = intPtr(7)
	result, err := svc.RecordPurchase(ctx, second)
	require.NoError(t, err)

	rec, err := store.FindByID(ctx, result.ID)
	require.NoError(t, err)
	ent := rec.FindEntitlement(6)
	require.NotNil(t, ent)

	// Incoming flags are applied, flags absent on the incoming line survive
	require.NotNil(t, ent.IsGolden)
	assert.True(t, *ent.IsGolden)
	require.NotNil(t, ent.GoldenFrom)
	assert.Equal(t, 7, *ent.GoldenFrom)
	require.NotNil(t, ent.Derived)
	assert.True(t, *ent.Derived)
	require.NotNil(t, ent.DerivedFrom)
	assert.Equal(t, 6, *ent.DerivedFrom)
}

func TestRecordPurchaseValidation(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	booths := []BoothPurchase{{Number: 1, Name: "[1회]", Price: 1000}}

	tests := []struct {
		name string
		in   PurchaseInput
	}{
		{"missing phone", PurchaseInput{StudentNumber: "10203", Name: "Kim", Booths: booths}},
		{"missing name", PurchaseInput{StudentNumber: "10203", Phone: "010", Booths: booths}},
		{"no booths", PurchaseInput{StudentNumber: "10203", Phone: "010", Name: "Kim"}},
		{"missing student number", PurchaseInput{Phone: "010", Name: "Kim", Booths: booths}},
		{"short student number", PurchaseInput{StudentNumber: "123", Phone: "010", Name: "Kim", Booths: booths}},
		{"long student number", PurchaseInput{StudentNumber: "123456", Phone: "010", Name: "Kim", Booths: booths}},
		{"non-numeric student number", PurchaseInput{StudentNumber: "12a45", Phone: "010", Name: "Kim", Booths: booths}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RecordPurchase(ctx, tt.in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	assert.Equal(t, 0, store.Count(), "validation failures must not write")
}

func TestAdjustRemainingClampsAtZero(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	result, err := svc.RecordPurchase(ctx, purchase("10203",
		BoothPurchase{Number: 1, Name: "[1회]", Price: 1000},
	))
	require.NoError(t, err)

	booths, err := svc.AdjustRemaining(ctx, result.ID, 1, -5)
	require.NoError(t, err)
	require.Len(t, booths, 1)
	assert.Equal(t, 0, booths[0].Remaining, "remaining never goes negative")

	rec, err := store.FindByID(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Entitlements[0].Remaining)
}

func TestAdjustRemainingIncrements(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.RecordPurchase(ctx, purchase("10203",
		BoothPurchase{Number: 1, Name: "[2회]", Price: 1000},
		BoothPurchase{Number: 2, Name: "[1회]", Price: 1000},
	))
	require.NoError(t, err)

	booths, err := svc.AdjustRemaining(ctx, result.ID, 1, 3)
	require.NoError(t, err)

	var adjusted, untouched *models.BoothEntitlement
	for i := range booths {
		switch booths[i].Number {
		case 1:
			adjusted = &booths[i]
		case 2:
			untouched = &booths[i]
		}
	}
	require.NotNil(t, adjusted)
	require.NotNil(t, untouched)
	assert.Equal(t, 5, adjusted.Remaining)
	assert.Equal(t, 1, untouched.Remaining, "unrelated booths stay untouched")
}

func TestAdjustRemainingBoothNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.RecordPurchase(ctx, purchase("10203",
		BoothPurchase{Number: 1, Name: "[1회]", Price: 1000},
	))
	require.NoError(t, err)

	_, err = svc.AdjustRemaining(ctx, result.ID, 99, 1)
	assert.ErrorIs(t, err, ErrBoothNotFound)
}

func TestAdjustRemainingRecordNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.AdjustRemaining(context.Background(), 12345, 1, 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAddPayment(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	result, err := svc.RecordPurchase(ctx, purchase("10203",
		BoothPurchase{Number: 1, Name: "[1회]", Price: 3000},
	))
	require.NoError(t, err)

	total, err := svc.AddPayment(ctx, result.ID, 2000)
	require.NoError(t, err)
	assert.Equal(t, 5000, total)

	// Refunds are signed and not floored
	total, err = svc.AddPayment(ctx, result.ID, -8000)
	require.NoError(t, err)
	assert.Equal(t, -3000, total)

	rec, err := store.FindByID(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, -3000, rec.TotalPrice)
}

func TestAddPaymentRecordNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.AddPayment(context.Background(), 777, 100)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteLedger(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	result, err := svc.RecordPurchase(ctx, purchase("10203",
		BoothPurchase{Number: 1, Name: "[1회]", Price: 1000},
	))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteLedger(ctx, result.ID))
	assert.Equal(t, 0, store.Count())

	err = svc.DeleteLedger(ctx, result.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListLedgers(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.RecordPurchase(ctx, PurchaseInput{
		StudentNumber: "11111", Phone: "010", Name: "Kim",
		Booths: []BoothPurchase{{Number: 1, Name: "[1회]", Price: 1000}},
	})
	require.NoError(t, err)

	_, err = svc.RecordPurchase(ctx, PurchaseInput{
		StudentNumber: "22222", Phone: "010", Name: "Lee",
		Booths: []BoothPurchase{{Number: 2, Name: "[2회]", Price: 2000}},
	})
	require.NoError(t, err)

	all, err := svc.ListLedgers(ctx, storage.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "22222", all[0].StudentNumber, "most recently touched first")

	byStudent, err := svc.ListLedgers(ctx, storage.ListFilter{StudentNumber: "11111"})
	require.NoError(t, err)
	require.Len(t, byStudent, 1)
	assert.Equal(t, "Kim", byStudent[0].Name)

	byName, err := svc.ListLedgers(ctx, storage.ListFilter{Search: "Le"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "22222", byName[0].StudentNumber)

	byNumber, err := svc.ListLedgers(ctx, storage.ListFilter{Search: "111"})
	require.NoError(t, err)
	require.Len(t, byNumber, 1)
	assert.Equal(t, "Kim", byNumber[0].Name)
}

func TestMergeRefreshesRecency(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.RecordPurchase(ctx, purchase("11111",
		BoothPurchase{Number: 1, Name: "[1회]", Price: 1000},
	))
	require.NoError(t, err)

	_, err = svc.RecordPurchase(ctx, PurchaseInput{
		StudentNumber: "22222", Phone: "010", Name: "Lee",
		Booths: []BoothPurchase{{Number: 1, Name: "[1회]", Price: 1000}},
	})
	require.NoError(t, err)

	// Touch the first student again; the merge refreshes created_at
	_, err = svc.RecordPurchase(ctx, purchase("11111",
		BoothPurchase{Number: 1, Name: "[1회]", Price: 1000},
	))
	require.NoError(t, err)

	all, err := svc.ListLedgers(ctx, storage.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID, "merged record moves to the front")
}
