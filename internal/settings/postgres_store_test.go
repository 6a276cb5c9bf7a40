package settings

import (
	"context"
	"testing"

	"github.com/Riteshgoel21/CreditDebitCardFraudDetection/internal/testutil"
)

func TestPostgresStoreSeedsDefaults(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()

	if err := store.Migrate(ctx); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.AutoDeclineThreshold != 85 || got.ModelUpdateFrequency != "daily" {
		t.Errorf("seeded settings = %+v", got)
	}
}

func TestPostgresStoreUpdate(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()

	if err := store.Migrate(ctx); err != nil {
		t.Fatal(err)
	}

	s := Defaults()
	s.NotifyOnLowRisk = true
	s.FeatureWeighting = "amount-heavy"
	if err := store.Put(ctx, s); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.NotifyOnLowRisk || got.FeatureWeighting != "amount-heavy" {
		t.Errorf("updated settings = %+v", got)
	}
}
