package screening

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Assessment{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestSubmit_StoresAssessment(t *testing.T) {
	svc := NewService(NewRepo(openTestDB(t)))

	responses := []int{1, 1, 1, 1, 1, 1, 1, 1, 0}
	a, res, err := svc.Submit(context.Background(), 1, PHQ9, responses)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if a.ID == 0 {
		t.Fatalf("expected assessment id to be set")
	}
	if a.TotalScore != 8 || a.RiskLevel != RiskMild || a.IsHighRisk || a.IsCrisis {
		t.Fatalf("unexpected stored assessment: %+v", a)
	}
	if res.RiskLevel != a.RiskLevel {
		t.Fatalf("result and record disagree: %q vs %q", res.RiskLevel, a.RiskLevel)
	}

	// stored responses round-trip intact
	latest, err := svc.Latest(context.Background(), 1, PHQ9)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if !reflect.DeepEqual(latest.Responses, responses) {
		t.Fatalf("responses round-trip mismatch: %v vs %v", latest.Responses, responses)
	}
}

func TestSubmit_InvalidNotStored(t *testing.T) {
	svc := NewService(NewRepo(openTestDB(t)))

	_, _, err := svc.Submit(context.Background(), 1, PHQ9, []int{1, 2})
	if !errors.Is(err, ErrInvalidResponses) {
		t.Fatalf("expected ErrInvalidResponses, got %v", err)
	}

	hist, err := svc.History(context.Background(), 1, PHQ9, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 0 {
		t.Fatalf("invalid submission must not be stored, found %d records", len(hist))
	}
}

func TestHistory_NewestFirstPerInstrument(t *testing.T) {
	svc := NewService(NewRepo(openTestDB(t)))
	ctx := context.Background()

	if _, _, err := svc.Submit(ctx, 2, PHQ9, []int{0, 0, 0, 0, 0, 0, 0, 0, 0}); err != nil {
		t.Fatalf("submit 1: %v", err)
	}
	if _, _, err := svc.Submit(ctx, 2, GAD7, []int{3, 3, 3, 3, 3, 3, 3}); err != nil {
		t.Fatalf("submit 2: %v", err)
	}
	if _, _, err := svc.Submit(ctx, 2, PHQ9, []int{2, 2, 2, 2, 2, 2, 2, 2, 0}); err != nil {
		t.Fatalf("submit 3: %v", err)
	}

	hist, err := svc.History(ctx, 2, PHQ9, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("expected 2 PHQ-9 records, got %d", len(hist))
	}
	if hist[0].TotalScore != 16 || hist[1].TotalScore != 0 {
		t.Fatalf("expected newest first: %+v", hist)
	}

	// no instrument filter returns everything
	all, err := svc.History(ctx, 2, "", 10)
	if err != nil {
		t.Fatalf("history all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}

	// other users see nothing
	other, err := svc.History(ctx, 3, PHQ9, 10)
	if err != nil {
		t.Fatalf("history other: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected no records for other user, got %d", len(other))
	}
}
