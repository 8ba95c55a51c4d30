package database

import (
	"context"
	"testing"

	"github.com/jimdaga/nextrend/internal/models"
)

type countingGlossary struct{ calls int }

func (g *countingGlossary) SeedGlossary(ctx context.Context) (int, error) {
	g.calls++
	if g.calls > 1 {
		return 0, nil
	}
	return 3, nil
}

func TestWithUTC(t *testing.T) {
	got, err := withUTC("postgres://u:p@localhost:5432/nextrend?sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}
	if got != "postgres://u:p@localhost:5432/nextrend?TimeZone=UTC&sslmode=disable" {
		t.Errorf("expected TimeZone=UTC appended, got %s", got)
	}

	got, _ = withUTC("postgres://localhost/nextrend?TimeZone=America%2FNew_York")
	if got != "postgres://localhost/nextrend?TimeZone=America%2FNew_York" {
		t.Errorf("expected existing zone kept, got %s", got)
	}
}

func TestInitRequiresURL(t *testing.T) {
	if _, err := Init(""); err == nil {
		t.Error("expected error for empty database URL")
	}
}

func TestInitSQLiteAndMigrate(t *testing.T) {
	db, err := Init("sqlite://:memory:")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer Close(db)

	if db.Dialector.Name() != "sqlite" {
		t.Errorf("expected sqlite dialect, got %s", db.Dialector.Name())
	}
	if err := RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	if !db.Migrator().HasTable(&models.Batch{}) {
		t.Error("expected batches table")
	}
}

func TestRunMigrationsNil(t *testing.T) {
	if err := RunMigrations(nil); err == nil {
		t.Error("expected error for nil db")
	}
}

func TestSeedDevDataIdempotent(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer Close(db)

	glossary := &countingGlossary{}
	for i := 0; i < 2; i++ {
		if err := SeedDevData(context.Background(), db, glossary); err != nil {
			t.Fatalf("SeedDevData run %d: %v", i+1, err)
		}
	}

	var users, voices, items int64
	db.Model(&models.User{}).Where("email = ?", DevUserEmail).Count(&users)
	db.Model(&models.BrandVoice{}).Count(&voices)
	db.Model(&models.SourceItem{}).Count(&items)
	if users != 1 || voices != 1 || items != 4 {
		t.Errorf("expected 1 user, 1 voice, 4 items, got %d, %d, %d", users, voices, items)
	}
	if glossary.calls != 2 {
		t.Errorf("expected glossary seeded on each run, got %d calls", glossary.calls)
	}

	var user models.User
	db.Where("email = ?", DevUserEmail).First(&user)
	if user.SubscriptionStatus != models.SubscriptionActive {
		t.Errorf("expected active subscription, got %s", user.SubscriptionStatus)
	}
}

func TestCloseNil(t *testing.T) {
	if err := Close(nil); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}
