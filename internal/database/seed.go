package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jimdaga/nextrend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DevUserEmail is the account the dev seed creates.
const DevUserEmail = "dev@nextrend.local"

// GlossarySeeder loads the fixed glossary terms.
type GlossarySeeder interface {
	SeedGlossary(ctx context.Context) (int, error)
}

// SeedDevData populates the database with development test data.
// Idempotent: existing rows are left alone.
func SeedDevData(ctx context.Context, db *gorm.DB, glossary GlossarySeeder) error {
	db = db.WithContext(ctx)

	var user models.User
	err := db.Where(models.User{Email: DevUserEmail}).
		Attrs(models.User{Name: "Dev Loan Officer", SubscriptionStatus: models.SubscriptionActive, SubscriptionID: "sub_dev", StripeCustomerID: "cus_dev"}).
		FirstOrCreate(&user).Error
	if err != nil {
		return fmt.Errorf("seed dev user: %w", err)
	}

	voice := models.BrandVoice{
		UserID:  user.ID,
		Content: "I'm a neighborhood loan officer. I keep things plain and friendly, share quick client wins, and always end with an easy next step.",
		Summary: "Friendly, plain-spoken and community-minded. Short sentences, small client stories, no jargon, and a soft call to action.",
	}
	if err := db.Where(models.BrandVoice{UserID: user.ID}).FirstOrCreate(&voice).Error; err != nil {
		return fmt.Errorf("seed brand voice: %w", err)
	}

	now := time.Now().UTC()
	items := []models.SourceItem{
		{
			Kind:     models.SourceKindCommentary,
			Title:    "MBS Rally Pushes Rates to Three-Week Lows",
			Excerpt:  "Bonds improved after softer inflation data, and lenders repriced better by mid-morning.",
			Body:     "Mortgage-backed securities gained ground after the latest inflation report came in below forecasts. Most lenders issued positive reprices by mid-morning, putting average 30-year fixed quotes at their best levels in three weeks. Volatility remains elevated ahead of next week's Fed meeting.",
			Category: "Mortgage",
			Feed:     "seed",
		},
		{
			Kind:     models.SourceKindCommentary,
			Title:    "Jobs Report Leaves Bonds Little Changed",
			Excerpt:  "Payrolls landed close to expectations and rates held steady through the session.",
			Body:     "The monthly jobs report showed hiring close to consensus with a slight uptick in unemployment. Bond markets barely moved, and mortgage rates held in a narrow range for the day.",
			Category: "Economy",
			Feed:     "seed",
		},
		{
			Kind:     models.SourceKindTrending,
			Title:    "Inventory Climbs as Spring Listings Arrive Early",
			Body:     "Active listings rose for the fourth straight month as sellers listed earlier than usual. Buyers in many metros now have more choice and more room to negotiate, although prices remain near record highs.",
			Category: "Housing",
			Feed:     "seed",
		},
		{
			Kind:     models.SourceKindTrending,
			Title:    "First-Time Buyers Return to the Market",
			Body:     "The share of purchase applications from first-time buyers ticked up this quarter, helped by down payment assistance programs and slightly lower rates.",
			Category: "Mortgage",
			Feed:     "seed",
		},
	}
	for i := range items {
		url := fmt.Sprintf("https://nextrend.local/seed/%d", i+1)
		items[i].SourceURL = &url
		items[i].Status = models.SourceStatusPublished
		items[i].PublishedAt = now.Add(-time.Duration(i) * 6 * time.Hour)
	}
	if err := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "source_url"}}, DoNothing: true}).Create(&items).Error; err != nil {
		return fmt.Errorf("seed source items: %w", err)
	}

	added := 0
	if glossary != nil {
		if added, err = glossary.SeedGlossary(ctx); err != nil {
			return fmt.Errorf("seed glossary: %w", err)
		}
	}

	log.Printf("Seeded dev data: user %s, %d sample sources, %d glossary terms", DevUserEmail, len(items), added)
	return nil
}
