package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/jimdaga/nextrend/internal/models"
)

// GlossaryTerms are the mortgage terms offered under General Mortgage.
var GlossaryTerms = []string{
	"Adjustable-Rate Mortgage (ARM)",
	"Amortization",
	"Annual Percentage Rate (APR)",
	"Appraisal",
	"Balloon Mortgage",
	"Borrower",
	"Broker",
	"Closing Costs",
	"Co-Borrower",
	"Collateral",
	"Conforming Loan",
	"Conventional Loan",
	"Credit Score",
	"Debt-to-Income Ratio (DTI)",
	"Default",
	"Down Payment",
	"Earnest Money Deposit",
	"Equity",
	"Escrow",
	"Fannie Mae (FNMA)",
	"FHA Loan",
	"Fixed-Rate Mortgage",
	"Foreclosure",
	"Freddie Mac (FHLMC)",
	"Good Faith Estimate (GFE)",
	"Government-Backed Loan",
	"Hard Money Loan",
	"Hazard Insurance",
	"Home Equity Line of Credit (HELOC)",
	"Homeowners Association (HOA) Fees",
	"Homeowners Insurance",
	"Housing Ratio",
	"Interest Rate",
	"Jumbo Loan",
	"Lender",
	"Lien",
	"Loan Estimate (LE)",
	"Loan-to-Value Ratio (LTV)",
	"Lock-In Rate",
	"Margin (for ARMs)",
	"Maturity Date",
	"Mortgage",
	"Mortgage Banker",
	"Mortgage Broker",
	"Mortgage Insurance (MI)",
	"Mortgage Note",
	"Mortgage Underwriting",
	"Negative Amortization",
	"Non-Conforming Loan",
	"Origination Fee",
	"Pre-Approval",
	"Private Mortgage Insurance (PMI)",
	"Rate Lock",
	"Refinance",
	"Reverse Mortgage",
	"Title Insurance",
	"VA Loan",
	"Balloon Payment",
	"Cash-Out Refinance",
	"Escrow Account",
	"Forbearance",
	"Loan Modification",
	"Construction Loan",
	"Discount Points",
	"Gift Funds",
	"Home Inspection",
	"Interest-Only Loan",
}

// GlossaryDefinition is the body used for a term until a real definition is
// ingested.
func GlossaryDefinition(term string) string {
	return fmt.Sprintf("%s: explain what it means, how it affects a borrower's monthly payment or "+
		"closing costs, and when a homebuyer or homeowner should ask their loan officer about it.", term)
}

// SeedGlossary inserts any missing glossary terms. It returns the number added.
func (s *Store) SeedGlossary(ctx context.Context) (int, error) {
	added := 0
	now := time.Now().UTC()
	for _, term := range GlossaryTerms {
		item := &models.SourceItem{
			Kind:        models.SourceKindGlossary,
			Status:      models.SourceStatusPublished,
			Title:       term,
			Body:        GlossaryDefinition(term),
			Category:    GlossaryCategory,
			PublishedAt: now,
		}
		created, err := s.Upsert(ctx, item)
		if err != nil {
			return added, err
		}
		if created {
			added++
		}
	}
	return added, nil
}
