package dispatch

import (
	"fmt"

	groomerRepo "groomly/database/repository/groomer"
	"groomly/models"
)

// FindCandidates returns the ordered list of groomers eligible for a
// booking, excluding any ids in excludeIDs. Squad members the customer
// prefers come first, in the customer's stored priority order; the
// general pool follows ordered by rating then completed jobs. Squad
// membership never bypasses eligibility: an offline or unqualified
// squad member is simply skipped.
func (e *Engine) FindCandidates(booking *models.Booking, excludeIDs []string) ([]models.Groomer, error) {
	eligible, err := e.Groomers.FindEligible(groomerRepo.EligibilityQuery{
		ServiceID:  booking.ServiceID,
		Zone:       booking.Zone,
		ExcludeIDs: excludeIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("candidate search failed: %w", err)
	}
	if len(eligible) == 0 {
		return nil, nil
	}

	customer, err := e.Customers.GetByID(booking.CustomerID)
	if err != nil || len(customer.Squad) == 0 {
		// No squad (or unknown requester): general pool order stands.
		return eligible, nil
	}

	byID := make(map[string]int, len(eligible))
	for i, g := range eligible {
		byID[g.ID] = i
	}

	var ordered []models.Groomer
	taken := make(map[string]bool, len(customer.Squad))
	for _, id := range customer.Squad {
		if i, ok := byID[id]; ok {
			ordered = append(ordered, eligible[i])
			taken[id] = true
		}
	}
	for _, g := range eligible {
		if !taken[g.ID] {
			ordered = append(ordered, g)
		}
	}
	return ordered, nil
}
