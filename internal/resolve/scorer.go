package resolve

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"trapper/internal/blacklist"
	"trapper/internal/domain"
	"trapper/internal/normalize"
)

// blacklistContext is the pre-fetched blacklist state for one input, so the
// scorer never does its own lookups.
type blacklistContext struct {
	email *blacklist.Entry
	phone *blacklist.Entry
}

// score ranks existing people against the input. Candidates are the union of
// exact email and phone identifier owners; each is scored on four weighted
// signals. A shared-blacklisted identifier contributes half its weight rather
// than being excluded: a shared phone is weak evidence, not no evidence.
func (s *Service) score(ctx context.Context, input normalizedInput, bl blacklistContext) ([]Candidate, error) {
	type hit struct {
		person  *domain.Person
		byEmail bool
		byPhone bool
	}
	hits := make(map[uuid.UUID]*hit)

	if input.Email != "" {
		owners, err := s.store.FindOwners(ctx, domain.IdentifierEmail, input.Email, s.cfg.MinIdentifierConfidence)
		if err != nil {
			return nil, fmt.Errorf("find email owners: %w", err)
		}
		for _, p := range owners {
			hits[p.ID] = &hit{person: p, byEmail: true}
		}
	}
	if input.Phone != "" {
		owners, err := s.store.FindOwners(ctx, domain.IdentifierPhone, input.Phone, s.cfg.MinIdentifierConfidence)
		if err != nil {
			return nil, fmt.Errorf("find phone owners: %w", err)
		}
		for _, p := range owners {
			if h, ok := hits[p.ID]; ok {
				h.byPhone = true
			} else {
				hits[p.ID] = &hit{person: p, byPhone: true}
			}
		}
	}

	candidates := make([]Candidate, 0, len(hits))
	for _, h := range hits {
		breakdown := domain.SignalBreakdown{}

		if h.byEmail {
			w := s.cfg.WeightEmail
			if bl.email != nil {
				w /= 2
				breakdown.MatchedOn = append(breakdown.MatchedOn, "email_shared")
			} else {
				breakdown.MatchedOn = append(breakdown.MatchedOn, "email")
			}
			breakdown.Email = w
		}
		if h.byPhone {
			w := s.cfg.WeightPhone
			if bl.phone != nil {
				w /= 2
				breakdown.MatchedOn = append(breakdown.MatchedOn, "phone_shared")
			} else {
				breakdown.MatchedOn = append(breakdown.MatchedOn, "phone")
			}
			breakdown.Phone = w
		}

		if sim := normalize.NameSimilarity(input.DisplayName, h.person.DisplayName); sim > 0 {
			breakdown.Name = s.cfg.WeightName * sim
			breakdown.MatchedOn = append(breakdown.MatchedOn, "name")
		}

		if input.Address != "" {
			contained, err := s.addressContained(ctx, h.person.ID, input.Address)
			if err != nil {
				return nil, err
			}
			if contained {
				breakdown.Address = s.cfg.WeightAddress
				breakdown.MatchedOn = append(breakdown.MatchedOn, "address")
			}
		}

		candidates = append(candidates, Candidate{
			Person:    h.person,
			Score:     breakdown.Total(),
			Breakdown: breakdown,
		})
	}

	// Descending by score. Equal scores break by most-recent activity, then
	// ID, so ordering is total and reproducible across runs.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		if !candidates[i].Person.UpdatedAt.Equal(candidates[j].Person.UpdatedAt) {
			return candidates[i].Person.UpdatedAt.After(candidates[j].Person.UpdatedAt)
		}
		return candidates[i].Person.ID.String() < candidates[j].Person.ID.String()
	})
	return candidates, nil
}

func (s *Service) addressContained(ctx context.Context, personID uuid.UUID, fragment string) (bool, error) {
	addresses, err := s.store.AddressesByPerson(ctx, personID)
	if err != nil {
		return false, fmt.Errorf("addresses for person %s: %w", personID, err)
	}
	for _, addr := range addresses {
		if normalize.AddressContains(addr, fragment) {
			return true, nil
		}
	}
	return false, nil
}
