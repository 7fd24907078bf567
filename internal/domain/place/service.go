package place

import (
	"sieve/internal/domain"
)

// Repository selects places matching a specification.
type Repository = domain.SpecRepository[Place]

// Service lists places.
type Service = domain.QueryService[Place]

// NewService creates a place query service over repo.
func NewService(repo Repository) *Service {
	return domain.NewQueryService(domain.QueryServiceConfig[Place]{
		Repo:       repo,
		EntityName: "place",
	})
}
