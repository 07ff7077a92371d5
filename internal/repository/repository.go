package repository

import "gorm.io/gorm"

// Repositories aggregates every store the coordinator needs, wired once at
// startup and passed down to the service layer.
type Repositories struct {
	Principals    PrincipalRepository
	Requests      RequestRepository
	RefreshTokens RefreshTokenRepository
}

// NewRepositories constructs every repository over a shared *gorm.DB.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Principals:    NewPrincipalRepository(db),
		Requests:      NewRequestRepository(db),
		RefreshTokens: NewRefreshTokenRepository(db),
	}
}
