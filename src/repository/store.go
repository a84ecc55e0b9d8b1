package repository

// Store bundles both repositories behind the engine's durability boundary.
type Store struct {
	*GormOccurrenceRepository
	*GormEscalationRepository
}

// NewStore creates the combined store on the main DB.
func NewStore() *Store {
	return &Store{
		GormOccurrenceRepository: NewOccurrenceRepository(),
		GormEscalationRepository: NewEscalationRepository(),
	}
}
