package postgres

// Store bundles the brief and unlock repositories over one pool.
type Store struct {
	*BriefRepo
	*UnlockRepo
}

// NewStore constructs a durable record store.
func NewStore(db *DB) *Store {
	return &Store{BriefRepo: NewBriefRepo(db), UnlockRepo: NewUnlockRepo(db)}
}
