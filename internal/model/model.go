// Package model defines domain entities used by services and repositories.
package model

// BriefInput is a client's brief submission before server-assigned fields exist.
type BriefInput struct {
	Title     string  `json:"title"`
	Details   string  `json:"details"`
	Category  *string `json:"category"`
	BudgetMin *int    `json:"budgetMin"`
	BudgetMax *int    `json:"budgetMax"`
	Timeline  *string `json:"timeline"`
	Name      *string `json:"name"`
	Email     *string `json:"email"`
}

// Brief is a stored project request. Never mutated after creation.
type Brief struct {
	ID        string  `json:"id"`
	CreatedAt int64   `json:"createdAt"` // unix millis
	Title     string  `json:"title"`
	Category  *string `json:"category"`
	BudgetMin *int    `json:"budgetMin"` // no ordering against BudgetMax is enforced
	BudgetMax *int    `json:"budgetMax"`
	Timeline  *string `json:"timeline"`
	Details   string  `json:"details"`
	Name      *string `json:"name"`
	Email     *string `json:"email"`
}

// NewBrief builds a Brief from input plus the assigned id and creation time.
func NewBrief(id string, createdAt int64, in BriefInput) Brief {
	return Brief{
		ID:        id,
		CreatedAt: createdAt,
		Title:     in.Title,
		Category:  in.Category,
		BudgetMin: in.BudgetMin,
		BudgetMax: in.BudgetMax,
		Timeline:  in.Timeline,
		Details:   in.Details,
		Name:      in.Name,
		Email:     in.Email,
	}
}

// Unlock records that a brief's gated content has been paid for.
// At most one exists per BriefID.
type Unlock struct {
	BriefID    string
	UnlockedAt int64 // unix millis of the first verified payment
}
