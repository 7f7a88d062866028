package model

// HistoryQuery pages through a user's attempts.
type HistoryQuery struct {
	Page    int `form:"page" binding:"omitempty,min=1"`
	PerPage int `form:"per_page" binding:"omitempty,min=1,max=100"`
}

// Normalize fills in default paging.
func (q *HistoryQuery) Normalize() {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PerPage <= 0 {
		q.PerPage = 10
	}
}

// QuestionQuery filters the admin question listing.
type QuestionQuery struct {
	Tier string `form:"difficulty" binding:"omitempty,tier"`
}
