package usecase

import "github.com/kirillkom/builder-search/internal/core/domain"

// Aggregate partitions retrieval output by match type. It applies no
// filtering of its own.
func Aggregate(records []domain.CandidateRecord) domain.ResultSet {
	set := domain.ResultSet{
		Accounts: make([]domain.AccountMatch, 0),
		Casts:    make([]domain.CastMatch, 0),
	}
	for _, rec := range records {
		switch {
		case rec.Type == domain.MatchTypeAccount && rec.Account != nil:
			set.Accounts = append(set.Accounts, *rec.Account)
		case rec.Type == domain.MatchTypeCast && rec.Cast != nil:
			set.Casts = append(set.Casts, *rec.Cast)
		}
	}
	set.Stats = domain.ResultStats{
		Total:        len(set.Accounts) + len(set.Casts),
		AccountCount: len(set.Accounts),
		CastCount:    len(set.Casts),
	}
	return set
}
