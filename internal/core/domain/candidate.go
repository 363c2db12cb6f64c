package domain

import (
	"encoding/json"
	"fmt"
)

type MatchType string

const (
	MatchTypeAccount MatchType = "account"
	MatchTypeCast    MatchType = "cast"
)

type Location struct {
	State   string `json:"state"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// AccountMatch is a full-text hit over account profile fields.
// MatchScore is a full-text relevance score.
type AccountMatch struct {
	Username      string   `json:"username"`
	Bio           string   `json:"bio"`
	FollowerCount int64    `json:"followerCount"`
	CredScore     float64  `json:"credScore"`
	Location      Location `json:"location"`
	AvatarURL     string   `json:"avatarUrl"`
	MatchScore    float64  `json:"matchScore"`
}

// CastMatch is a vector-similarity hit over post embeddings.
// MatchScore is a cosine similarity and is not comparable with AccountMatch scores.
type CastMatch struct {
	Username          string   `json:"username"`
	CastText          string   `json:"castText"`
	CastURL           string   `json:"castUrl"`
	Timestamp         string   `json:"timestamp"`
	LikesCount        int64    `json:"likesCount"`
	MentionedChannels []string `json:"mentionedChannels"`
	MentionedUsers    []string `json:"mentionedUsers"`
	MatchScore        float64  `json:"matchScore"`
}

// CandidateRecord is a tagged union: exactly one of Account or Cast is set,
// according to Type.
type CandidateRecord struct {
	Type    MatchType
	Account *AccountMatch
	Cast    *CastMatch
}

func NewAccountCandidate(m AccountMatch) CandidateRecord {
	return CandidateRecord{Type: MatchTypeAccount, Account: &m}
}

func NewCastCandidate(m CastMatch) CandidateRecord {
	return CandidateRecord{Type: MatchTypeCast, Cast: &m}
}

func (c CandidateRecord) Username() string {
	switch {
	case c.Type == MatchTypeAccount && c.Account != nil:
		return c.Account.Username
	case c.Type == MatchTypeCast && c.Cast != nil:
		return c.Cast.Username
	default:
		return ""
	}
}

func (c CandidateRecord) Score() float64 {
	switch {
	case c.Type == MatchTypeAccount && c.Account != nil:
		return c.Account.MatchScore
	case c.Type == MatchTypeCast && c.Cast != nil:
		return c.Cast.MatchScore
	default:
		return 0
	}
}

type accountWire struct {
	AccountMatch
	MatchType MatchType `json:"matchType"`
}

type castWire struct {
	CastMatch
	MatchType MatchType `json:"matchType"`
}

// MarshalJSON flattens the active variant and tags it with matchType.
func (c CandidateRecord) MarshalJSON() ([]byte, error) {
	switch {
	case c.Type == MatchTypeAccount && c.Account != nil:
		return json.Marshal(accountWire{AccountMatch: *c.Account, MatchType: MatchTypeAccount})
	case c.Type == MatchTypeCast && c.Cast != nil:
		return json.Marshal(castWire{CastMatch: *c.Cast, MatchType: MatchTypeCast})
	default:
		return nil, fmt.Errorf("candidate record has no %q variant", c.Type)
	}
}

func (c *CandidateRecord) UnmarshalJSON(data []byte) error {
	var tag struct {
		MatchType MatchType `json:"matchType"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}
	switch tag.MatchType {
	case MatchTypeAccount:
		var w accountWire
		if err := json.Unmarshal(data, &w); err != nil {
			return err
		}
		*c = NewAccountCandidate(w.AccountMatch)
	case MatchTypeCast:
		var w castWire
		if err := json.Unmarshal(data, &w); err != nil {
			return err
		}
		*c = NewCastCandidate(w.CastMatch)
	default:
		return fmt.Errorf("unknown matchType %q", tag.MatchType)
	}
	return nil
}

type ResultStats struct {
	Total        int `json:"total"`
	AccountCount int `json:"accountCount"`
	CastCount    int `json:"castCount"`
}

// ResultSet is derived from retrieval and never mutated after construction.
type ResultSet struct {
	Accounts []AccountMatch `json:"accounts"`
	Casts    []CastMatch    `json:"casts"`
	Stats    ResultStats    `json:"stats"`
}

// Candidates returns the set as tagged records, accounts first.
func (s ResultSet) Candidates() []CandidateRecord {
	out := make([]CandidateRecord, 0, len(s.Accounts)+len(s.Casts))
	for _, a := range s.Accounts {
		out = append(out, NewAccountCandidate(a))
	}
	for _, c := range s.Casts {
		out = append(out, NewCastCandidate(c))
	}
	return out
}
