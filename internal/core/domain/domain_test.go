package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestCandidateRecordMarshalFlattensVariant(t *testing.T) {
	record := NewCastCandidate(CastMatch{
		Username:          "dwr",
		CastText:          "shipping frames on base",
		MentionedChannels: []string{"base"},
		MentionedUsers:    []string{},
		MatchScore:        0.91,
	})

	raw, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if fields["matchType"] != "cast" || fields["username"] != "dwr" || fields["castText"] != "shipping frames on base" {
		t.Fatalf("unexpected fields %v", fields)
	}
	if _, nested := fields["Cast"]; nested {
		t.Fatalf("variant must be flattened, got %s", raw)
	}
}

func TestCandidateRecordUnmarshalByMatchType(t *testing.T) {
	var account CandidateRecord
	if err := json.Unmarshal([]byte(`{"matchType":"account","username":"alice","bio":"frames","followerCount":12,"location":{"city":"Lisbon"}}`), &account); err != nil {
		t.Fatalf("unmarshal account: %v", err)
	}
	if account.Type != MatchTypeAccount || account.Account == nil || account.Cast != nil {
		t.Fatalf("unexpected account record %+v", account)
	}
	if account.Username() != "alice" || account.Account.Location.City != "Lisbon" || account.Account.FollowerCount != 12 {
		t.Fatalf("unexpected account fields %+v", account.Account)
	}

	var unknown CandidateRecord
	err := json.Unmarshal([]byte(`{"matchType":"channel","username":"x"}`), &unknown)
	if err == nil || !strings.Contains(err.Error(), "channel") {
		t.Fatalf("expected unknown matchType error, got %v", err)
	}
}

func TestCandidateRecordWithoutVariantFailsToMarshal(t *testing.T) {
	if _, err := json.Marshal(CandidateRecord{Type: MatchTypeAccount}); err == nil {
		t.Fatalf("expected error for empty variant")
	}
	if got := (CandidateRecord{Type: MatchTypeCast}).Username(); got != "" {
		t.Fatalf("expected empty username, got %q", got)
	}
}

func TestResultSetCandidatesKeepsAccountsFirst(t *testing.T) {
	set := ResultSet{
		Accounts: []AccountMatch{{Username: "a1"}, {Username: "a2"}},
		Casts:    []CastMatch{{Username: "c1"}},
	}

	candidates := set.Candidates()
	if len(candidates) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(candidates))
	}
	want := []string{"a1", "a2", "c1"}
	for i, c := range candidates {
		if c.Username() != want[i] {
			t.Fatalf("candidate %d: expected %q, got %q", i, want[i], c.Username())
		}
	}
}

func TestProcessedResultAddsRelevanceContext(t *testing.T) {
	result := ProcessedResult{
		Candidate:        NewAccountCandidate(AccountMatch{Username: "alice"}),
		RelevanceContext: "bio mentions frames",
	}

	raw, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"relevanceContext":"bio mentions frames"`) || !strings.Contains(string(raw), `"matchType":"account"`) {
		t.Fatalf("unexpected json %s", raw)
	}
}

func TestNotificationEventAction(t *testing.T) {
	cases := map[string]NotificationAction{
		"frame_added":            NotificationActionUpsert,
		"notifications_enabled":  NotificationActionUpsert,
		"added":                  NotificationActionUpsert,
		"frame_removed":          NotificationActionDelete,
		"notifications_disabled": NotificationActionDelete,
		"disabled":               NotificationActionDelete,
		"something_else":         NotificationActionIgnore,
	}
	for name, want := range cases {
		if got := (NotificationEvent{Event: name}).Action(); got != want {
			t.Fatalf("Action(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestWrapErrorKeepsKindAndCause(t *testing.T) {
	cause := errors.New("bolt: connection refused")
	err := WrapError(ErrRetrieval, "retrieve candidates", cause)

	if !IsKind(err, ErrRetrieval) || !errors.Is(err, cause) {
		t.Fatalf("expected kind and cause to match, got %v", err)
	}
	if KindLabel(err) != "retrieval_error" {
		t.Fatalf("unexpected label %q", KindLabel(err))
	}
	if !strings.HasPrefix(err.Error(), "retrieve candidates") {
		t.Fatalf("expected operation prefix, got %q", err.Error())
	}
	if KindLabel(errors.New("x")) != "internal_error" {
		t.Fatalf("expected internal_error for unclassified errors")
	}
}
