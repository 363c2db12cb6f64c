package neo4j

import (
	"context"
	"fmt"

	"github.com/kirillkom/builder-search/internal/core/domain"
)

const upsertTokenCypher = `
MERGE (u:User {fid: $fid})
MERGE (t:NotificationToken {token: $token})
SET t.url = $url, t.updatedAt = datetime()
MERGE (u)-[:HAS_NOTIFICATION_TOKEN]->(t)`

const deleteTokensCypher = `
MATCH (:User {fid: $fid})-[:HAS_NOTIFICATION_TOKEN]->(t:NotificationToken)
DETACH DELETE t`

type TokenStore struct {
	runner queryRunner
}

func NewTokenStore(runner queryRunner) *TokenStore {
	return &TokenStore{runner: runner}
}

func (s *TokenStore) UpsertToken(ctx context.Context, fid int64, details domain.NotificationDetails) error {
	_, err := s.runner.Write(ctx, upsertTokenCypher, map[string]any{
		"fid":   fid,
		"token": details.Token,
		"url":   details.URL,
	})
	if err != nil {
		return fmt.Errorf("upsert notification token: %w", err)
	}
	return nil
}

func (s *TokenStore) DeleteTokens(ctx context.Context, fid int64) error {
	if _, err := s.runner.Write(ctx, deleteTokensCypher, map[string]any{"fid": fid}); err != nil {
		return fmt.Errorf("delete notification tokens: %w", err)
	}
	return nil
}
