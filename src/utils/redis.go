package utils

import (
	"context"
	"fmt"
	"time"

	DB "formulate-backend/src/database"
	"formulate-backend/src/logger"

	"github.com/redis/go-redis/v9"
)

// ensureClient returns the shared Redis client, or nil when Redis is not
// configured. Callers treat nil as "guard disabled".
func ensureClient() *redis.Client {
	return DB.RedisClient
}

func submissionKey(formID, ip string) string {
	return fmt.Sprintf("submission:%s:%s", formID, ip)
}

// ClaimSubmission marks (formID, ip) as having submitted. It reports false
// when the pair was already claimed. Without Redis every claim succeeds and
// the database lookup is the only guard.
func ClaimSubmission(ctx context.Context, formID, ip string, ttl time.Duration) (bool, error) {
	client := ensureClient()
	if client == nil {
		return true, nil
	}
	ok, err := client.SetNX(ctx, submissionKey(formID, ip), time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim submission: %w", err)
	}
	return ok, nil
}

// ReleaseSubmission undoes a claim, after a rejected or failed submission.
func ReleaseSubmission(ctx context.Context, formID, ip string) {
	client := ensureClient()
	if client == nil {
		return
	}
	if err := client.Del(ctx, submissionKey(formID, ip)).Err(); err != nil {
		logger.WithError(err).WithField("form", formID).Warn("failed to release submission claim")
	}
}
