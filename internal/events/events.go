// Package events fans application changes out to live subscribers over
// Redis pub/sub.
package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

func PostingApplicationsChannel(postingID string) string {
	return "posting:" + postingID + ":applications"
}

func ApplicantApplicationsChannel(applicantID string) string {
	return "applicant:" + applicantID + ":applications"
}

type Publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, channel, b).Err()
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, string, any) error { return nil }
