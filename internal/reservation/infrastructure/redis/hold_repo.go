// Package redis stores slot holds in Redis so they expire on their own.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/felixgeelhaar/careslot/internal/reservation/domain"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key the repository writes.
const DefaultPrefix = "careslot"

// releaseSlot deletes the slot key only while it still points at the hold.
var releaseSlot = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// HoldRepository implements domain.HoldRepository. Keys:
//
//	{prefix}:hold:{id}                 hold JSON, expires with the hold
//	{prefix}:slot:{prof}:{date}:{time} id of the hold owning the slot
//	{prefix}:user:{uid}:holds          set of the user's hold ids
type HoldRepository struct {
	client *redis.Client
	prefix string
}

// NewHoldRepository creates a repository on client.
func NewHoldRepository(client *redis.Client) *HoldRepository {
	return &HoldRepository{client: client, prefix: DefaultPrefix}
}

// WithPrefix returns a copy writing under a different namespace.
func (r *HoldRepository) WithPrefix(prefix string) *HoldRepository {
	return &HoldRepository{client: r.client, prefix: prefix}
}

func (r *HoldRepository) holdKey(id string) string {
	return fmt.Sprintf("%s:hold:%s", r.prefix, id)
}

func (r *HoldRepository) slotKey(h domain.Reservation) string {
	return fmt.Sprintf("%s:slot:%s:%s:%s", r.prefix, h.ProfessionalID, h.Date, h.Time)
}

func (r *HoldRepository) userKey(userID string) string {
	return fmt.Sprintf("%s:user:%s:holds", r.prefix, userID)
}

func (r *HoldRepository) Create(ctx context.Context, hold domain.Reservation, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("%w: hold ttl must be positive", domain.ErrInvalidRequest)
	}
	data, err := json.Marshal(hold)
	if err != nil {
		return fmt.Errorf("failed to encode hold: %w", err)
	}

	ok, err := r.client.SetNX(ctx, r.slotKey(hold), hold.ID, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to claim slot: %w", err)
	}
	if !ok {
		return domain.ErrSlotUnavailable
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.holdKey(hold.ID), data, ttl)
		pipe.SAdd(ctx, r.userKey(hold.UserID), hold.ID)
		pipe.Expire(ctx, r.userKey(hold.UserID), ttl)
		return nil
	})
	if err != nil {
		_ = releaseSlot.Run(ctx, r.client, []string{r.slotKey(hold)}, hold.ID).Err()
		return fmt.Errorf("failed to store hold: %w", err)
	}
	return nil
}

func (r *HoldRepository) FindByID(ctx context.Context, id string) (domain.Reservation, error) {
	data, err := r.client.Get(ctx, r.holdKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("failed to load hold: %w", err)
	}
	return decode(data)
}

func (r *HoldRepository) FindByUser(ctx context.Context, userID string) ([]domain.Reservation, error) {
	ids, err := r.client.SMembers(ctx, r.userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list holds: %w", err)
	}
	out := make([]domain.Reservation, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.holdKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load holds: %w", err)
	}

	var stale []any
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		hold, err := decode([]byte(s))
		if err != nil {
			return nil, err
		}
		out = append(out, hold)
	}
	if len(stale) > 0 {
		_ = r.client.SRem(ctx, r.userKey(userID), stale...).Err()
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *HoldRepository) Delete(ctx context.Context, id string) error {
	hold, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return r.remove(ctx, hold)
}

func (r *HoldRepository) DeleteByUser(ctx context.Context, userID string) (int, error) {
	holds, err := r.FindByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, hold := range holds {
		if err := r.remove(ctx, hold); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (r *HoldRepository) remove(ctx context.Context, hold domain.Reservation) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.holdKey(hold.ID))
		pipe.SRem(ctx, r.userKey(hold.UserID), hold.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete hold: %w", err)
	}
	if err := releaseSlot.Run(ctx, r.client, []string{r.slotKey(hold)}, hold.ID).Err(); err != nil {
		return fmt.Errorf("failed to free slot: %w", err)
	}
	return nil
}

func decode(data []byte) (domain.Reservation, error) {
	var hold domain.Reservation
	if err := json.Unmarshal(data, &hold); err != nil {
		return domain.Reservation{}, fmt.Errorf("failed to decode hold: %w", err)
	}
	return hold, nil
}
