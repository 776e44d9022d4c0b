package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/baechuer/otp-auth-service/internal/application/auth"
	"github.com/baechuer/otp-auth-service/internal/domain"
)

// CachedUserRepo decorates an auth.UserRepo with a Redis cache for profile reads.
// - Read path (GetByID): Redis -> DB fallback -> Redis set, guarded by generation
// - Write path (UpdateProfile): DB -> bump generation + DEL (best effort)
// Redis failures never fail the request.
//
// A fill only lands if the per-user generation it observed before the DB read
// is still current, so a miss that read a pre-update row cannot overwrite
// the invalidation.
type CachedUserRepo struct {
	inner   auth.UserRepo
	rdb     *goredis.Client
	ttl     time.Duration
	keyPref string
}

func NewCachedUserRepo(inner auth.UserRepo, client *Client, ttl time.Duration) *CachedUserRepo {
	var rdb *goredis.Client
	if client != nil {
		rdb = client.rdb
	}
	return &CachedUserRepo{
		inner:   inner,
		rdb:     rdb,
		ttl:     ttl,
		keyPref: "profile:",
	}
}

// cachedProfile never carries the password hash.
type cachedProfile struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	DOB       time.Time `json:"dob"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

func toCached(u domain.User) cachedProfile {
	return cachedProfile{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
		DOB:       u.DOB,
		Address:   u.Address,
		CreatedAt: u.CreatedAt,
	}
}

func (p cachedProfile) user() domain.User {
	return domain.User{
		ID:        p.ID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Phone:     p.Phone,
		DOB:       p.DOB,
		Address:   p.Address,
		CreatedAt: p.CreatedAt,
	}
}

func (c *CachedUserRepo) key(userID string) string {
	return c.keyPref + userID
}

func (c *CachedUserRepo) genKey(userID string) string {
	return c.keyPref + "gen:" + userID
}

var errStaleFill = errors.New("profile generation moved")

func (c *CachedUserRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	var gen int64
	if c.rdb != nil {
		s, err := c.rdb.Get(ctx, c.key(id)).Result()
		switch {
		case err == nil:
			var p cachedProfile
			if jerr := json.Unmarshal([]byte(s), &p); jerr == nil {
				return p.user(), nil
			}
			// corrupt entry -> DB
		case !errors.Is(err, goredis.Nil):
			log.Warn().Err(err).Str("user_id", id).Msg("profile_cache_read_failed")
		}

		gen, err = c.generation(ctx, c.rdb, id)
		if err != nil {
			// unknown generation: serve from DB without filling
			return c.inner.GetByID(ctx, id)
		}
	}

	u, err := c.inner.GetByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	c.fill(ctx, u, gen)
	return u, nil
}

func (c *CachedUserRepo) UpdateProfile(ctx context.Context, id string, p domain.ProfileUpdate) (domain.User, error) {
	u, err := c.inner.UpdateProfile(ctx, id, p)
	if err != nil {
		return domain.User{}, err
	}

	c.invalidate(ctx, id)
	return u, nil
}

func (c *CachedUserRepo) invalidate(ctx context.Context, id string) {
	if c.rdb == nil {
		return
	}
	_, err := c.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Incr(ctx, c.genKey(id))
		pipe.Expire(ctx, c.genKey(id), c.ttl)
		pipe.Del(ctx, c.key(id))
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("user_id", id).Msg("profile_cache_invalidate_failed")
	}
}

// generation returns the current per-user generation; a missing key is 0.
func (c *CachedUserRepo) generation(ctx context.Context, cmd interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
}, id string) (int64, error) {
	gen, err := cmd.Get(ctx, c.genKey(id)).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *CachedUserRepo) fill(ctx context.Context, u domain.User, gen int64) {
	if c.rdb == nil {
		return
	}
	b, err := json.Marshal(toCached(u))
	if err != nil {
		return
	}

	err = c.rdb.Watch(ctx, func(tx *goredis.Tx) error {
		cur, err := c.generation(ctx, tx, u.ID)
		if err != nil {
			return err
		}
		if cur != gen {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, c.key(u.ID), b, c.ttl)
			return nil
		})
		return err
	}, c.genKey(u.ID))

	switch {
	case err == nil, errors.Is(err, errStaleFill), errors.Is(err, goredis.TxFailedErr):
	default:
		log.Warn().Err(err).Str("user_id", u.ID).Msg("profile_cache_write_failed")
	}
}

func (c *CachedUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return c.inner.GetByEmail(ctx, email)
}

func (c *CachedUserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	return c.inner.Create(ctx, u)
}
