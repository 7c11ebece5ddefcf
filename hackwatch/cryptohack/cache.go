package cryptohack

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/singleflight"
)

// CachedFetcher wraps a Client with a short-TTL LRU cache so that a username
// tracked by several guilds is fetched once per cycle, and collapses
// concurrent fetches for the same username into a single API call.
type CachedFetcher struct {
	client *Client
	cache  *lru.Cache
	ttl    time.Duration
	group  singleflight.Group
}

type cacheEntry struct {
	profile   *Profile
	fetchedAt time.Time
}

func NewCachedFetcher(client *Client, size int, ttl time.Duration) (*CachedFetcher, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &CachedFetcher{
		client: client,
		cache:  cache,
		ttl:    ttl,
	}, nil
}

func (f *CachedFetcher) FetchProfile(ctx context.Context, username string) (*Profile, error) {
	if v, ok := f.cache.Get(username); ok {
		entry := v.(cacheEntry)
		if time.Since(entry.fetchedAt) < f.ttl {
			return entry.profile, nil
		}
		f.cache.Remove(username)
	}

	v, err, _ := f.group.Do(username, func() (interface{}, error) {
		profile, err := f.client.FetchProfile(ctx, username)
		if err != nil {
			return nil, err
		}
		f.cache.Add(username, cacheEntry{profile: profile, fetchedAt: time.Now()})
		return profile, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Profile), nil
}

func (f *CachedFetcher) SearchUsers(ctx context.Context, term string) ([]string, error) {
	return f.client.SearchUsers(ctx, term)
}

// Invalidate drops the cached profile for a username, forcing the next
// fetch to hit the API. Used after add-user so the first cycle sees fresh data.
func (f *CachedFetcher) Invalidate(username string) {
	f.cache.Remove(username)
}
