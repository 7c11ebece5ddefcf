package tracking_test

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/assakaf/hackwatch/hackwatch/cryptohack"
	"github.com/assakaf/hackwatch/hackwatch/database/models"
	"github.com/disgoorg/snowflake/v2"
)

// fakeStore is an in-memory tracking.Store with the same conflict semantics
// as the Postgres repositories: inserts never overwrite existing rows.
type fakeStore struct {
	mu          sync.Mutex
	users       map[string]*models.TrackedUser
	solves      map[string]*models.Solve
	firstBloods map[string]*models.FirstBlood
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       make(map[string]*models.TrackedUser),
		solves:      make(map[string]*models.Solve),
		firstBloods: make(map[string]*models.FirstBlood),
	}
}

func userKey(guildID, username string) string {
	return guildID + "|" + username
}

func solveKey(guildID, username, challenge string) string {
	return guildID + "|" + username + "|" + challenge
}

func (s *fakeStore) Create(_ context.Context, user *models.TrackedUser) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := userKey(user.GuildID, user.Username)
	if _, ok := s.users[key]; ok {
		return false, nil
	}
	clone := *user
	s.users[key] = &clone
	return true, nil
}

func (s *fakeStore) Delete(_ context.Context, guildID snowflake.ID, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := userKey(guildID.String(), username)
	if _, ok := s.users[key]; !ok {
		return false, nil
	}
	delete(s.users, key)
	return true, nil
}

func (s *fakeStore) GetByGuild(_ context.Context, guildID snowflake.ID) ([]*models.TrackedUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var users []*models.TrackedUser
	for _, user := range s.users {
		if user.GuildID == guildID.String() {
			clone := *user
			users = append(users, &clone)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (s *fakeStore) GetGuildIDs(_ context.Context) ([]snowflake.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[snowflake.ID]struct{})
	var ids []snowflake.ID
	for _, user := range s.users {
		id, err := snowflake.Parse(user.GuildID)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *fakeStore) Update(_ context.Context, user *models.TrackedUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *user
	s.users[userKey(user.GuildID, user.Username)] = &clone
	return nil
}

func (s *fakeStore) SolvedSet(_ context.Context, guildID snowflake.ID, username string) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := make(map[string]struct{})
	for _, solve := range s.solves {
		if solve.GuildID == guildID.String() && solve.Username == username {
			set[solve.ChallengeName] = struct{}{}
		}
	}
	return set, nil
}

func (s *fakeStore) Insert(_ context.Context, solve *models.Solve) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := solveKey(solve.GuildID, solve.Username, solve.ChallengeName)
	if _, ok := s.solves[key]; ok {
		return false, nil
	}
	clone := *solve
	s.solves[key] = &clone
	return true, nil
}

func (s *fakeStore) MarkAnnounced(_ context.Context, guildID snowflake.ID, username, challengeName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if solve, ok := s.solves[solveKey(guildID.String(), username, challengeName)]; ok {
		solve.Announced = true
	}
	return nil
}

func (s *fakeStore) Unannounced(_ context.Context, guildID snowflake.ID) ([]*models.Solve, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var solves []*models.Solve
	for _, solve := range s.solves {
		if solve.GuildID == guildID.String() && !solve.Announced {
			clone := *solve
			solves = append(solves, &clone)
		}
	}
	sort.Slice(solves, func(i, j int) bool {
		if solves[i].Username != solves[j].Username {
			return solves[i].Username < solves[j].Username
		}
		return solves[i].ChallengeName < solves[j].ChallengeName
	})
	return solves, nil
}

func (s *fakeStore) Solvers(_ context.Context, guildID snowflake.ID, challengeName string) ([]*models.Solve, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var solves []*models.Solve
	for _, solve := range s.solves {
		if solve.GuildID == guildID.String() && solve.ChallengeName == challengeName {
			clone := *solve
			solves = append(solves, &clone)
		}
	}
	sort.Slice(solves, func(i, j int) bool {
		if solves[i].SolvedDate != solves[j].SolvedDate {
			return solves[i].SolvedDate < solves[j].SolvedDate
		}
		return solves[i].Username < solves[j].Username
	})
	return solves, nil
}

func (s *fakeStore) CountByUser(_ context.Context, guildID snowflake.ID, username string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, solve := range s.solves {
		if solve.GuildID == guildID.String() && solve.Username == username {
			count++
		}
	}
	return count, nil
}

func (s *fakeStore) GetFirstBlood(_ context.Context, guildID snowflake.ID, challengeName string) (*models.FirstBlood, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fb, ok := s.firstBloods[guildID.String()+"|"+challengeName]
	if !ok {
		return nil, nil
	}
	clone := *fb
	return &clone, nil
}

func (s *fakeStore) PutFirstBlood(_ context.Context, fb *models.FirstBlood) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fb.GuildID + "|" + fb.ChallengeName
	if _, ok := s.firstBloods[key]; ok {
		return false, nil
	}
	clone := *fb
	s.firstBloods[key] = &clone
	return true, nil
}

// fakeFetcher serves profiles from a map and records fetch order.
type fakeFetcher struct {
	mu       sync.Mutex
	profiles map[string]*cryptohack.Profile
	errs     map[string]error
	fetched  []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		profiles: make(map[string]*cryptohack.Profile),
		errs:     make(map[string]error),
	}
}

func (f *fakeFetcher) FetchProfile(_ context.Context, username string) (*cryptohack.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, username)
	if err, ok := f.errs[username]; ok {
		return nil, err
	}
	profile, ok := f.profiles[username]
	if !ok {
		return nil, fmt.Errorf("%w: %s", cryptohack.ErrUserNotFound, username)
	}
	clone := *profile
	return &clone, nil
}

func (f *fakeFetcher) setProfile(username string, score int, challenges ...cryptohack.SolvedChallenge) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[username] = &cryptohack.Profile{
		Username:         username,
		Score:            score,
		SolvedChallenges: challenges,
	}
}

func challenge(name, category string, points int) cryptohack.SolvedChallenge {
	return cryptohack.SolvedChallenge{
		Name:     name,
		Category: category,
		Points:   points,
		Date:     "2025-06-01",
	}
}
