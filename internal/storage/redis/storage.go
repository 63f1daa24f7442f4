package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/matchmaker/internal/model"
	"github.com/mcoot/matchmaker/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
	keys   keyspace
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultConfig().KeyPrefix
	}
	return &Storage{
		client: client,
		cfg:    cfg,
		keys:   keyspace{prefix: cfg.KeyPrefix},
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// getJSON loads key into dst, returning notFound if the key is missing
func (s *Storage) getJSON(ctx context.Context, key string, dst any, notFound error) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return notFound
		}
		return err
	}
	return json.Unmarshal(data, dst)
}

// mgetJSON loads every existing key, skipping missing ones
func mgetJSON[T any](ctx context.Context, client *redis.Client, keys []string) ([]*T, error) {
	if len(keys) == 0 {
		return []*T{}, nil
	}

	values, err := client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*T, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue // Missing or expired
		}
		var item T
		if err := json.Unmarshal([]byte(str), &item); err != nil {
			return nil, err
		}
		out = append(out, &item)
	}
	return out, nil
}

// Namespace and version operations

func (s *Storage) SaveNamespace(ctx context.Context, ns *model.Namespace) error {
	data, err := json.Marshal(ns)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.keys.namespaceKey(ns.ID), data, 0).Err()
}

func (s *Storage) GetNamespace(ctx context.Context, id model.NamespaceID) (*model.Namespace, error) {
	var ns model.Namespace
	if err := s.getJSON(ctx, s.keys.namespaceKey(id), &ns, model.ErrNamespaceNotFound); err != nil {
		return nil, err
	}
	return &ns, nil
}

func (s *Storage) SaveVersion(ctx context.Context, version *model.Version) error {
	data, err := json.Marshal(version)
	if err != nil {
		return err
	}

	// Save the version and point each of its game modes at it
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.keys.versionKey(version.ID), data, 0)
	for _, gm := range version.GameModes {
		pipe.Set(ctx, s.keys.gameModeVersionKey(gm.ID), string(version.ID), 0)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetVersion(ctx context.Context, id model.VersionID) (*model.Version, error) {
	var version model.Version
	if err := s.getJSON(ctx, s.keys.versionKey(id), &version, model.ErrVersionNotFound); err != nil {
		return nil, err
	}
	return &version, nil
}

func (s *Storage) ResolveGameModeVersion(ctx context.Context, id model.GameModeID) (model.VersionID, error) {
	versionID, err := s.client.Get(ctx, s.keys.gameModeVersionKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", model.ErrVersionNotFound
		}
		return "", err
	}
	return model.VersionID(versionID), nil
}

// Region operations

func (s *Storage) SaveRegion(ctx context.Context, region *model.Region) error {
	data, err := json.Marshal(region)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.keys.regionKey(region.ID), data, 0)
	pipe.Set(ctx, s.keys.regionNameIndexKey(region.NameID), string(region.ID), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRegions(ctx context.Context, ids []model.RegionID) ([]*model.Region, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.keys.regionKey(id)
	}
	return mgetJSON[model.Region](ctx, s.client, keys)
}

func (s *Storage) ResolveRegionNames(ctx context.Context, names []string) ([]*model.Region, error) {
	if len(names) == 0 {
		return []*model.Region{}, nil
	}

	indexKeys := make([]string, len(names))
	for i, name := range names {
		indexKeys[i] = s.keys.regionNameIndexKey(name)
	}
	values, err := s.client.MGet(ctx, indexKeys...).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]model.RegionID, 0, len(values))
	for _, val := range values {
		if id, ok := val.(string); ok {
			ids = append(ids, model.RegionID(id))
		}
	}
	return s.GetRegions(ctx, ids)
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	indexKey := s.keys.namespaceSessionsIndexKey(session.NamespaceID)

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.keys.sessionKey(session.ID), data, s.cfg.SessionTTL)
	pipe.SAdd(ctx, indexKey, string(session.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	var session model.Session
	if err := s.getJSON(ctx, s.keys.sessionKey(id), &session, model.ErrSessionNotFound); err != nil {
		return nil, err
	}
	if session.IsStopped() {
		return nil, model.ErrSessionNotFound
	}
	return &session, nil
}

func (s *Storage) GetSessions(ctx context.Context, ids []model.SessionID) ([]*model.Session, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.keys.sessionKey(id)
	}
	sessions, err := mgetJSON[model.Session](ctx, s.client, keys)
	if err != nil {
		return nil, err
	}

	running := sessions[:0]
	for _, session := range sessions {
		if !session.IsStopped() {
			running = append(running, session)
		}
	}
	return running, nil
}

func (s *Storage) ListSessionIDs(ctx context.Context, ns model.NamespaceID) ([]model.SessionID, error) {
	members, err := s.client.SMembers(ctx, s.keys.namespaceSessionsIndexKey(ns)).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]model.SessionID, len(members))
	for i, m := range members {
		ids[i] = model.SessionID(m)
	}
	return ids, nil
}

func (s *Storage) DeleteSession(ctx context.Context, id model.SessionID) error {
	session, err := s.GetSession(ctx, id)
	if err != nil && !errors.Is(err, model.ErrSessionNotFound) {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.keys.sessionKey(id), s.keys.playerCountKey(id))
	if session != nil {
		pipe.SRem(ctx, s.keys.namespaceSessionsIndexKey(session.NamespaceID), string(id))
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Player count operations

func (s *Storage) SetPlayerCount(ctx context.Context, id model.SessionID, registered int) error {
	return s.client.Set(ctx, s.keys.playerCountKey(id), registered, s.cfg.SessionTTL).Err()
}

func (s *Storage) GetPlayerCounts(ctx context.Context, ids []model.SessionID) (map[model.SessionID]int, error) {
	counts := make(map[model.SessionID]int, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.keys.playerCountKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	for i, val := range values {
		str, ok := val.(string)
		if !ok {
			counts[ids[i]] = 0
			continue
		}
		n, err := strconv.Atoi(str)
		if err != nil {
			return nil, err
		}
		counts[ids[i]] = n
	}
	return counts, nil
}

// Run operations

func (s *Storage) SaveRun(ctx context.Context, run *model.Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.keys.runKey(run.ID), data, s.cfg.SessionTTL).Err()
}

func (s *Storage) GetRun(ctx context.Context, id model.RunID) (*model.Run, error) {
	var run model.Run
	if err := s.getJSON(ctx, s.keys.runKey(id), &run, model.ErrRunNotFound); err != nil {
		return nil, err
	}
	return &run, nil
}

// Public token operations

func (s *Storage) SavePublicToken(ctx context.Context, token *model.PublicToken) error {
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.keys.publicTokenKey(token.ID), data, 0).Err()
}

func (s *Storage) GetPublicToken(ctx context.Context, id string) (*model.PublicToken, error) {
	var token model.PublicToken
	if err := s.getJSON(ctx, s.keys.publicTokenKey(id), &token, model.ErrPublicTokenNotFound); err != nil {
		return nil, err
	}
	return &token, nil
}
