package memory

import (
	"context"
	"sync"

	"github.com/mcoot/matchmaker/internal/model"
	"github.com/mcoot/matchmaker/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	namespaces       map[model.NamespaceID]*model.Namespace
	versions         map[model.VersionID]*model.Version
	gameModeVersions map[model.GameModeID]model.VersionID
	regions          map[model.RegionID]*model.Region
	regionNames      map[string]model.RegionID
	sessions         map[model.SessionID]*model.Session
	nsSessions       map[model.NamespaceID]map[model.SessionID]struct{}
	playerCounts     map[model.SessionID]int
	runs             map[model.RunID]*model.Run
	publicTokens     map[string]*model.PublicToken
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		namespaces:       make(map[model.NamespaceID]*model.Namespace),
		versions:         make(map[model.VersionID]*model.Version),
		gameModeVersions: make(map[model.GameModeID]model.VersionID),
		regions:          make(map[model.RegionID]*model.Region),
		regionNames:      make(map[string]model.RegionID),
		sessions:         make(map[model.SessionID]*model.Session),
		nsSessions:       make(map[model.NamespaceID]map[model.SessionID]struct{}),
		playerCounts:     make(map[model.SessionID]int),
		runs:             make(map[model.RunID]*model.Run),
		publicTokens:     make(map[string]*model.PublicToken),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Namespace and version operations

func (s *Storage) SaveNamespace(ctx context.Context, ns *model.Namespace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *ns
	s.namespaces[ns.ID] = &cp
	return nil
}

func (s *Storage) GetNamespace(ctx context.Context, id model.NamespaceID) (*model.Namespace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ns, ok := s.namespaces[id]
	if !ok {
		return nil, model.ErrNamespaceNotFound
	}
	cp := *ns
	return &cp, nil
}

func (s *Storage) SaveVersion(ctx context.Context, version *model.Version) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions[version.ID] = version
	for _, gm := range version.GameModes {
		s.gameModeVersions[gm.ID] = version.ID
	}
	return nil
}

func (s *Storage) GetVersion(ctx context.Context, id model.VersionID) (*model.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	version, ok := s.versions[id]
	if !ok {
		return nil, model.ErrVersionNotFound
	}
	return version, nil
}

func (s *Storage) ResolveGameModeVersion(ctx context.Context, id model.GameModeID) (model.VersionID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	versionID, ok := s.gameModeVersions[id]
	if !ok {
		return "", model.ErrVersionNotFound
	}
	return versionID, nil
}

// Region operations

func (s *Storage) SaveRegion(ctx context.Context, region *model.Region) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *region
	s.regions[region.ID] = &cp
	s.regionNames[region.NameID] = region.ID
	return nil
}

func (s *Storage) GetRegions(ctx context.Context, ids []model.RegionID) ([]*model.Region, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	regions := make([]*model.Region, 0, len(ids))
	for _, id := range ids {
		if r, ok := s.regions[id]; ok {
			cp := *r
			regions = append(regions, &cp)
		}
	}
	return regions, nil
}

func (s *Storage) ResolveRegionNames(ctx context.Context, names []string) ([]*model.Region, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	regions := make([]*model.Region, 0, len(names))
	for _, name := range names {
		id, ok := s.regionNames[name]
		if !ok {
			continue
		}
		cp := *s.regions[id]
		regions = append(regions, &cp)
	}
	return regions, nil
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *session
	s.sessions[session.ID] = &cp
	if s.nsSessions[session.NamespaceID] == nil {
		s.nsSessions[session.NamespaceID] = make(map[model.SessionID]struct{})
	}
	s.nsSessions[session.NamespaceID][session.ID] = struct{}{}
	return nil
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok || session.IsStopped() {
		return nil, model.ErrSessionNotFound
	}
	cp := *session
	return &cp, nil
}

func (s *Storage) GetSessions(ctx context.Context, ids []model.SessionID) ([]*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessions := make([]*model.Session, 0, len(ids))
	for _, id := range ids {
		session, ok := s.sessions[id]
		if !ok || session.IsStopped() {
			continue
		}
		cp := *session
		sessions = append(sessions, &cp)
	}
	return sessions, nil
}

func (s *Storage) ListSessionIDs(ctx context.Context, ns model.NamespaceID) ([]model.SessionID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]model.SessionID, 0, len(s.nsSessions[ns]))
	for id := range s.nsSessions[ns] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Storage) DeleteSession(ctx context.Context, id model.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[id]; ok {
		delete(s.nsSessions[session.NamespaceID], id)
	}
	delete(s.sessions, id)
	delete(s.playerCounts, id)
	return nil
}

// Player count operations

func (s *Storage) SetPlayerCount(ctx context.Context, id model.SessionID, registered int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playerCounts[id] = registered
	return nil
}

func (s *Storage) GetPlayerCounts(ctx context.Context, ids []model.SessionID) (map[model.SessionID]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[model.SessionID]int, len(ids))
	for _, id := range ids {
		counts[id] = s.playerCounts[id]
	}
	return counts, nil
}

// Run operations

func (s *Storage) SaveRun(ctx context.Context, run *model.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
	return nil
}

func (s *Storage) GetRun(ctx context.Context, id model.RunID) (*model.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, model.ErrRunNotFound
	}
	return run, nil
}

// Public token operations

func (s *Storage) SavePublicToken(ctx context.Context, token *model.PublicToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *token
	s.publicTokens[token.ID] = &cp
	return nil
}

func (s *Storage) GetPublicToken(ctx context.Context, id string) (*model.PublicToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.publicTokens[id]
	if !ok {
		return nil, model.ErrPublicTokenNotFound
	}
	cp := *token
	return &cp, nil
}
