package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/rl1809/warehouse-slotting/internal/core/domain"
	"github.com/rl1809/warehouse-slotting/internal/core/planner"
	"github.com/rl1809/warehouse-slotting/internal/port"
)

type Phase int

const (
	// PhaseAwaitingItemScan: the operator must scan the item's barcode
	// (system code when placing, reference code when picking).
	PhaseAwaitingItemScan Phase = iota
	// PhaseAwaitingLocationScan: the operator must scan the target
	// location's code to confirm they are standing at it.
	PhaseAwaitingLocationScan
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingItemScan:
		return "awaiting_item_scan"
	case PhaseAwaitingLocationScan:
		return "awaiting_location_scan"
	default:
		return "unknown"
	}
}

// ScanResult is what a successful scan advances to.
type ScanResult struct {
	Phase          Phase
	TargetLocation string // set once the location to scan is known
	Done           bool   // the commit went through; the session is over
	Message        string
}

// ConfirmationSession walks one item through the two-scan verification
// protocol. One parameterized machine covers both directions: placement
// verifies the system code then a planner suggestion, retrieval
// verifies the reference code then the item's recorded location.
//
// A failed scan never advances the phase and never touches stored data;
// all writes happen in the single commit at the end of the second scan.
type ConfirmationSession struct {
	mu         sync.Mutex
	direction  domain.Direction
	item       domain.Item
	phase      Phase
	targetCode string
	done       bool
	operator   string

	store port.Store
	txm   *TransactionManager
	cfg   domain.CapacityConfig
}

// Scan feeds one scanned code into the session.
//
// Mismatched codes return domain.ErrCodeMismatch and leave the phase
// unchanged. A placement scan that matches but finds no eligible slot
// returns domain.ErrNoCapacity, also without advancing. Commit failures
// keep the session at PhaseAwaitingLocationScan so the operator can
// retry the same scan once the cause clears.
func (s *ConfirmationSession) Scan(ctx context.Context, code string) (ScanResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return ScanResult{}, fmt.Errorf("%w: session already completed", domain.ErrValidation)
	}

	switch s.phase {
	case PhaseAwaitingItemScan:
		return s.scanItem(ctx, code)
	case PhaseAwaitingLocationScan:
		return s.scanLocation(ctx, code)
	default:
		return ScanResult{}, fmt.Errorf("%w: unknown phase", domain.ErrValidation)
	}
}

func (s *ConfirmationSession) scanItem(ctx context.Context, code string) (ScanResult, error) {
	expected := s.item.SystemCode
	if s.direction == domain.DirectionOut {
		expected = s.item.ReferenceCode
	}
	if code != expected {
		return ScanResult{Phase: s.phase}, fmt.Errorf("%w: scanned %q does not identify this item", domain.ErrCodeMismatch, code)
	}

	if s.direction == domain.DirectionOut {
		s.targetCode = s.item.Location
	} else {
		locations, err := s.store.ListLocations(ctx, port.LocationFilter{})
		if err != nil {
			return ScanResult{Phase: s.phase}, fmt.Errorf("list locations: %w", err)
		}
		best := planner.FindOptimalLocation(locations, s.item.Weight, s.cfg)
		if best == nil {
			return ScanResult{Phase: s.phase}, fmt.Errorf("%w: no slot for %gkg", domain.ErrNoCapacity, s.item.Weight)
		}
		s.targetCode = best.Code
	}

	s.phase = PhaseAwaitingLocationScan
	return ScanResult{
		Phase:          s.phase,
		TargetLocation: s.targetCode,
		Message:        fmt.Sprintf("scan location %s", s.targetCode),
	}, nil
}

func (s *ConfirmationSession) scanLocation(ctx context.Context, code string) (ScanResult, error) {
	if code != s.targetCode {
		return ScanResult{Phase: s.phase, TargetLocation: s.targetCode},
			fmt.Errorf("%w: expected location %s", domain.ErrCodeMismatch, s.targetCode)
	}

	var err error
	if s.direction == domain.DirectionIn {
		_, err = s.txm.CommitPlacement(ctx, s.item.ID, s.targetCode, s.operator, "")
	} else {
		_, err = s.txm.CommitRemoval(ctx, s.item.ID, s.operator, "")
	}
	if err != nil {
		// Phase stays put; the item and all locations are untouched.
		return ScanResult{Phase: s.phase, TargetLocation: s.targetCode}, err
	}

	s.done = true
	verb := "placed at"
	if s.direction == domain.DirectionOut {
		verb = "picked from"
	}
	return ScanResult{
		Phase:          s.phase,
		TargetLocation: s.targetCode,
		Done:           true,
		Message:        fmt.Sprintf("item %s %s %s", s.item.ReferenceCode, verb, s.targetCode),
	}, nil
}

// Cancel abandons the session. No item or location state has been
// written before the final commit, so cancelling is always free.
func (s *ConfirmationSession) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
}

// SessionManager keys live confirmation sessions by id for the operator
// API. Absence of a session is the idle state; selecting an item starts
// one at PhaseAwaitingItemScan.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*ConfirmationSession

	store port.Store
	txm   *TransactionManager
	cfg   domain.CapacityConfig
}

func NewSessionManager(store port.Store, txm *TransactionManager, cfg domain.CapacityConfig) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*ConfirmationSession),
		store:    store,
		txm:      txm,
		cfg:      cfg,
	}
}

// StartPlacement opens a confirmation session for a pending item.
func (m *SessionManager) StartPlacement(ctx context.Context, itemID, operator string) (string, error) {
	item, err := m.loadItem(ctx, itemID)
	if err != nil {
		return "", err
	}
	if item.Status != domain.ItemStatusPending {
		return "", fmt.Errorf("%w: item %s is %s, only pending items can be placed",
			domain.ErrValidation, item.SystemCode, item.Status)
	}
	return m.add(domain.DirectionIn, *item, operator), nil
}

// StartRetrieval opens a confirmation session for a placed item.
func (m *SessionManager) StartRetrieval(ctx context.Context, itemID, operator string) (string, error) {
	item, err := m.loadItem(ctx, itemID)
	if err != nil {
		return "", err
	}
	if item.Status != domain.ItemStatusPlaced || item.Location == "" {
		return "", fmt.Errorf("%w: item %s is %s, only placed items can be picked",
			domain.ErrValidation, item.SystemCode, item.Status)
	}
	return m.add(domain.DirectionOut, *item, operator), nil
}

func (m *SessionManager) loadItem(ctx context.Context, itemID string) (*domain.Item, error) {
	item, err := m.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: item %s", domain.ErrNotFound, itemID)
	}
	return item, nil
}

func (m *SessionManager) add(direction domain.Direction, item domain.Item, operator string) string {
	session := &ConfirmationSession{
		direction: direction,
		item:      item,
		phase:     PhaseAwaitingItemScan,
		operator:  operator,
		store:     m.store,
		txm:       m.txm,
		cfg:       m.cfg,
	}
	id := uuid.NewString()
	m.mu.Lock()
	m.sessions[id] = session
	m.mu.Unlock()
	return id
}

// Scan routes a scanned code to its session, dropping the session once
// its commit completes.
func (m *SessionManager) Scan(ctx context.Context, sessionID, code string) (ScanResult, error) {
	m.mu.RLock()
	session, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return ScanResult{}, fmt.Errorf("%w: session %s", domain.ErrNotFound, sessionID)
	}

	result, err := session.Scan(ctx, code)
	if result.Done {
		m.mu.Lock()
		delete(m.sessions, sessionID)
		m.mu.Unlock()
	}
	return result, err
}

// Cancel abandons and removes a session with no side effects.
func (m *SessionManager) Cancel(sessionID string) error {
	m.mu.Lock()
	session, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: session %s", domain.ErrNotFound, sessionID)
	}
	session.Cancel()
	return nil
}
