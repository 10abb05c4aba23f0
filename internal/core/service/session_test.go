package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rl1809/warehouse-slotting/internal/core/domain"
)

func newTestSessions(store *memStore) *SessionManager {
	cfg := domain.DefaultCapacityConfig()
	txm := NewTransactionManager(store, newMockCache(), cfg)
	return NewSessionManager(store, txm, cfg)
}

func seedGrid(store *memStore) {
	store.addLocation(testLoc("A01-0-1", "A", "01", 0, 2000, 0))
	store.addLocation(testLoc("A01-0-2", "A", "01", 0, 2000, 0))
	store.addLocation(testLoc("A01-1-1", "A", "01", 1, 1500, 0))
	store.addLocation(testLoc("B03-0-1", "B", "03", 0, 2000, 0))
}

func TestPlacementFlow(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	seedGrid(store)
	store.addItem(domain.Item{ID: "item-1", ReferenceCode: "PO-42", SystemCode: "FIN-2411031818-001", Weight: 500, Status: domain.ItemStatusPending})
	sessions := newTestSessions(store)

	id, err := sessions.StartPlacement(ctx, "item-1", "op-1")
	if err != nil {
		t.Fatalf("StartPlacement: %v", err)
	}

	result, err := sessions.Scan(ctx, id, "FIN-2411031818-001")
	if err != nil {
		t.Fatalf("item scan: %v", err)
	}
	if result.Phase != PhaseAwaitingLocationScan {
		t.Errorf("phase = %s, want awaiting_location_scan", result.Phase)
	}
	if result.TargetLocation != "A01-0-1" {
		t.Errorf("target = %s, want A01-0-1 (nearest empty ground slot)", result.TargetLocation)
	}

	result, err = sessions.Scan(ctx, id, "A01-0-1")
	if err != nil {
		t.Fatalf("location scan: %v", err)
	}
	if !result.Done {
		t.Error("result.Done = false after the confirming scan")
	}

	item := store.item("item-1")
	if item.Status != domain.ItemStatusPlaced || item.Location != "A01-0-1" {
		t.Errorf("item = %+v, want placed at A01-0-1", item)
	}
	if got := store.location("A01-0-1").CurrentWeight; got != 500 {
		t.Errorf("location weight = %g, want 500", got)
	}

	// The session is gone once its commit lands.
	if _, err := sessions.Scan(ctx, id, "anything"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("scan after done: err = %v, want ErrNotFound", err)
	}
}

func TestPlacementScan_WrongItemCode(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	seedGrid(store)
	store.addItem(domain.Item{ID: "item-1", ReferenceCode: "PO-42", SystemCode: "FIN-2411031818-001", Weight: 500, Status: domain.ItemStatusPending})
	sessions := newTestSessions(store)

	id, _ := sessions.StartPlacement(ctx, "item-1", "op-1")

	// Scanning the reference code instead of the system code must not
	// advance the session or touch anything.
	result, err := sessions.Scan(ctx, id, "PO-42")
	if !errors.Is(err, domain.ErrCodeMismatch) {
		t.Fatalf("err = %v, want ErrCodeMismatch", err)
	}
	if result.Phase != PhaseAwaitingItemScan {
		t.Errorf("phase = %s, want awaiting_item_scan", result.Phase)
	}
	if store.movementCount() != 0 {
		t.Error("mismatched scan wrote a movement")
	}

	// The right code still works afterwards.
	result, err = sessions.Scan(ctx, id, "FIN-2411031818-001")
	if err != nil {
		t.Fatalf("retry with correct code: %v", err)
	}
	if result.Phase != PhaseAwaitingLocationScan {
		t.Errorf("phase = %s after retry, want awaiting_location_scan", result.Phase)
	}
}

func TestPlacementScan_WrongLocationCode(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	seedGrid(store)
	store.addItem(domain.Item{ID: "item-1", SystemCode: "FIN-2411031818-001", Weight: 500, Status: domain.ItemStatusPending})
	sessions := newTestSessions(store)

	id, _ := sessions.StartPlacement(ctx, "item-1", "op-1")
	if _, err := sessions.Scan(ctx, id, "FIN-2411031818-001"); err != nil {
		t.Fatal(err)
	}

	result, err := sessions.Scan(ctx, id, "B03-0-1")
	if !errors.Is(err, domain.ErrCodeMismatch) {
		t.Fatalf("err = %v, want ErrCodeMismatch for the wrong slot", err)
	}
	if result.Phase != PhaseAwaitingLocationScan || result.TargetLocation != "A01-0-1" {
		t.Errorf("result = %+v, want unchanged phase and target", result)
	}
	if got := store.location("B03-0-1").CurrentWeight; got != 0 {
		t.Errorf("B03-0-1 weight = %g, wrong slot was written", got)
	}
}

func TestPlacementScan_NoCapacity(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addLocation(testLoc("A01-0-1", "A", "01", 0, 2000, 2000))
	store.addItem(domain.Item{ID: "item-1", SystemCode: "FIN-2411031818-001", Weight: 500, Status: domain.ItemStatusPending})
	sessions := newTestSessions(store)

	id, _ := sessions.StartPlacement(ctx, "item-1", "op-1")

	result, err := sessions.Scan(ctx, id, "FIN-2411031818-001")
	if !errors.Is(err, domain.ErrNoCapacity) {
		t.Fatalf("err = %v, want ErrNoCapacity", err)
	}
	if result.Phase != PhaseAwaitingItemScan {
		t.Errorf("phase = %s, session advanced with nowhere to go", result.Phase)
	}

	// Capacity can appear later; the same session picks it up.
	store.addLocation(testLoc("A02-0-1", "A", "02", 0, 2000, 0))
	result, err = sessions.Scan(ctx, id, "FIN-2411031818-001")
	if err != nil {
		t.Fatalf("rescan after capacity freed: %v", err)
	}
	if result.TargetLocation != "A02-0-1" {
		t.Errorf("target = %s, want A02-0-1", result.TargetLocation)
	}
}

// A commit that fails downstream leaves the session at the location
// phase so the operator can rescan once the cause clears.
func TestPlacementScan_CommitFailureIsRetryable(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	seedGrid(store)
	store.addItem(domain.Item{ID: "item-1", SystemCode: "FIN-2411031818-001", Weight: 500, Status: domain.ItemStatusPending})
	sessions := newTestSessions(store)

	id, _ := sessions.StartPlacement(ctx, "item-1", "op-1")
	if _, err := sessions.Scan(ctx, id, "FIN-2411031818-001"); err != nil {
		t.Fatal(err)
	}

	store.failAppendMovement = true
	result, err := sessions.Scan(ctx, id, "A01-0-1")
	if err == nil {
		t.Fatal("expected the commit to fail")
	}
	if result.Phase != PhaseAwaitingLocationScan {
		t.Errorf("phase = %s, want awaiting_location_scan kept", result.Phase)
	}
	if got := store.item("item-1").Status; got != domain.ItemStatusPending {
		t.Errorf("item status = %s, failed commit leaked a write", got)
	}

	result, err = sessions.Scan(ctx, id, "A01-0-1")
	if err != nil {
		t.Fatalf("retry scan: %v", err)
	}
	if !result.Done {
		t.Error("retry did not complete the session")
	}
}

func TestRetrievalFlow(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addLocation(testLoc("B03-0-1", "B", "03", 0, 2000, 800))
	store.addItem(domain.Item{ID: "item-1", ReferenceCode: "SO-17", SystemCode: "PKG-2411031818-001", Weight: 800, Status: domain.ItemStatusPlaced, Location: "B03-0-1"})
	sessions := newTestSessions(store)

	id, err := sessions.StartRetrieval(ctx, "item-1", "op-2")
	if err != nil {
		t.Fatalf("StartRetrieval: %v", err)
	}

	// Picking verifies the reference code, not the system code.
	if _, err := sessions.Scan(ctx, id, "PKG-2411031818-001"); !errors.Is(err, domain.ErrCodeMismatch) {
		t.Errorf("system code on a pick: err = %v, want ErrCodeMismatch", err)
	}

	result, err := sessions.Scan(ctx, id, "SO-17")
	if err != nil {
		t.Fatalf("reference scan: %v", err)
	}
	if result.TargetLocation != "B03-0-1" {
		t.Errorf("target = %s, want the item's recorded location", result.TargetLocation)
	}

	result, err = sessions.Scan(ctx, id, "B03-0-1")
	if err != nil {
		t.Fatalf("location scan: %v", err)
	}
	if !result.Done {
		t.Error("result.Done = false")
	}

	item := store.item("item-1")
	if item.Status != domain.ItemStatusRemoved || item.Location != "" {
		t.Errorf("item = %+v, want removed", item)
	}
	if got := store.location("B03-0-1").CurrentWeight; got != 0 {
		t.Errorf("location weight = %g, want 0", got)
	}
}

func TestCancelHasNoSideEffects(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	seedGrid(store)
	store.addItem(domain.Item{ID: "item-1", SystemCode: "FIN-2411031818-001", Weight: 500, Status: domain.ItemStatusPending})
	sessions := newTestSessions(store)

	id, _ := sessions.StartPlacement(ctx, "item-1", "op-1")
	if _, err := sessions.Scan(ctx, id, "FIN-2411031818-001"); err != nil {
		t.Fatal(err)
	}

	if err := sessions.Cancel(id); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got := store.item("item-1").Status; got != domain.ItemStatusPending {
		t.Errorf("item status = %s, cancel wrote state", got)
	}
	if got := store.location("A01-0-1").CurrentWeight; got != 0 {
		t.Errorf("location weight = %g, cancel wrote state", got)
	}
	if store.movementCount() != 0 {
		t.Error("cancel appended a movement")
	}

	if err := sessions.Cancel(id); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second cancel: err = %v, want ErrNotFound", err)
	}
}

func TestStartRejectsWrongLifecycleState(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addItem(domain.Item{ID: "placed", SystemCode: "ITM-2411031818-001", Weight: 10, Status: domain.ItemStatusPlaced, Location: "A01-0-1"})
	store.addItem(domain.Item{ID: "pending", SystemCode: "ITM-2411031818-002", Weight: 10, Status: domain.ItemStatusPending})
	store.addItem(domain.Item{ID: "removed", SystemCode: "ITM-2411031818-003", Weight: 10, Status: domain.ItemStatusRemoved})
	sessions := newTestSessions(store)

	for _, id := range []string{"placed", "removed"} {
		if _, err := sessions.StartPlacement(ctx, id, "op"); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("StartPlacement(%s): err = %v, want ErrValidation", id, err)
		}
	}
	for _, id := range []string{"pending", "removed"} {
		if _, err := sessions.StartRetrieval(ctx, id, "op"); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("StartRetrieval(%s): err = %v, want ErrValidation", id, err)
		}
	}
	if _, err := sessions.StartPlacement(ctx, "ghost", "op"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("StartPlacement(ghost): err = %v, want ErrNotFound", err)
	}
}
