package pvp

import (
	"testing"

	"go.uber.org/zap"

	"github.com/wyrmwatch/core/internal/entitymodel"
)

func TestMatchmakerBatchesOnlyWhenBothQueuesFull(t *testing.T) {
	mm := NewMatchmaker(2, 100, []int32{1, 2, 3}, zap.NewNop())
	mm.Enqueue(entitymodel.NewGUID(entitymodel.TypePlayer, 1), FactionExile)
	if bg := mm.TryBatch(); bg != nil {
		t.Fatal("should not batch with only one side queued")
	}
	mm.Enqueue(entitymodel.NewGUID(entitymodel.TypePlayer, 2), FactionExile)
	mm.Enqueue(entitymodel.NewGUID(entitymodel.TypePlayer, 3), FactionDominion)
	mm.Enqueue(entitymodel.NewGUID(entitymodel.TypePlayer, 4), FactionDominion)

	bg := mm.TryBatch()
	if bg == nil {
		t.Fatal("expected a batched battleground")
	}
	exile, dominion := bg.RosterSize()
	if exile != 2 || dominion != 2 {
		t.Fatalf("roster sizes = (%d,%d), want (2,2)", exile, dominion)
	}
}

func TestCaptureObjectiveAwardsPointsOnce(t *testing.T) {
	bg := NewBattleground(1, []int32{10}, zap.NewNop())
	bg.CaptureObjective(10, FactionExile, 5)
	bg.CaptureObjective(10, FactionExile, 5) // already owned, no-op
	score := bg.Score()
	if score[FactionExile] != 5 {
		t.Fatalf("score = %d, want 5", score[FactionExile])
	}
}
