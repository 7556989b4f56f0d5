package mmr

import (
	"math"

	"github.com/okian/mmr/internal/domain/model"
)

// Scaling constants for the layered adjustments.
const (
	muWeight        = 5.0
	sigmaWeight     = 1.5
	winPerfFactor   = 8.0
	lossPerfFactor  = 5.0
	maxPerfAdjust   = 10.0
	balanceDeadZone = 3.0
	minBalance      = 0.5
	maxBalance      = 1.8
	carryDeadZone   = 0.4
	minWinnerDelta  = 2
	maxWinnerDelta  = 40
	minLoserDelta   = -40
	maxLoserDelta   = -2
	neutralBalance  = 1.0
	upsetBase       = 1.3
	upsetBonusCap   = 0.4
	upsetDivisor    = 10.0
	expectedBase    = 0.8
	expectedCutCap  = 0.2
	expectedDivisor = 15.0
)

// Quadrant classifies a carry adjustment by individual contribution and outcome.
type Quadrant string

const (
	QuadrantNone               Quadrant = "none"
	QuadrantOutperformedLoss   Quadrant = "outperformed_loss"
	QuadrantOutperformedWin    Quadrant = "outperformed_win"
	QuadrantUnderperformedWin  Quadrant = "underperformed_win"
	QuadrantUnderperformedLoss Quadrant = "underperformed_loss"
)

// BaseChange converts a rating update into raw MMR points. Only sigma
// shrinkage counts; a growing sigma contributes nothing.
func BaseChange(old, updated model.Rating) float64 {
	return (updated.Mu-old.Mu)*muWeight + math.Max(0, old.Sigma-updated.Sigma)*sigmaWeight
}

// PerformanceAdjustment rewards or penalizes individual performance, damped
// by team size so one player's influence shrinks in larger teams.
func PerformanceAdjustment(score float64, won bool, teamSize int) float64 {
	if teamSize < 1 {
		teamSize = 1
	}
	k := lossPerfFactor
	if won {
		k = winPerfFactor
	}
	adj := (score - 1) * k / math.Sqrt(float64(teamSize))
	return clamp(adj, -maxPerfAdjust, maxPerfAdjust)
}

// BalanceFactor scales the delta by how expected the outcome was, judged by
// the difference of the two teams' average pre-match mu.
func BalanceFactor(ownMu, opponentMu float64, won bool) float64 {
	d := math.Abs(ownMu - opponentMu)
	if d <= balanceDeadZone {
		return neutralBalance
	}
	favored := ownMu > opponentMu
	var f float64
	if won != favored {
		f = upsetBase + math.Min(upsetBonusCap, d/upsetDivisor)
	} else {
		f = expectedBase - math.Min(expectedCutCap, d/expectedDivisor)
	}
	return clamp(f, minBalance, maxBalance)
}

// CarryAdjustment turns the gap between a player's score and the mean score
// of their teammates into MMR points.
func CarryAdjustment(diff float64, won bool) (int, Quadrant) {
	if math.Abs(diff) < carryDeadZone {
		return 0, QuadrantNone
	}
	var (
		v float64
		q Quadrant
	)
	switch {
	case diff > 0 && !won:
		v, q = math.Min(18, diff*12), QuadrantOutperformedLoss
	case diff > 0:
		v, q = math.Min(8, diff*4), QuadrantOutperformedWin
	case won:
		v, q = math.Max(-12, diff*8), QuadrantUnderperformedWin
	default:
		v, q = math.Max(-10, diff*6), QuadrantUnderperformedLoss
	}
	return int(math.Round(v)), q
}

// ClampDelta keeps winners strictly positive and losers strictly negative.
func ClampDelta(delta int, won bool) int {
	if won {
		return min(max(delta, minWinnerDelta), maxWinnerDelta)
	}
	return min(max(delta, minLoserDelta), maxLoserDelta)
}

// FinalMMR applies delta to previous, flooring the result at zero.
func FinalMMR(previous, delta int) int {
	return max(0, previous+delta)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
