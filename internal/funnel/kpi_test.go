package funnel_test

import (
	"math"
	"testing"

	"github.com/moreirajr/funnelboard-go/internal/funnel"
)

func TestComputeKPIs_Typical(t *testing.T) {
	// 4 contracts, 1000 spent, ticket 3000: revenue 12000, cpa 250, roi 1100%.
	k := funnel.ComputeKPIs(4, 1000, 2, 3000)

	if k.Revenue != 12000 {
		t.Errorf("revenue = %v, want 12000", k.Revenue)
	}
	if k.CPA != 250 {
		t.Errorf("cpa = %v, want 250", k.CPA)
	}
	if math.Abs(k.ROIPct-1100) > 1e-9 {
		t.Errorf("roi = %v, want 1100", k.ROIPct)
	}
	if k.CostPerProtocol != 500 {
		t.Errorf("cost per protocol = %v, want 500", k.CostPerProtocol)
	}
}

func TestComputeKPIs_NoContracts(t *testing.T) {
	// Spend without sales must report neutral zeros, not -100% ROI.
	k := funnel.ComputeKPIs(0, 500, 0, 3000)

	if k.CPA != 0 || k.Revenue != 0 || k.ROIPct != 0 {
		t.Errorf("expected zero kpis with no contracts, got %+v", k)
	}
}

func TestComputeKPIs_NoCost(t *testing.T) {
	k := funnel.ComputeKPIs(2, 0, 0, 1000)

	if k.Revenue != 2000 {
		t.Errorf("revenue = %v, want 2000", k.Revenue)
	}
	if k.CPA != 0 || k.ROIPct != 0 {
		t.Errorf("expected cpa and roi 0 without spend, got %+v", k)
	}
}

func TestComputeKPIs_NoProtocols(t *testing.T) {
	k := funnel.ComputeKPIs(1, 100, 0, 1000)

	if k.CostPerProtocol != 0 {
		t.Errorf("expected 0 without protocols, got %v", k.CostPerProtocol)
	}
}
