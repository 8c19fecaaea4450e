package warfarin

import (
	"math"
	"strings"
	"testing"
	"time"
)

// almostEqual absorbs float rounding from the percentage products.
func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestBandsTileTheINRAxis(t *testing.T) {
	all := Bands()
	if len(all) == 0 {
		t.Fatal("band table is empty")
	}

	if all[0].Low != 0 {
		t.Errorf("first band must start at 0, starts at %v", all[0].Low)
	}
	if !math.IsInf(all[len(all)-1].High, 1) {
		t.Errorf("last band must run to +inf, ends at %v", all[len(all)-1].High)
	}

	for i := range all {
		if all[i].Low >= all[i].High {
			t.Errorf("band %d is empty: [%v,%v)", i, all[i].Low, all[i].High)
		}
		if i > 0 && all[i].Low != all[i-1].High {
			t.Errorf("gap or overlap between band %d and %d: %v != %v",
				i-1, i, all[i-1].High, all[i].Low)
		}
	}
}

func TestLookupBandBoundaries(t *testing.T) {
	// Boundary values belong to the upper band (half-open intervals).
	tests := []struct {
		inr     float64
		wantLow float64
	}{
		{0, 0},
		{1.4, 0},
		{1.5, 1.5},
		{1.9, 1.5},
		{2.0, 2.0},
		{3.0, 2.0},
		{3.1, 3.1},
		{3.9, 3.1},
		{4.0, 4.0},
		{4.9, 4.0},
		{5.0, 5.0},
		{8.9, 5.0},
		{9.0, 9.0},
		{15, 9.0},
	}

	for _, tt := range tests {
		band := LookupBand(tt.inr)
		if band.Low != tt.wantLow {
			t.Errorf("INR %v: expected band starting at %v, got %v", tt.inr, tt.wantLow, band.Low)
		}
	}
}

func TestTitrateTherapeuticRange(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	rec := Titrate(Input{INR: 2.5, TWD: 28}, now)

	if rec.Bleeding {
		t.Error("bleeding flag set without bleeding")
	}
	if rec.NewWeeklyMin != 28 || rec.NewWeeklyMax != 28 {
		t.Errorf("therapeutic INR must keep the weekly dose, got [%v,%v]", rec.NewWeeklyMin, rec.NewWeeklyMax)
	}
	if rec.RecheckDays != 56 {
		t.Errorf("expected 56 day recheck, got %d", rec.RecheckDays)
	}
	want := now.AddDate(0, 0, 56)
	if !rec.RecheckDate.Equal(want) {
		t.Errorf("expected recheck on %v, got %v", want, rec.RecheckDate)
	}
}

func TestTitrateLowINRIncreasesDose(t *testing.T) {
	rec := Titrate(Input{INR: 1.2, TWD: 28}, time.Now())

	if !almostEqual(rec.NewWeeklyMin, 28*1.10) || !almostEqual(rec.NewWeeklyMax, 28*1.20) {
		t.Errorf("expected [%v,%v] mg/week, got [%v,%v]",
			28*1.10, 28*1.20, rec.NewWeeklyMin, rec.NewWeeklyMax)
	}
	if rec.RecheckDays != 7 {
		t.Errorf("expected 7 day recheck, got %d", rec.RecheckDays)
	}
}

func TestTitrateHighINRReducesDose(t *testing.T) {
	rec := Titrate(Input{INR: 6.0, TWD: 28}, time.Now())

	if !almostEqual(rec.NewWeeklyMin, 28*0.80) || !almostEqual(rec.NewWeeklyMax, 28*0.90) {
		t.Errorf("expected [%v,%v] mg/week, got [%v,%v]",
			28*0.80, 28*0.90, rec.NewWeeklyMin, rec.NewWeeklyMax)
	}
	if rec.RecheckDays != 5 {
		t.Errorf("expected 5 day recheck, got %d", rec.RecheckDays)
	}
	if !strings.Contains(rec.Action, "vitamin K1") {
		t.Errorf("expected the action to mention vitamin K1, got %q", rec.Action)
	}
}

func TestTitrateVeryHighINRHoldsDose(t *testing.T) {
	rec := Titrate(Input{INR: 10, TWD: 28}, time.Now())

	if rec.NewWeeklyMin != 0 || rec.NewWeeklyMax != 0 {
		t.Errorf("held dose must not suggest a weekly amount, got [%v,%v]", rec.NewWeeklyMin, rec.NewWeeklyMax)
	}
	if rec.RecheckDays != 2 {
		t.Errorf("expected 2 day recheck, got %d", rec.RecheckDays)
	}
}

func TestTitrateBleedingShortCircuits(t *testing.T) {
	// With bleeding the INR band is irrelevant, even a therapeutic one.
	rec := Titrate(Input{INR: 2.5, TWD: 28, Bleeding: true}, time.Now())

	if !rec.Bleeding {
		t.Error("bleeding flag not set")
	}
	if rec.Action != BleedingAction {
		t.Errorf("expected the bleeding action, got %q", rec.Action)
	}
	if rec.NewWeeklyMin != 0 || rec.NewWeeklyMax != 0 {
		t.Errorf("bleeding must not suggest a weekly dose, got [%v,%v]", rec.NewWeeklyMin, rec.NewWeeklyMax)
	}
}

func TestScreenSupplementWatchList(t *testing.T) {
	rec := Titrate(Input{INR: 2.5, TWD: 28, Supplement: "กินโสมกับน้ำมันปลา"}, time.Now())

	if len(rec.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d: %v", len(rec.Warnings), rec.Warnings)
	}
	if !strings.Contains(rec.Warnings[0], "โสม") || !strings.Contains(rec.Warnings[0], "น้ำมันปลา") {
		t.Errorf("warning should name the matched supplements, got %q", rec.Warnings[0])
	}
}

func TestScreenSupplementEnglishAlias(t *testing.T) {
	rec := Titrate(Input{INR: 2.5, TWD: 28, Supplement: "Ginkgo extract"}, time.Now())

	if len(rec.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(rec.Warnings))
	}
	if !strings.Contains(rec.Warnings[0], "แปะก๊วย") {
		t.Errorf("expected the canonical Thai name, got %q", rec.Warnings[0])
	}
}

func TestScreenUnknownSupplementGetsGenericCaution(t *testing.T) {
	rec := Titrate(Input{INR: 2.5, TWD: 28, Supplement: "คอลลาเจน"}, time.Now())

	if len(rec.Warnings) != 1 {
		t.Fatalf("expected a generic caution, got %d warnings", len(rec.Warnings))
	}
}

func TestScreenNegativeAnswersProduceNoWarnings(t *testing.T) {
	for _, answer := range []string{"ไม่", "ไม่มี", "no", "none", "-", ""} {
		rec := Titrate(Input{INR: 2.5, TWD: 28, Supplement: answer}, time.Now())
		if len(rec.Warnings) != 0 {
			t.Errorf("answer %q: expected no warnings, got %v", answer, rec.Warnings)
		}
	}
}

func TestScreenInteractingDrug(t *testing.T) {
	rec := Titrate(Input{INR: 2.5, TWD: 28, InteractingDrug: "amiodarone"}, time.Now())

	if len(rec.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(rec.Warnings))
	}
	if !strings.Contains(rec.Warnings[0], "amiodarone") {
		t.Errorf("warning should echo the drug name, got %q", rec.Warnings[0])
	}
}
