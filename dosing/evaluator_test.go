package dosing

import (
	"math"
	"testing"

	"github.com/nonthapat/dosebot-api/formulary/entities"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func rangePtr(min, max float64) *entities.Range {
	return &entities.Range{Min: min, Max: max}
}

func scalarPtr(v float64) *entities.Range {
	return &entities.Range{Min: v, Max: v}
}

func freqPtr(min, max int) *entities.IntRange {
	return &entities.IntRange{Min: min, Max: max}
}

func TestEvaluateWeightBasedRegimen(t *testing.T) {
	// Amoxicillin 250 mg/5 mL for a 20 kg child at 50 mg/kg/day in two
	// doses for ten days, capped at 1000 mg/day.
	drug := &entities.Drug{
		Name:                 "Amoxicillin",
		ConcentrationMgPerMl: 50,
		BottleSizeMl:         60,
	}
	reg := &entities.Regimen{
		PerKgPerDay:  scalarPtr(50),
		Frequency:    freqPtr(2, 2),
		DurationDays: scalarPtr(10),
		MaxMgPerDay:  1000,
	}

	result, err := Evaluate(drug, "Pharyngitis", reg, 20)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if len(result.Phases) != 1 {
		t.Fatalf("expected 1 phase, got %d", len(result.Phases))
	}
	p := result.Phases[0]

	if !almostEqual(p.MgPerDay.Min, 1000) || !almostEqual(p.MgPerDay.Max, 1000) {
		t.Errorf("expected 1000 mg/day, got [%v,%v]", p.MgPerDay.Min, p.MgPerDay.Max)
	}
	if !almostEqual(p.MlPerDay.Min, 20) || !almostEqual(p.MlPerDay.Max, 20) {
		t.Errorf("expected 20 mL/day, got [%v,%v]", p.MlPerDay.Min, p.MlPerDay.Max)
	}
	if !almostEqual(p.MlPerDose.Min, 10) || !almostEqual(p.MlPerDose.Max, 10) {
		t.Errorf("expected 10 mL/dose, got [%v,%v]", p.MlPerDose.Min, p.MlPerDose.Max)
	}
	if !almostEqual(result.TotalMl.Max, 200) {
		t.Errorf("expected 200 mL total, got %v", result.TotalMl.Max)
	}
	if result.BottleCount != 4 {
		t.Errorf("expected 4 bottles of 60 mL, got %d", result.BottleCount)
	}
}

func TestEvaluateDailyCapApplies(t *testing.T) {
	drug := &entities.Drug{
		Name:                 "Amoxicillin",
		ConcentrationMgPerMl: 50,
		BottleSizeMl:         60,
	}
	reg := &entities.Regimen{
		PerKgPerDay:  scalarPtr(50),
		Frequency:    freqPtr(2, 2),
		DurationDays: scalarPtr(10),
		MaxMgPerDay:  1000,
	}

	// A 40 kg child computes to 2000 mg/day, which the cap halves.
	result, err := Evaluate(drug, "Pharyngitis", reg, 40)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	p := result.Phases[0]
	if !almostEqual(p.MgPerDay.Min, 1000) || !almostEqual(p.MgPerDay.Max, 1000) {
		t.Errorf("cap not applied: got [%v,%v] mg/day", p.MgPerDay.Min, p.MgPerDay.Max)
	}

	// The capped child never receives more than a lighter child at the
	// same cap boundary.
	lighter, err := Evaluate(drug, "Pharyngitis", reg, 20)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if p.MgPerDay.Max > lighter.Phases[0].MgPerDay.Max+epsilon {
		t.Errorf("heavier child exceeds cap: %v > %v", p.MgPerDay.Max, lighter.Phases[0].MgPerDay.Max)
	}
}

func TestEvaluatePhasedRegimen(t *testing.T) {
	// Azithromycin 200 mg/5 mL for a 15 kg child: 10 mg/kg on day 1,
	// then 5 mg/kg on days 2-5.
	drug := &entities.Drug{
		Name:                 "Azithromycin",
		ConcentrationMgPerMl: 40,
		BottleSizeMl:         15,
	}
	reg := &entities.Regimen{
		Phases: []entities.Phase{
			{
				Label:        "วันแรก",
				PerKgPerDay:  scalarPtr(10),
				Frequency:    freqPtr(1, 1),
				DurationDays: scalarPtr(1),
				MaxMgPerDay:  500,
			},
			{
				Label:        "วันที่ 2-5",
				PerKgPerDay:  scalarPtr(5),
				Frequency:    freqPtr(1, 1),
				DurationDays: scalarPtr(4),
				MaxMgPerDay:  250,
			},
		},
	}

	result, err := Evaluate(drug, "Pertussis", reg, 15)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if len(result.Phases) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(result.Phases))
	}

	day1 := result.Phases[0]
	if !almostEqual(day1.MgPerDay.Max, 150) {
		t.Errorf("day 1: expected 150 mg/day, got %v", day1.MgPerDay.Max)
	}
	if !almostEqual(day1.MlPerDose.Max, 3.75) {
		t.Errorf("day 1: expected 3.75 mL/dose, got %v", day1.MlPerDose.Max)
	}

	rest := result.Phases[1]
	if !almostEqual(rest.MgPerDay.Max, 75) {
		t.Errorf("days 2-5: expected 75 mg/day, got %v", rest.MgPerDay.Max)
	}
	if !almostEqual(rest.TotalMl.Max, 7.5) {
		t.Errorf("days 2-5: expected 7.5 mL, got %v", rest.TotalMl.Max)
	}

	if !almostEqual(result.TotalMl.Max, 11.25) {
		t.Errorf("expected 11.25 mL grand total, got %v", result.TotalMl.Max)
	}
	if result.BottleCount != 1 {
		t.Errorf("expected 1 bottle of 15 mL, got %d", result.BottleCount)
	}
}

func TestEvaluateRangedDoseAndFrequency(t *testing.T) {
	drug := &entities.Drug{
		Name:                 "Amoxicillin",
		ConcentrationMgPerMl: 50,
		BottleSizeMl:         60,
	}
	reg := &entities.Regimen{
		PerKgPerDay:  rangePtr(80, 90),
		Frequency:    freqPtr(2, 3),
		DurationDays: scalarPtr(10),
		MaxMgPerDay:  3000,
	}

	result, err := Evaluate(drug, "Acute otitis media", reg, 10)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	p := result.Phases[0]
	if !almostEqual(p.MgPerDay.Min, 800) || !almostEqual(p.MgPerDay.Max, 900) {
		t.Errorf("expected [800,900] mg/day, got [%v,%v]", p.MgPerDay.Min, p.MgPerDay.Max)
	}

	// The smallest dose pairs the minimum daily amount with the maximum
	// frequency, the largest the other way around.
	wantMin := 800.0 / 50 / 3
	wantMax := 900.0 / 50 / 2
	if !almostEqual(p.MlPerDose.Min, wantMin) || !almostEqual(p.MlPerDose.Max, wantMax) {
		t.Errorf("expected [%v,%v] mL/dose, got [%v,%v]", wantMin, wantMax, p.MlPerDose.Min, p.MlPerDose.Max)
	}
}

func TestEvaluatePerDoseRegimen(t *testing.T) {
	// Paracetamol 120 mg/5 mL at 10-15 mg/kg/dose, 4-6 times daily,
	// capped at 500 mg per dose.
	drug := &entities.Drug{
		Name:                 "Paracetamol",
		ConcentrationMgPerMl: 24,
		BottleSizeMl:         60,
	}
	reg := &entities.Regimen{
		PerKgPerDose: rangePtr(10, 15),
		Frequency:    freqPtr(4, 6),
		DurationDays: scalarPtr(3),
		MaxMgPerDose: 500,
	}

	result, err := Evaluate(drug, "Fever", reg, 20)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	p := result.Phases[0]
	if !almostEqual(p.MlPerDose.Min, 200.0/24) || !almostEqual(p.MlPerDose.Max, 300.0/24) {
		t.Errorf("expected [%v,%v] mL/dose, got [%v,%v]",
			200.0/24, 300.0/24, p.MlPerDose.Min, p.MlPerDose.Max)
	}
	if !almostEqual(p.MgPerDay.Min, 800) || !almostEqual(p.MgPerDay.Max, 1800) {
		t.Errorf("expected [800,1800] mg/day, got [%v,%v]", p.MgPerDay.Min, p.MgPerDay.Max)
	}

	// The per-dose cap binds for a heavy patient.
	heavy, err := Evaluate(drug, "Fever", reg, 60)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if heavy.Phases[0].MlPerDose.Max > 500.0/24+epsilon {
		t.Errorf("per-dose cap not applied: got %v mL/dose", heavy.Phases[0].MlPerDose.Max)
	}
}

func TestEvaluateFixedDoseRegimen(t *testing.T) {
	drug := &entities.Drug{
		Name:                 "Cetirizine",
		ConcentrationMgPerMl: 1,
		BottleSizeMl:         60,
	}
	reg := &entities.Regimen{
		FixedMg:      rangePtr(5, 10),
		Frequency:    freqPtr(1, 1),
		DurationDays: scalarPtr(7),
	}

	result, err := Evaluate(drug, "Allergic rhinitis", reg, 25)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	p := result.Phases[0]
	if !almostEqual(p.MgPerDay.Min, 5) || !almostEqual(p.MgPerDay.Max, 10) {
		t.Errorf("fixed dose should not scale with weight, got [%v,%v]", p.MgPerDay.Min, p.MgPerDay.Max)
	}
	if !almostEqual(result.TotalMl.Min, 35) || !almostEqual(result.TotalMl.Max, 70) {
		t.Errorf("expected [35,70] mL total, got [%v,%v]", result.TotalMl.Min, result.TotalMl.Max)
	}
}

func TestEvaluateRangesStayOrdered(t *testing.T) {
	drug := &entities.Drug{
		Name:                 "Amoxicillin",
		ConcentrationMgPerMl: 50,
		BottleSizeMl:         60,
	}

	regimens := []*entities.Regimen{
		{PerKgPerDay: rangePtr(80, 90), Frequency: freqPtr(2, 3), DurationDays: rangePtr(7, 10), MaxMgPerDay: 850},
		{PerKgPerDose: rangePtr(10, 15), Frequency: freqPtr(4, 6), MaxMgPerDose: 120},
		{FixedMg: rangePtr(250, 500), Frequency: freqPtr(1, 2), DurationDays: scalarPtr(5)},
	}

	for i, reg := range regimens {
		for _, weight := range []float64{3, 10, 25, 60} {
			result, err := Evaluate(drug, "test", reg, weight)
			if err != nil {
				t.Fatalf("regimen %d weight %v: %v", i, weight, err)
			}
			for _, p := range result.Phases {
				checkOrdered(t, "mg/day", p.MgPerDay)
				checkOrdered(t, "mL/day", p.MlPerDay)
				checkOrdered(t, "mL/dose", p.MlPerDose)
				checkOrdered(t, "total mL", p.TotalMl)
			}
			checkOrdered(t, "grand total", result.TotalMl)
		}
	}
}

func checkOrdered(t *testing.T, name string, r entities.Range) {
	t.Helper()
	if r.Min > r.Max+epsilon {
		t.Errorf("%s range inverted: [%v,%v]", name, r.Min, r.Max)
	}
}

func TestEvaluateMissingDoseSpec(t *testing.T) {
	drug := &entities.Drug{
		Name:                 "Amoxicillin",
		ConcentrationMgPerMl: 50,
		BottleSizeMl:         60,
	}
	reg := &entities.Regimen{
		Frequency:    freqPtr(2, 2),
		DurationDays: scalarPtr(10),
	}

	if _, err := Evaluate(drug, "Pharyngitis", reg, 20); err == nil {
		t.Error("expected an error for a regimen without a dose specification")
	}
}

func TestEvaluateRejectsNonPositiveWeight(t *testing.T) {
	drug := &entities.Drug{
		Name:                 "Amoxicillin",
		ConcentrationMgPerMl: 50,
		BottleSizeMl:         60,
	}
	reg := &entities.Regimen{PerKgPerDay: scalarPtr(50)}

	for _, weight := range []float64{0, -5} {
		if _, err := Evaluate(drug, "Pharyngitis", reg, weight); err == nil {
			t.Errorf("expected an error for weight %v", weight)
		}
	}
}

func TestEvaluateDefaultsFrequencyAndDuration(t *testing.T) {
	drug := &entities.Drug{
		Name:                 "Ibuprofen",
		ConcentrationMgPerMl: 20,
		BottleSizeMl:         60,
	}
	reg := &entities.Regimen{PerKgPerDay: scalarPtr(10)}

	result, err := Evaluate(drug, "Fever", reg, 10)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	p := result.Phases[0]
	if p.DosesPerDay.Min != 1 || p.DosesPerDay.Max != 1 {
		t.Errorf("expected frequency to default to 1, got [%d,%d]", p.DosesPerDay.Min, p.DosesPerDay.Max)
	}
	if !almostEqual(p.DurationDays.Min, 1) || !almostEqual(p.DurationDays.Max, 1) {
		t.Errorf("expected duration to default to 1 day, got [%v,%v]", p.DurationDays.Min, p.DurationDays.Max)
	}
}
