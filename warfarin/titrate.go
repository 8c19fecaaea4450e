// Package warfarin implements the INR-based dose titration rule and the
// supplement/drug interaction screening used by the warfarin conversation
// flow. The band table is a total, non-overlapping partition of [0, +inf):
// for any INR >= 0 exactly one band applies.
package warfarin

import (
	"math"
	"strings"
	"time"
)

// Band is one INR interval with its dosing action. Intervals are half-open
// [Low, High); the last band runs to +inf.
type Band struct {
	Low          float64
	High         float64
	Action       string
	AdjustPctMin float64 // signed percentage change to the weekly dose
	AdjustPctMax float64
	RecheckDays  int
}

// bands tile the INR axis. Boundaries follow the protocol table; INR is
// reported to one decimal, so e.g. the "3.1-3.9" row owns [3.1, 4.0).
var bands = []Band{
	{Low: 0, High: 1.5, Action: "เพิ่มขนาดยา 10-20%", AdjustPctMin: 10, AdjustPctMax: 20, RecheckDays: 7},
	{Low: 1.5, High: 2.0, Action: "เพิ่มขนาดยา 5-10%", AdjustPctMin: 5, AdjustPctMax: 10, RecheckDays: 14},
	{Low: 2.0, High: 3.1, Action: "คงขนาดยาเดิม", AdjustPctMin: 0, AdjustPctMax: 0, RecheckDays: 56},
	{Low: 3.1, High: 4.0, Action: "ลดขนาดยา 5-10%", AdjustPctMin: -10, AdjustPctMax: -5, RecheckDays: 14},
	{Low: 4.0, High: 5.0, Action: "หยุดยา 1 วัน แล้วลดขนาดยา 10%", AdjustPctMin: -10, AdjustPctMax: -10, RecheckDays: 7},
	{Low: 5.0, High: 9.0, Action: "หยุดยา 1-2 วัน พิจารณาให้ vitamin K1 1 mg รับประทาน แล้วเริ่มยาใหม่โดยลดขนาดลง 10-20%", AdjustPctMin: -20, AdjustPctMax: -10, RecheckDays: 5},
	{Low: 9.0, High: math.Inf(1), Action: "หยุดยา ให้ vitamin K1 5-10 mg รับประทาน", AdjustPctMin: 0, AdjustPctMax: 0, RecheckDays: 2},
}

// BleedingAction is the terminal recommendation when the patient reports
// active bleeding; it applies regardless of the INR.
const BleedingAction = "หยุด warfarin ทันที ให้ Vitamin K1 10 mg IV และพบแพทย์โดยด่วน"

// watchList holds herb/supplement names known to interact with warfarin.
// Matching is case-insensitive substring in either direction, so both
// "กินโสมอยู่" and "ginseng extract" hit the โสม/ginseng entry.
var watchList = [][]string{
	{"ขมิ้นชัน", "turmeric", "curcumin"},
	{"แปะก๊วย", "ginkgo"},
	{"โสม", "ginseng"},
	{"กระเทียม", "garlic"},
	{"น้ำมันปลา", "fish oil", "omega-3"},
	{"ตังกุย", "dong quai"},
	{"เซนต์จอห์นเวิร์ต", "st. john", "st john"},
	{"แครนเบอร์รี่", "cranberry"},
	{"วิตามินอี", "vitamin e"},
	{"ฟ้าทะลายโจร", "andrographis"},
}

// Input collects the answers gathered by the warfarin conversation flow.
// Supplement and InteractingDrug are optional free text.
type Input struct {
	INR             float64
	TWD             float64 // total weekly dose, mg
	Bleeding        bool
	Supplement      string
	InteractingDrug string
}

// Recommendation is the titration outcome handed to the renderer.
type Recommendation struct {
	Action       string
	Bleeding     bool
	NewWeeklyMin float64 // adjusted weekly dose bounds, mg; zero when held
	NewWeeklyMax float64
	RecheckDays  int
	RecheckDate  time.Time
	Warnings     []string
}

// LookupBand returns the band owning the given INR. INR values below zero
// are clamped into the first band.
func LookupBand(inr float64) Band {
	for _, b := range bands {
		if inr < b.High {
			return b
		}
	}
	return bands[len(bands)-1]
}

// Bands exposes the band table for property checks.
func Bands() []Band {
	return bands
}

// Titrate applies the titration protocol. Bleeding short-circuits to the
// terminal stop-and-reverse recommendation; otherwise the INR band decides
// the weekly-dose adjustment and the recheck interval. The recheck date is
// always now + recheck days.
func Titrate(in Input, now time.Time) Recommendation {
	if in.Bleeding {
		rec := Recommendation{
			Action:      BleedingAction,
			Bleeding:    true,
			RecheckDays: 0,
			RecheckDate: now,
		}
		rec.Warnings = screen(in)
		return rec
	}

	band := LookupBand(in.INR)
	rec := Recommendation{
		Action:      band.Action,
		RecheckDays: band.RecheckDays,
		RecheckDate: now.AddDate(0, 0, band.RecheckDays),
	}
	if band.AdjustPctMin != 0 || band.AdjustPctMax != 0 {
		rec.NewWeeklyMin = in.TWD * (1 + band.AdjustPctMin/100)
		rec.NewWeeklyMax = in.TWD * (1 + band.AdjustPctMax/100)
	} else if band.Low < 4.0 {
		// "No change" keeps the current weekly dose visible.
		rec.NewWeeklyMin = in.TWD
		rec.NewWeeklyMax = in.TWD
	}
	rec.Warnings = screen(in)
	return rec
}

// screen builds the interaction warnings from the free-text answers.
func screen(in Input) []string {
	var warnings []string

	supplement := strings.TrimSpace(in.Supplement)
	if supplement != "" && !isNegativeAnswer(supplement) {
		matched := matchWatchList(supplement)
		if len(matched) > 0 {
			warnings = append(warnings,
				"สมุนไพร/อาหารเสริมที่แจ้งมา ("+strings.Join(matched, ", ")+") มีผลต่อระดับยา warfarin ควรแจ้งแพทย์")
		} else {
			warnings = append(warnings,
				"สมุนไพรและอาหารเสริมหลายชนิดมีผลต่อระดับยา warfarin ควรแจ้งแพทย์ทุกครั้ง")
		}
	}

	drug := strings.TrimSpace(in.InteractingDrug)
	if drug != "" && !isNegativeAnswer(drug) {
		warnings = append(warnings,
			"ยา "+drug+" อาจมีปฏิกิริยากับ warfarin ควรตรวจ INR ถี่ขึ้นและปรึกษาแพทย์")
	}

	return warnings
}

// matchWatchList returns the canonical (first) name of every watch-list
// entry mentioned in the text.
func matchWatchList(text string) []string {
	lower := strings.ToLower(text)
	var matched []string
	for _, entry := range watchList {
		for _, alias := range entry {
			if strings.Contains(lower, alias) {
				matched = append(matched, entry[0])
				break
			}
		}
	}
	return matched
}

// isNegativeAnswer recognizes "none" style answers so they do not trigger
// the generic supplement caution.
func isNegativeAnswer(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "ไม่", "ไม่มี", "ไม่ได้กิน", "ไม่ได้ใช้", "no", "none", "-":
		return true
	}
	return false
}
