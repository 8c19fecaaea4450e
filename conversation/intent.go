// Package conversation implements the multi-turn dialogue over the
// formulary: intent extraction from freeform user text, the drug-dosing
// and warfarin state machines, and the text rendering of results.
package conversation

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nonthapat/dosebot-api/formulary"
)

// IntentKind classifies one inbound message.
type IntentKind int

const (
	IntentUnrecognized IntentKind = iota
	IntentRestart
	IntentStart
	IntentStartWarfarin
	IntentSelectDrug
	IntentSelectIndication
	IntentProvideAge
	IntentProvideWeight
)

// Intent is the structured command extracted from user text. Name carries
// the drug/indication for selection intents, Value the number for age and
// weight intents (age always in years).
type Intent struct {
	Kind  IntentKind
	Name  string
	Value float64
}

// Selection prefixes of the message protocol. The rich-menu buttons send
// these, but users can also type them.
const (
	drugPrefix       = "เลือกยา:"
	indicationPrefix = "ข้อบ่งใช้:"
)

var (
	numberPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)`)

	// Age cues. These are matched BEFORE the bare-number weight fallback
	// so "5 ปี" (or "5" after an age prompt carrying a unit) is never
	// misread as a weight.
	ageYearsPattern  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:ปี|ขวบ|years?|yrs?)`)
	ageMonthsPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:เดือน|months?|mo\b)`)
	agePrefixPattern = regexp.MustCompile(`อายุ\s*(\d+(?:\.\d+)?)`)

	weightPattern       = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:kg|กก|กิโลกรัม|กิโล|โล)`)
	weightPrefixPattern = regexp.MustCompile(`(?:น้ำหนัก|นน\.?)\s*(\d+(?:\.\d+)?)`)
)

var startKeywords = []string{"คำนวณยา", "dose", "เริ่ม"}

var restartKeywords = []string{"เริ่มใหม่", "ยกเลิก", "restart", "reset", "cancel"}

var warfarinKeywords = []string{"warfarin", "วาร์ฟาริน"}

// Classify extracts a structured command from freeform user text. It is
// context-free; the engine layers session context (e.g. plain drug or
// indication names) on top of it.
func Classify(text string) Intent {
	trimmed := strings.TrimSpace(text)
	lower := formulary.Normalize(trimmed)

	if containsAny(lower, restartKeywords) {
		return Intent{Kind: IntentRestart}
	}
	for _, kw := range startKeywords {
		if lower == formulary.Normalize(kw) {
			return Intent{Kind: IntentStart}
		}
	}
	if containsAny(lower, warfarinKeywords) {
		return Intent{Kind: IntentStartWarfarin}
	}

	if name, ok := strings.CutPrefix(trimmed, drugPrefix); ok {
		return Intent{Kind: IntentSelectDrug, Name: strings.TrimSpace(name)}
	}
	if name, ok := strings.CutPrefix(trimmed, indicationPrefix); ok {
		return Intent{Kind: IntentSelectIndication, Name: strings.TrimSpace(name)}
	}

	// Age cues first, then explicit weight cues, then bare number as
	// weight. The ordering is a contract, not an optimization.
	if m := ageMonthsPattern.FindStringSubmatch(lower); m != nil {
		months, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return Intent{Kind: IntentProvideAge, Value: months / 12}
		}
	}
	if m := ageYearsPattern.FindStringSubmatch(lower); m != nil {
		years, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return Intent{Kind: IntentProvideAge, Value: years}
		}
	}
	if m := agePrefixPattern.FindStringSubmatch(lower); m != nil {
		years, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return Intent{Kind: IntentProvideAge, Value: years}
		}
	}

	if m := weightPattern.FindStringSubmatch(lower); m != nil {
		kg, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return Intent{Kind: IntentProvideWeight, Value: kg}
		}
	}
	if m := weightPrefixPattern.FindStringSubmatch(lower); m != nil {
		kg, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return Intent{Kind: IntentProvideWeight, Value: kg}
		}
	}
	if m := numberPattern.FindStringSubmatch(lower); m != nil && strings.TrimSpace(m[1]) == lower {
		kg, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return Intent{Kind: IntentProvideWeight, Value: kg}
		}
	}

	return Intent{Kind: IntentUnrecognized}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, formulary.Normalize(kw)) {
			return true
		}
	}
	return false
}

// firstNumber extracts the first numeric token of a warfarin answer.
func firstNumber(text string) (float64, bool) {
	m := numberPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
