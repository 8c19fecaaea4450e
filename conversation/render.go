package conversation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nonthapat/dosebot-api/dosing"
	"github.com/nonthapat/dosebot-api/formulary/entities"
	"github.com/nonthapat/dosebot-api/warfarin"
)

// Static prompts of the dialogue. Message strings are passed through to
// the platform as-is.
const (
	msgHelp = "พิมพ์ 'คำนวณยา' เพื่อเริ่มเลือกตัวยา หรือพิมพ์ 'warfarin' เพื่อปรับขนาดยา warfarin"

	msgAskWeight = "กรุณาพิมพ์น้ำหนักเป็นกิโลกรัม เช่น 20 หรือ 12.5 kg"
	msgAskAge    = "กรุณาพิมพ์อายุของผู้ป่วย เช่น 3 ปี หรือ 8 เดือน"

	msgInvalidWeight = "น้ำหนักไม่ถูกต้อง กรุณาพิมพ์น้ำหนักเป็นตัวเลข เช่น 20"
	msgInvalidAge    = "อายุไม่ถูกต้อง กรุณาพิมพ์อายุระหว่าง 0-18 ปี เช่น 3 ปี หรือ 8 เดือน"

	msgCalcError = "ขออภัย เกิดข้อผิดพลาดในการคำนวณ กรุณาลองใหม่อีกครั้ง"

	msgAskINR        = "เริ่มการปรับขนาดยา warfarin\nกรุณาพิมพ์ค่า INR ล่าสุด เช่น 2.5"
	msgInvalidINR    = "ค่า INR ไม่ถูกต้อง กรุณาพิมพ์เป็นตัวเลข เช่น 2.5"
	msgAskTWD        = "กรุณาพิมพ์ขนาดยารวมต่อสัปดาห์ (Total Weekly Dose) เป็น mg เช่น 28"
	msgInvalidTWD    = "ขนาดยารวมต่อสัปดาห์ไม่ถูกต้อง กรุณาพิมพ์เป็นตัวเลข เช่น 28"
	msgAskBleeding   = "ผู้ป่วยมีภาวะเลือดออกผิดปกติหรือไม่ (ตอบ มี หรือ ไม่มี)"
	msgInvalidYesNo  = "กรุณาตอบ มี หรือ ไม่มี"
	msgAskSupplement = "ผู้ป่วยรับประทานสมุนไพรหรืออาหารเสริมหรือไม่ ถ้ามีโปรดระบุชื่อ ถ้าไม่มีตอบ ไม่มี"
	msgAskInteract   = "ผู้ป่วยได้รับยาอื่นเพิ่มเติมหรือไม่ ถ้ามีโปรดระบุชื่อยา ถ้าไม่มีตอบ ไม่มี"
)

// Rejection messages keyed by gate reason.
var rejectionMessages = map[string]string{
	dosing.ReasonInvalidWeight: msgInvalidWeight,
	dosing.ReasonBelowMinAge:   "อายุของผู้ป่วยน้อยกว่าเกณฑ์ต่ำสุดของยานี้ กรุณาปรึกษาแพทย์",
	dosing.ReasonNoMatch:       "ไม่มีสูตรยาที่เหมาะกับอายุ/น้ำหนักนี้ กรุณาตรวจสอบข้อมูลหรือปรึกษาแพทย์",
}

// fmtNum renders a number rounded to two decimals without trailing zeros.
func fmtNum(v float64) string {
	rounded := math.Round(v*100) / 100
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

// fmtRange renders "X" for scalars and "X-Y" for true ranges.
func fmtRange(r entities.Range) string {
	if r.IsScalar() {
		return fmtNum(r.Min)
	}
	return fmtNum(r.Min) + "-" + fmtNum(r.Max)
}

func fmtIntRange(r entities.IntRange) string {
	if r.IsScalar() {
		return strconv.Itoa(r.Min)
	}
	return strconv.Itoa(r.Min) + "-" + strconv.Itoa(r.Max)
}

// renderDrugMenu lists the selectable drugs with the selection protocol.
func renderDrugMenu(drugs []entities.Drug) string {
	var b strings.Builder
	b.WriteString("กรุณาเลือกตัวยาที่ต้องการคำนวณ โดยพิมพ์ เลือกยา: ตามด้วยชื่อยา\n")
	for _, d := range drugs {
		fmt.Fprintf(&b, "- %s\n", d.Name)
	}
	b.WriteString("- Warfarin (ปรับขนาดยาตาม INR)")
	return b.String()
}

// renderIndicationMenu lists the indications of the selected drug.
func renderIndicationMenu(drugName string, indications []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "คุณเลือก %s แล้ว กรุณาเลือกข้อบ่งใช้ โดยพิมพ์ ข้อบ่งใช้: ตามด้วยชื่อ\n", drugName)
	for _, name := range indications {
		fmt.Fprintf(&b, "- %s\n", name)
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderDoseResult formats the full dose breakdown: per-phase lines, the
// grand total volume and the dispensing bottle count.
func renderDoseResult(res *dosing.DoseResult, bottleSizeMl float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ผลการคำนวณ %s (%s)\n", res.DrugName, res.Indication)

	for i := range res.Phases {
		p := &res.Phases[i]
		if p.Label != "" {
			fmt.Fprintf(&b, "%s: ", p.Label)
		}
		fmt.Fprintf(&b, "ขนาดยา %s mg/วัน แบ่งให้ %s ครั้ง/วัน ครั้งละ %s mL เป็นเวลา %s วัน\n",
			fmtRange(p.MgPerDay), fmtIntRange(p.DosesPerDay), fmtRange(p.MlPerDose), fmtRange(p.DurationDays))
	}

	fmt.Fprintf(&b, "รวมปริมาณยา %s mL\n", fmtRange(res.TotalMl))
	fmt.Fprintf(&b, "จ่ายยา %d ขวด (ขวดละ %s mL)", res.BottleCount, fmtNum(bottleSizeMl))

	if res.Note != "" {
		fmt.Fprintf(&b, "\nหมายเหตุ: %s", res.Note)
	}
	return b.String()
}

// renderRecommendation formats the warfarin titration outcome with the
// recheck date and any interaction warnings.
func renderRecommendation(rec warfarin.Recommendation) string {
	var b strings.Builder
	b.WriteString("คำแนะนำการปรับขนาดยา warfarin\n")
	fmt.Fprintf(&b, "%s\n", rec.Action)

	if !rec.Bleeding && rec.NewWeeklyMax > 0 {
		if rec.NewWeeklyMin == rec.NewWeeklyMax {
			fmt.Fprintf(&b, "ขนาดยารวมต่อสัปดาห์: %s mg\n", fmtNum(rec.NewWeeklyMin))
		} else {
			fmt.Fprintf(&b, "ขนาดยารวมต่อสัปดาห์ใหม่: %s-%s mg\n",
				fmtNum(rec.NewWeeklyMin), fmtNum(rec.NewWeeklyMax))
		}
	}

	if rec.Bleeding {
		b.WriteString("กรุณาพบแพทย์ทันที\n")
	} else {
		fmt.Fprintf(&b, "นัดตรวจ INR ซ้ำภายใน %d วัน (ภายในวันที่ %s)\n",
			rec.RecheckDays, rec.RecheckDate.Format("02/01/2006"))
	}

	for _, w := range rec.Warnings {
		fmt.Fprintf(&b, "คำเตือน: %s\n", w)
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderUnsupportedDrug is the "no data" reply for unknown drugs.
func renderUnsupportedDrug(name string) string {
	return fmt.Sprintf("ยังไม่รองรับการคำนวณยา %s", name)
}

// renderUnknownIndication is the reply for an indication the selected
// drug does not have; the selection state is left unchanged.
func renderUnknownIndication(drugName, indication string) string {
	return fmt.Sprintf("ไม่พบข้อบ่งใช้ %s สำหรับยา %s กรุณาเลือกจากรายการ", indication, drugName)
}
