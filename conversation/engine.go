package conversation

import (
	"strings"
	"time"

	"github.com/nonthapat/dosebot-api/dosing"
	"github.com/nonthapat/dosebot-api/formulary"
	"github.com/nonthapat/dosebot-api/formulary/entities"
	"github.com/nonthapat/dosebot-api/interfaces"
	"github.com/nonthapat/dosebot-api/logging"
	"github.com/nonthapat/dosebot-api/metrics"
	"github.com/nonthapat/dosebot-api/session"
	"github.com/nonthapat/dosebot-api/validation"
	"github.com/nonthapat/dosebot-api/warfarin"
)

// Engine drives the per-user conversation: it classifies inbound text,
// advances the session state machine and produces reply messages. One
// user's messages are handled strictly in arrival order via the store's
// per-user locks; different users proceed in parallel.
type Engine struct {
	formulary interfaces.FormularyStore
	store     session.Store
	now       func() time.Time
}

// NewEngine creates a conversation engine over the given formulary and
// session store.
func NewEngine(f interfaces.FormularyStore, store session.Store) *Engine {
	return &Engine{
		formulary: f,
		store:     store,
		now:       time.Now,
	}
}

// HandleMessage processes one inbound text message for a user and returns
// the reply messages. It never returns an error: every failure mode is
// converted to a user-facing message at the point of detection.
func (e *Engine) HandleMessage(userID, text string) []string {
	lock := e.store.UserLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if err := validation.ValidateInput(text); err != nil {
		logging.Warn("Rejected user input", "user_id", userID, "error", err)
		return []string{msgHelp}
	}

	sess, ok := e.store.Get(userID)
	if !ok {
		sess = session.New(userID)
	}

	intent := Classify(text)
	metrics.IntentsTotal.WithLabelValues(intentLabel(intent.Kind)).Inc()

	// Restart and the start menu work from any state, including mid-flow
	// warfarin dialogues.
	switch intent.Kind {
	case IntentRestart:
		e.store.Delete(userID)
		return []string{"เริ่มใหม่เรียบร้อย", msgHelp}
	case IntentStart:
		sess.ResetDrugDosing()
		e.store.Put(userID, sess)
		return []string{renderDrugMenu(e.formulary.Drugs())}
	case IntentStartWarfarin:
		sess.StartWarfarin()
		e.store.Put(userID, sess)
		return []string{msgAskINR}
	}

	if sess.Flow == session.FlowWarfarin {
		return e.handleWarfarinAnswer(userID, sess, text)
	}
	return e.handleDrugDosing(userID, sess, intent, text)
}

// handleDrugDosing advances the drug-dosing state machine one step.
func (e *Engine) handleDrugDosing(userID string, sess *session.Session, intent Intent, text string) []string {
	switch intent.Kind {
	case IntentSelectDrug:
		return e.selectDrug(userID, sess, intent.Name)

	case IntentSelectIndication:
		return e.selectIndication(userID, sess, intent.Name)

	case IntentProvideAge:
		if sess.Flow != session.FlowDrugDosing {
			return []string{msgHelp}
		}
		if intent.Value < 0 || intent.Value > 18 {
			return []string{msgInvalidAge}
		}
		sess.AgeYears = intent.Value
		sess.HasAge = true
		e.store.Put(userID, sess)
		if sess.Indication == "" {
			return []string{renderIndicationMenu(sess.Drug, e.formulary.IndicationNames(sess.Drug))}
		}
		return []string{msgAskWeight}

	case IntentProvideWeight:
		if sess.Flow != session.FlowDrugDosing {
			// A bare number with no active drug gets the generic help.
			return []string{msgHelp}
		}
		if sess.Indication == "" {
			return []string{renderIndicationMenu(sess.Drug, e.formulary.IndicationNames(sess.Drug))}
		}
		return e.completeCalculation(userID, sess, intent.Value)

	default:
		// Plain drug or indication names without the protocol prefix.
		if replies, handled := e.classifyInContext(userID, sess, text); handled {
			return replies
		}
		return e.reprompt(sess)
	}
}

// classifyInContext resolves free text against the catalog: a known drug
// name selects that drug; a known indication of the selected drug selects
// that indication. The classifier itself has no catalog, so the engine
// retries the raw text as a selection here.
func (e *Engine) classifyInContext(userID string, sess *session.Session, text string) ([]string, bool) {
	if sess.Flow == session.FlowDrugDosing && sess.Drug != "" && sess.Indication == "" {
		if _, ok := e.resolveIndication(sess.Drug, text); ok {
			return e.selectIndication(userID, sess, text), true
		}
	}
	if _, ok := e.formulary.GetDrug(text); ok {
		return e.selectDrug(userID, sess, text), true
	}
	return nil, false
}

// selectDrug moves the session into DrugSelected (or straight through to
// parameter collection when the drug has exactly one indication).
func (e *Engine) selectDrug(userID string, sess *session.Session, name string) []string {
	drug, ok := e.formulary.GetDrug(name)
	if !ok {
		// Data-not-found: surfaced as a message, state untouched.
		return []string{renderUnsupportedDrug(name)}
	}

	sess.ResetDrugDosing()
	sess.Flow = session.FlowDrugDosing
	sess.Drug = drug.Name

	var replies []string
	if len(drug.Indications) == 1 {
		// Single implicit indication continues automatically.
		sess.Indication = drug.Indications[0].Name
		replies = append(replies, "คุณเลือก "+drug.Name+" ("+sess.Indication+") แล้ว")
		replies = append(replies, e.nextParameterPrompt(drug, sess)...)
	} else {
		replies = append(replies, renderIndicationMenu(drug.Name, e.formulary.IndicationNames(drug.Name)))
	}

	e.store.Put(userID, sess)
	return replies
}

// selectIndication stores a valid indication choice; an invalid one is a
// no-op with an error message.
func (e *Engine) selectIndication(userID string, sess *session.Session, name string) []string {
	if sess.Flow != session.FlowDrugDosing || sess.Drug == "" {
		return []string{msgHelp}
	}

	drug, ok := e.formulary.GetDrug(sess.Drug)
	if !ok {
		return []string{msgHelp}
	}

	canonical, ok := e.resolveIndication(sess.Drug, name)
	if !ok {
		return []string{renderUnknownIndication(sess.Drug, name)}
	}

	sess.Indication = canonical
	e.store.Put(userID, sess)

	replies := []string{"คุณเลือก " + drug.Name + " (" + canonical + ") แล้ว"}
	return append(replies, e.nextParameterPrompt(drug, sess)...)
}

// nextParameterPrompt asks for age before weight when the drug's gate
// needs an age, otherwise straight for weight.
func (e *Engine) nextParameterPrompt(drug *entities.Drug, sess *session.Session) []string {
	if drug.RequiresAge() && !sess.HasAge {
		return []string{msgAskAge}
	}
	return []string{msgAskWeight}
}

// completeCalculation runs the eligibility gate and the evaluator for the
// collected parameters. Rejections keep the session where it is so the
// user can retry with corrected values; success clears the selection.
func (e *Engine) completeCalculation(userID string, sess *session.Session, weightKg float64) []string {
	drug, ok := e.formulary.GetDrug(sess.Drug)
	if !ok {
		return []string{msgHelp}
	}

	if drug.RequiresAge() && !sess.HasAge {
		return []string{msgAskAge}
	}

	regimens, ok := e.formulary.GetRegimens(sess.Drug, sess.Indication)
	if !ok {
		return []string{renderUnknownIndication(sess.Drug, sess.Indication)}
	}

	patient := dosing.Patient{WeightKg: weightKg, AgeYears: sess.AgeYears, HasAge: sess.HasAge}
	regimen, rejection := dosing.SelectRegimen(drug, regimens, patient)
	if rejection != nil {
		metrics.DoseCalculationsTotal.WithLabelValues("rejected").Inc()
		msg, ok := rejectionMessages[rejection.Reason]
		if !ok {
			msg = msgCalcError
		}
		return []string{msg}
	}

	result, err := dosing.Evaluate(drug, sess.Indication, regimen, weightKg)
	if err != nil {
		// Malformed regimen data; must not crash the session.
		logging.Error("Dose evaluation failed", "drug", sess.Drug,
			"indication", sess.Indication, "error", err)
		metrics.DoseCalculationsTotal.WithLabelValues("error").Inc()
		return []string{msgCalcError}
	}

	metrics.DoseCalculationsTotal.WithLabelValues("success").Inc()
	sess.ResetDrugDosing()
	e.store.Put(userID, sess)
	return []string{renderDoseResult(result, drug.BottleSizeMl)}
}

// handleWarfarinAnswer advances the warfarin dialogue one step. Invalid
// answers re-prompt the same step without advancing; there is no retry
// limit.
func (e *Engine) handleWarfarinAnswer(userID string, sess *session.Session, text string) []string {
	w := &sess.Warfarin

	switch w.Step {
	case session.StepAskINR:
		inr, ok := firstNumber(text)
		if !ok || inr < 0 {
			return []string{msgInvalidINR}
		}
		w.INR = inr
		w.Step = session.StepAskTWD
		e.store.Put(userID, sess)
		return []string{msgAskTWD}

	case session.StepAskTWD:
		twd, ok := firstNumber(text)
		if !ok || twd <= 0 {
			return []string{msgInvalidTWD}
		}
		w.TWD = twd
		w.Step = session.StepAskBleeding
		e.store.Put(userID, sess)
		return []string{msgAskBleeding}

	case session.StepAskBleeding:
		bleeding, ok := parseYesNo(text)
		if !ok {
			return []string{msgInvalidYesNo}
		}
		w.Bleeding = bleeding
		if bleeding {
			// Bleeding short-circuits the remaining questions.
			return e.finishWarfarin(userID, sess)
		}
		w.Step = session.StepAskSupplement
		e.store.Put(userID, sess)
		return []string{msgAskSupplement}

	case session.StepAskSupplement:
		w.Supplement = strings.TrimSpace(text)
		w.Step = session.StepAskInteraction
		e.store.Put(userID, sess)
		return []string{msgAskInteract}

	case session.StepAskInteraction:
		w.InteractingDrug = strings.TrimSpace(text)
		return e.finishWarfarin(userID, sess)

	default:
		e.store.Delete(userID)
		return []string{msgHelp}
	}
}

// finishWarfarin produces the recommendation and clears the session.
func (e *Engine) finishWarfarin(userID string, sess *session.Session) []string {
	w := sess.Warfarin
	rec := warfarin.Titrate(warfarin.Input{
		INR:             w.INR,
		TWD:             w.TWD,
		Bleeding:        w.Bleeding,
		Supplement:      w.Supplement,
		InteractingDrug: w.InteractingDrug,
	}, e.now())

	outcome := "titration"
	if rec.Bleeding {
		outcome = "bleeding"
	}
	metrics.WarfarinRecommendationsTotal.WithLabelValues(outcome).Inc()

	e.store.Delete(userID)
	return []string{renderRecommendation(rec)}
}

// resolveIndication maps user text to the canonical indication name of a
// drug, case-insensitively.
func (e *Engine) resolveIndication(drugName, text string) (string, bool) {
	want := formulary.Normalize(text)
	for _, name := range e.formulary.IndicationNames(drugName) {
		if formulary.Normalize(name) == want {
			return name, true
		}
	}
	return "", false
}

// reprompt answers an unrecognized message with the prompt matching the
// session's position in the flow.
func (e *Engine) reprompt(sess *session.Session) []string {
	if sess.Flow == session.FlowDrugDosing && sess.Drug != "" {
		if sess.Indication == "" {
			return []string{renderIndicationMenu(sess.Drug, e.formulary.IndicationNames(sess.Drug))}
		}
		drug, ok := e.formulary.GetDrug(sess.Drug)
		if ok {
			return e.nextParameterPrompt(drug, sess)
		}
	}
	return []string{msgHelp}
}

// parseYesNo recognizes Thai and English yes/no answers.
func parseYesNo(text string) (bool, bool) {
	switch formulary.Normalize(text) {
	case "มี", "ใช่", "มีเลือดออก", "yes", "y":
		return true, true
	case "ไม่มี", "ไม่", "no", "n":
		return false, true
	}
	return false, false
}

// intentLabel maps an intent kind to its metric label.
func intentLabel(kind IntentKind) string {
	switch kind {
	case IntentRestart:
		return "restart"
	case IntentStart:
		return "start"
	case IntentStartWarfarin:
		return "warfarin"
	case IntentSelectDrug:
		return "select_drug"
	case IntentSelectIndication:
		return "select_indication"
	case IntentProvideAge:
		return "provide_age"
	case IntentProvideWeight:
		return "provide_weight"
	default:
		return "unrecognized"
	}
}
