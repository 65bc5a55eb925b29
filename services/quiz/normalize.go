package quiz

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"pdfquiz/models"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
)

const maxTimeLimitSeconds = 3600

// Alternate field names seen in model output, in order of preference.
var (
	questionKeys    = []string{"question", "text", "prompt"}
	typeKeys        = []string{"type", "questionType", "question_type"}
	optionsKeys     = []string{"options", "choices"}
	answerKeys      = []string{"answer", "correctAnswer", "correct_answer", "correct"}
	timeLimitKeys   = []string{"timeLimitSeconds", "time_limit_seconds", "timeLimit"}
	explanationKeys = []string{"explanation", "rationale"}
	optionTextKeys  = []string{"text", "label", "value"}
)

// labelledLetter matches answers such as "B", "b)", "C. Paris" or "Option D".
var labelledLetter = regexp.MustCompile(`^(?i:option\s+)?([A-Za-z])(?:[\).:]\s*.*)?$`)

// candidate is a normalized question that still carries the id the model gave it.
type candidate struct {
	question models.Question
	sourceID int
	hasID    bool
}

// decodeQuiz accepts a top-level array of questions, an object with a
// questions array, or an object wrapping either under "quiz".
func decodeQuiz(payload []byte) (string, []map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return unwrapQuiz(root, true)
}

func unwrapQuiz(root any, allowNested bool) (string, []map[string]any, error) {
	switch v := root.(type) {
	case []any:
		return "", questionMaps(v), nil
	case map[string]any:
		if raw, ok := v["questions"]; ok {
			list, ok := raw.([]any)
			if !ok {
				return "", nil, fmt.Errorf("%w: questions is %T, not an array", ErrMalformedResponse, raw)
			}
			return stringField(v, "title"), questionMaps(list), nil
		}
		if nested, ok := v["quiz"]; ok && allowNested {
			return unwrapQuiz(nested, false)
		}
		return "", nil, fmt.Errorf("%w: object has no questions array", ErrMalformedResponse)
	}
	return "", nil, fmt.Errorf("%w: unexpected top-level %T", ErrMalformedResponse, root)
}

func questionMaps(list []any) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// normalize converts decoded question objects into canonical questions.
// Items that cannot be made valid, or whose variant the filter excludes, are
// dropped. At most opts.NumQuestions survive, in source order, and ids are
// made unique.
func normalize(title string, items []map[string]any, opts Options) (*models.Quiz, int) {
	kept := make([]candidate, 0, len(items))
	dropped := 0
	for _, item := range items {
		c, ok := normalizeQuestion(item, opts.Difficulty)
		if !ok || !opts.Types.Allows(c.question.Type) {
			dropped++
			continue
		}
		kept = append(kept, c)
	}

	if opts.NumQuestions > 0 && len(kept) > opts.NumQuestions {
		dropped += len(kept) - opts.NumQuestions
		kept = kept[:opts.NumQuestions]
	}
	assignIDs(kept)

	return &models.Quiz{
		Title: title,
		Questions: lo.Map(kept, func(c candidate, _ int) models.Question {
			return c.question
		}),
	}, dropped
}

func normalizeQuestion(item map[string]any, difficulty models.Difficulty) (candidate, bool) {
	text := firstString(item, questionKeys...)
	if text == "" {
		return candidate{}, false
	}

	options := parseOptions(firstValue(item, optionsKeys...))
	answer := firstValue(item, answerKeys...)

	q := models.Question{
		Question:         text,
		Explanation:      firstString(item, explanationKeys...),
		TimeLimitSeconds: timeLimit(firstValue(item, timeLimitKeys...), difficulty),
	}

	if isTrueFalse(firstString(item, typeKeys...), options) {
		idx, ok := trueFalseAnswer(answer)
		if !ok {
			return candidate{}, false
		}
		q.Type = models.TrueFalse
		q.Options = append([]string(nil), models.TrueFalseOptions...)
		q.Answer = idx
	} else {
		if len(options) < 2 {
			return candidate{}, false
		}
		idx, ok := multipleChoiceAnswer(answer, options)
		if !ok {
			return candidate{}, false
		}
		q.Type = models.MultipleChoice
		q.Options = options
		q.Answer = idx
	}

	if !q.Valid() {
		return candidate{}, false
	}
	id, hasID := positiveInt(item["id"])
	return candidate{question: q, sourceID: id, hasID: hasID}, true
}

// isTrueFalse decides the variant. A question without options is always
// true_false; otherwise the declared type wins, falling back to the option
// list when the type is missing or unrecognized.
func isTrueFalse(declared string, options []string) bool {
	if len(options) == 0 {
		return true
	}
	switch strings.ToLower(strings.NewReplacer("-", "_", " ", "_").Replace(declared)) {
	case "true_false", "truefalse", "tf", "boolean":
		return true
	case "multiple_choice", "multiplechoice", "mcq", "mc":
		return false
	}
	return len(options) == 2 &&
		strings.EqualFold(options[0], "true") &&
		strings.EqualFold(options[1], "false")
}

// assignIDs keeps the first occurrence of each positive source id and gives
// every other question the lowest unused id counting up from 1.
func assignIDs(cs []candidate) {
	used := make(map[int]bool, len(cs))
	pending := make([]int, 0)
	for i := range cs {
		if cs[i].hasID && !used[cs[i].sourceID] {
			used[cs[i].sourceID] = true
			cs[i].question.ID = cs[i].sourceID
			continue
		}
		pending = append(pending, i)
	}

	next := 1
	for _, i := range pending {
		for used[next] {
			next++
		}
		used[next] = true
		cs[i].question.ID = next
	}
}

func parseOptions(v any) []string {
	var raw []any
	switch opts := v.(type) {
	case []any:
		raw = opts
	case map[string]any:
		// {"A": "...", "B": "..."} keyed by letter or number.
		keys := lo.Keys(opts)
		sort.Strings(keys)
		raw = lo.Map(keys, func(k string, _ int) any { return opts[k] })
	default:
		return nil
	}

	out := make([]string, 0, len(raw))
	for _, o := range raw {
		var s string
		switch val := o.(type) {
		case string:
			s = val
		case json.Number:
			s = val.String()
		case bool:
			s = strconv.FormatBool(val)
		case map[string]any:
			s = firstString(val, optionTextKeys...)
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// trueFalseAnswer maps an answer to 0 for true and 1 for false.
func trueFalseAnswer(v any) (int, bool) {
	switch a := v.(type) {
	case bool:
		if a {
			return 0, true
		}
		return 1, true
	case json.Number:
		f, err := a.Float64()
		if err != nil {
			return 0, false
		}
		return truthIndex(f != 0), true
	case float64:
		return truthIndex(a != 0), true
	case string:
		s := strings.ToLower(strings.TrimSpace(a))
		if s == "" {
			return 0, false
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return truthIndex(f != 0), true
		}
		switch {
		case strings.HasPrefix(s, "t"), s == "yes", s == "y":
			return 0, true
		case strings.HasPrefix(s, "f"), s == "no", s == "n":
			return 1, true
		}
	}
	return 0, false
}

func truthIndex(b bool) int {
	if b {
		return 0
	}
	return 1
}

// multipleChoiceAnswer resolves an answer given as an index, a letter, or the
// text of an option. The result is bounds checked against options.
func multipleChoiceAnswer(v any, options []string) (int, bool) {
	idx := -1
	switch a := v.(type) {
	case json.Number:
		n, err := integral(a)
		if err != nil {
			return 0, false
		}
		idx = n
	case float64:
		if a != math.Trunc(a) {
			return 0, false
		}
		idx = int(a)
	case string:
		idx = answerFromText(strings.TrimSpace(a), options)
	default:
		return 0, false
	}

	if idx < 0 || idx >= len(options) {
		return 0, false
	}
	return idx, true
}

func answerFromText(s string, options []string) int {
	if s == "" {
		return -1
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if i := lo.IndexOf(lo.Map(options, func(o string, _ int) string { return strings.ToLower(o) }), strings.ToLower(s)); i >= 0 {
		return i
	}
	if m := labelledLetter.FindStringSubmatch(s); m != nil {
		return int(unicode.ToUpper(rune(m[1][0])) - 'A')
	}

	ranks := fuzzy.RankFindNormalizedFold(s, options)
	sort.Sort(ranks)
	if len(ranks) == 1 || (len(ranks) > 1 && ranks[0].Distance < ranks[1].Distance) {
		return ranks[0].OriginalIndex
	}

	// Answers that quote an option with extra words, e.g. "Paris, the capital".
	contained := lo.Filter(lo.Range(len(options)), func(i int, _ int) bool {
		return fuzzy.MatchNormalizedFold(options[i], s)
	})
	if len(contained) == 1 {
		return contained[0]
	}
	return -1
}

func timeLimit(v any, difficulty models.Difficulty) int {
	n, ok := positiveInt(v)
	if !ok || n > maxTimeLimitSeconds {
		return difficulty.DefaultTimeLimit()
	}
	return n
}

// positiveInt accepts integral numbers and numeric strings greater than zero.
func positiveInt(v any) (int, bool) {
	var n int
	switch a := v.(type) {
	case json.Number:
		i, err := integral(a)
		if err != nil {
			return 0, false
		}
		n = i
	case float64:
		if a != math.Trunc(a) {
			return 0, false
		}
		n = int(a)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(a))
		if err != nil {
			return 0, false
		}
		n = i
	default:
		return 0, false
	}
	return n, n > 0
}

var errNotIntegral = errors.New("not an integral number")

func integral(n json.Number) (int, error) {
	if i, err := n.Int64(); err == nil {
		return int(i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, errNotIntegral
	}
	return int(f), nil
}

func firstValue(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := stringField(m, k); s != "" {
			return s
		}
	}
	return ""
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}
