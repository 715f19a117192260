package grading

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/talentprobe/talentprobe-backend/internal/model"
)

// Result is the outcome of grading one raw answer against one question.
// Normalized carries the comparable form (resolved index, sorted index
// list, or string) and is what gets persisted as the candidate's answer.
type Result struct {
	Normalized    json.RawMessage
	AnswerText    *string
	IsCorrect     bool
	PointsAwarded int
}

// Grade normalizes a raw candidate answer and determines correctness and
// awarded points for it. It is a pure function: no I/O, no side effects,
// and it never fails — malformed answers or keys grade as incorrect with
// zero points so one bad question cannot abort a whole submission.
func Grade(q *model.Question, raw json.RawMessage) Result {
	var res Result
	switch q.Type {
	case model.QuestionTypeMultipleChoice:
		res = gradeMultipleChoice(q, raw)
	case model.QuestionTypeCheckbox:
		res = gradeCheckbox(q, raw)
	case model.QuestionTypeText:
		res = gradeString(q, raw, strings.EqualFold)
	case model.QuestionTypeCode:
		// Intentionally stricter than text: exact, case-sensitive match.
		res = gradeString(q, raw, func(a, b string) bool { return a == b })
	default:
		// Unknown type grades as incorrect rather than failing.
		res = Result{Normalized: compactOrNull(raw)}
	}

	if res.IsCorrect {
		res.PointsAwarded = q.Points
	}
	return res
}

func gradeMultipleChoice(q *model.Question, raw json.RawMessage) Result {
	idx := resolveIndex(raw, q.Options)

	var key int
	keyOK := json.Unmarshal(q.CorrectAnswer, &key) == nil

	res := Result{Normalized: mustJSON(idx)}
	if idx >= 0 && idx < len(q.Options) {
		label := q.Options[idx]
		res.AnswerText = &label
	}
	res.IsCorrect = keyOK && idx >= 0 && idx == key
	return res
}

func gradeCheckbox(q *model.Question, raw json.RawMessage) Result {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return Result{Normalized: compactOrNull(raw)}
	}

	// Resolve each element to an option index; duplicates collapse into
	// a set, so [0,0,2] and [0,2] grade identically.
	selected := make(map[int]struct{}, len(elems))
	for _, e := range elems {
		selected[resolveIndex(e, q.Options)] = struct{}{}
	}

	indices := make([]int, 0, len(selected))
	for i := range selected {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	var key []int
	keyOK := json.Unmarshal(q.CorrectAnswer, &key) == nil

	res := Result{Normalized: mustJSON(indices)}

	var labels []string
	for _, i := range indices {
		if i >= 0 && i < len(q.Options) {
			labels = append(labels, q.Options[i])
		}
	}
	if len(labels) > 0 {
		text := strings.Join(labels, ", ")
		res.AnswerText = &text
	}

	res.IsCorrect = keyOK && equalIndexSets(selected, key)
	return res
}

func gradeString(q *model.Question, raw json.RawMessage, eq func(a, b string) bool) Result {
	var answer string
	if err := json.Unmarshal(raw, &answer); err != nil {
		return Result{Normalized: compactOrNull(raw)}
	}

	var key string
	keyOK := json.Unmarshal(q.CorrectAnswer, &key) == nil

	return Result{
		Normalized: mustJSON(answer),
		AnswerText: &answer,
		IsCorrect:  keyOK && eq(answer, key),
	}
}

// resolveIndex maps one wire element (number or option label) to an
// option index. Labels resolve to their first exact match; anything
// unresolvable yields -1, which never grades as correct.
func resolveIndex(raw json.RawMessage, options []string) int {
	var idx int
	if err := json.Unmarshal(raw, &idx); err == nil {
		return idx
	}

	var label string
	if err := json.Unmarshal(raw, &label); err == nil {
		for i, opt := range options {
			if opt == label {
				return i
			}
		}
	}
	return -1
}

// equalIndexSets reports set equality between the resolved selection and
// the answer key: same size and every key element selected.
func equalIndexSets(selected map[int]struct{}, key []int) bool {
	keySet := make(map[int]struct{}, len(key))
	for _, k := range key {
		keySet[k] = struct{}{}
	}
	if len(selected) != len(keySet) {
		return false
	}
	for k := range keySet {
		if _, ok := selected[k]; !ok {
			return false
		}
	}
	return true
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return b
}

// compactOrNull preserves the raw payload for storage when it could not
// be normalized, falling back to JSON null if it is not even valid JSON.
func compactOrNull(raw json.RawMessage) json.RawMessage {
	if json.Valid(raw) {
		return raw
	}
	return json.RawMessage("null")
}
