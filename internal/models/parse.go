package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
)

// ValidationError reports the first place where input did not match the
// workout model. The whole plan is rejected.
type ValidationError struct {
	Path     string `json:"path"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

func (e *ValidationError) Error() string {
	path := e.Path
	if path == "" {
		path = "(root)"
	}
	return fmt.Sprintf("%s: expected %s, got %s", path, e.Expected, e.Actual)
}

// ParsePlan decodes and validates a JSON document as a Plan.
func ParsePlan(data []byte) (Plan, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return Plan{}, &ValidationError{Expected: "JSON object", Actual: "invalid JSON: " + err.Error()}
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return Plan{}, &ValidationError{Expected: "single JSON object", Actual: "trailing data"}
	}
	return ParsePlanValue(v)
}

// ParsePlanValue validates an untyped JSON-like value (as produced by
// encoding/json into any) as a Plan.
func ParsePlanValue(v any) (Plan, error) {
	root, err := asObject("", v)
	if err != nil {
		return Plan{}, err
	}

	var p Plan
	if p.ID, err = root.str("id"); err != nil {
		return Plan{}, err
	}

	metaVal, ok := root.m["meta"]
	if !ok {
		return Plan{}, missing(root.join("meta"), "object")
	}
	if p.Meta, err = parseMeta(root.join("meta"), metaVal); err != nil {
		return Plan{}, err
	}

	segs, err := root.list("segments")
	if err != nil {
		return Plan{}, err
	}
	p.Segments = make([]Segment, 0, len(segs))
	for i, raw := range segs {
		seg, err := parseSegment(fmt.Sprintf("%s[%d]", root.join("segments"), i), raw)
		if err != nil {
			return Plan{}, err
		}
		p.Segments = append(p.Segments, seg)
	}
	return p, nil
}

func parseMeta(path string, v any) (WorkoutMeta, error) {
	o, err := asObject(path, v)
	if err != nil {
		return WorkoutMeta{}, err
	}

	var m WorkoutMeta
	if m.Date, err = o.str("date"); err != nil {
		return m, err
	}
	if m.Title, err = o.str("title"); err != nil {
		return m, err
	}
	wt, err := o.str("workoutType")
	if err != nil {
		return m, err
	}
	m.WorkoutType = WorkoutType(wt)
	if !m.WorkoutType.Valid() {
		return m, &ValidationError{Path: o.join("workoutType"), Expected: enumList(workoutTypes), Actual: fmt.Sprintf("%q", wt)}
	}
	if m.Description, err = o.str("description"); err != nil {
		return m, err
	}
	if m.TotalDurationEstimateSec, err = o.integer("totalDurationEstimateSec"); err != nil {
		return m, err
	}
	if m.CoachNotes, err = o.str("coachNotes"); err != nil {
		return m, err
	}
	if m.Gear, err = o.str("gear"); err != nil {
		return m, err
	}
	if m.PostWorkoutAction, err = o.optStr("postWorkoutAction"); err != nil {
		return m, err
	}
	if m.AllowOvertime, err = o.boolean("allowOvertime", false); err != nil {
		return m, err
	}
	return m, nil
}

func parseSegment(path string, v any) (Segment, error) {
	o, err := asObject(path, v)
	if err != nil {
		return nil, err
	}
	kindVal, ok := o.m["kind"]
	if !ok {
		return nil, missing(o.join("kind"), kindList())
	}
	kind, ok := kindVal.(string)
	if !ok {
		return nil, &ValidationError{Path: o.join("kind"), Expected: kindList(), Actual: describe(kindVal)}
	}
	switch SegmentKind(kind) {
	case KindSimple:
		return parseSimple(o)
	case KindComplex:
		return parseComplex(o)
	default:
		return nil, &ValidationError{Path: o.join("kind"), Expected: kindList(), Actual: fmt.Sprintf("%q", kind)}
	}
}

// parseStep validates an element of ComplexSegment.Steps. The kind tag may be
// omitted there since only simple steps are allowed.
func parseStep(path string, v any) (SimpleSegment, error) {
	o, err := asObject(path, v)
	if err != nil {
		return SimpleSegment{}, err
	}
	if kindVal, ok := o.m["kind"]; ok && kindVal != string(KindSimple) {
		return SimpleSegment{}, &ValidationError{Path: o.join("kind"), Expected: fmt.Sprintf("%q", KindSimple), Actual: describe(kindVal)}
	}
	return parseSimple(o)
}

func parseSimple(o object) (SimpleSegment, error) {
	var (
		s   SimpleSegment
		err error
	)
	st, err := o.str("stepType")
	if err != nil {
		return s, err
	}
	s.StepType = StepType(st)
	if !s.StepType.Valid() {
		return s, &ValidationError{Path: o.join("stepType"), Expected: enumList(stepTypes), Actual: fmt.Sprintf("%q", st)}
	}
	if s.Title, err = o.str("title"); err != nil {
		return s, err
	}
	if s.DurationSec, err = o.integer("durationSec"); err != nil {
		return s, err
	}
	if s.SpeedKph, err = o.float("speedKph"); err != nil {
		return s, err
	}
	if s.InclinePercent, err = o.float("inclinePercent"); err != nil {
		return s, err
	}
	notes, err := o.optStr("notes")
	if err != nil {
		return s, err
	}
	if notes != nil {
		s.Notes = *notes
	}
	return s, nil
}

func parseComplex(o object) (ComplexSegment, error) {
	var (
		c   ComplexSegment
		err error
	)
	if c.Title, err = o.str("title"); err != nil {
		return c, err
	}
	if c.RepeatCount, err = o.integer("repeatCount"); err != nil {
		return c, err
	}
	if c.SkipLastRest, err = o.boolean("skipLastRest", false); err != nil {
		return c, err
	}
	steps, err := o.list("steps")
	if err != nil {
		return c, err
	}
	c.Steps = make([]SimpleSegment, 0, len(steps))
	for i, raw := range steps {
		step, err := parseStep(fmt.Sprintf("%s[%d]", o.join("steps"), i), raw)
		if err != nil {
			return c, err
		}
		c.Steps = append(c.Steps, step)
	}
	return c, nil
}

// object is a decoded JSON object together with its path in the document.
type object struct {
	path string
	m    map[string]any
}

func asObject(path string, v any) (object, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return object{}, &ValidationError{Path: path, Expected: "object", Actual: describe(v)}
	}
	return object{path: path, m: m}, nil
}

func (o object) join(name string) string {
	if o.path == "" {
		return name
	}
	return o.path + "." + name
}

func (o object) str(name string) (string, error) {
	v, ok := o.m[name]
	if !ok {
		return "", missing(o.join(name), "string")
	}
	s, ok := v.(string)
	if !ok {
		return "", &ValidationError{Path: o.join(name), Expected: "string", Actual: describe(v)}
	}
	return s, nil
}

// optStr returns nil when the field is absent or null.
func (o object) optStr(name string) (*string, error) {
	v, ok := o.m[name]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, &ValidationError{Path: o.join(name), Expected: "string or null", Actual: describe(v)}
	}
	return &s, nil
}

func (o object) boolean(name string, def bool) (bool, error) {
	v, ok := o.m[name]
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, &ValidationError{Path: o.join(name), Expected: "boolean", Actual: describe(v)}
	}
	return b, nil
}

func (o object) list(name string) ([]any, error) {
	v, ok := o.m[name]
	if !ok {
		return nil, missing(o.join(name), "array")
	}
	l, ok := v.([]any)
	if !ok {
		return nil, &ValidationError{Path: o.join(name), Expected: "array", Actual: describe(v)}
	}
	return l, nil
}

// integer accepts whole numbers, including ones written with a zero
// fractional part such as 30.0.
func (o object) integer(name string) (int64, error) {
	v, ok := o.m[name]
	if !ok {
		return 0, missing(o.join(name), "integer")
	}
	f, isNum := number(v)
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
	}
	if !isNum || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) ||
		f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, &ValidationError{Path: o.join(name), Expected: "integer", Actual: describe(v)}
	}
	return int64(f), nil
}

func (o object) float(name string) (float64, error) {
	v, ok := o.m[name]
	if !ok {
		return 0, missing(o.join(name), "number")
	}
	f, isNum := number(v)
	if !isNum || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &ValidationError{Path: o.join(name), Expected: "finite number", Actual: describe(v)}
	}
	return f, nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func missing(path, expected string) *ValidationError {
	return &ValidationError{Path: path, Expected: expected, Actual: "missing"}
}

func describe(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("string %q", x)
	case bool:
		return fmt.Sprintf("boolean %t", x)
	case json.Number:
		return "number " + x.String()
	case float64, float32, int, int64:
		return fmt.Sprintf("number %v", x)
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}

func kindList() string {
	return fmt.Sprintf("%q or %q", KindSimple, KindComplex)
}

func enumList[T ~string](values []T) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return "one of " + strings.Join(quoted, ", ")
}
