package models

import (
	"encoding/json"
	"fmt"
)

// WorkoutType classifies the intent of a whole plan.
type WorkoutType string

const (
	WorkoutRecovery  WorkoutType = "Recovery"
	WorkoutEasy      WorkoutType = "Easy"
	WorkoutTempo     WorkoutType = "Tempo"
	WorkoutIntervals WorkoutType = "Intervals"
	WorkoutLongRun   WorkoutType = "LongRun"
	WorkoutTest      WorkoutType = "Test"
)

var workoutTypes = []WorkoutType{
	WorkoutRecovery, WorkoutEasy, WorkoutTempo, WorkoutIntervals, WorkoutLongRun, WorkoutTest,
}

// Valid reports whether t is one of the known workout types.
func (t WorkoutType) Valid() bool {
	for _, v := range workoutTypes {
		if t == v {
			return true
		}
	}
	return false
}

// StepType classifies a single step.
type StepType string

const (
	StepWarmup   StepType = "warmup"
	StepWork     StepType = "work"
	StepRest     StepType = "rest"
	StepCooldown StepType = "cooldown"
)

var stepTypes = []StepType{StepWarmup, StepWork, StepRest, StepCooldown}

// Valid reports whether t is one of the known step types.
func (t StepType) Valid() bool {
	for _, v := range stepTypes {
		if t == v {
			return true
		}
	}
	return false
}

// SegmentKind is the discriminator tag of a Segment.
type SegmentKind string

const (
	KindSimple  SegmentKind = "simple"
	KindComplex SegmentKind = "complex"
)

// WorkoutMeta describes a plan as a whole.
type WorkoutMeta struct {
	Date                     string      `json:"date"`
	Title                    string      `json:"title"`
	WorkoutType              WorkoutType `json:"workoutType"`
	Description              string      `json:"description"`
	TotalDurationEstimateSec int64       `json:"totalDurationEstimateSec"`
	CoachNotes               string      `json:"coachNotes"`
	Gear                     string      `json:"gear"`
	PostWorkoutAction        *string     `json:"postWorkoutAction"`
	AllowOvertime            bool        `json:"allowOvertime"`
}

// Segment is one scheduled portion of a workout. The only implementations
// are SimpleSegment and ComplexSegment.
type Segment interface {
	Kind() SegmentKind
	segment()
}

// SimpleSegment is a single step at a fixed speed and incline.
type SimpleSegment struct {
	StepType       StepType `json:"stepType"`
	Title          string   `json:"title"`
	DurationSec    int64    `json:"durationSec"`
	SpeedKph       float64  `json:"speedKph"`
	InclinePercent float64  `json:"inclinePercent"`
	Notes          string   `json:"notes"`
}

func (SimpleSegment) Kind() SegmentKind { return KindSimple }
func (SimpleSegment) segment()          {}

// MarshalJSON emits the segment with its kind tag.
func (s SimpleSegment) MarshalJSON() ([]byte, error) {
	type alias SimpleSegment
	return json.Marshal(struct {
		Kind SegmentKind `json:"kind"`
		alias
	}{KindSimple, alias(s)})
}

// ComplexSegment repeats a group of simple steps RepeatCount times.
type ComplexSegment struct {
	Title        string          `json:"title"`
	RepeatCount  int64           `json:"repeatCount"`
	SkipLastRest bool            `json:"skipLastRest"`
	Steps        []SimpleSegment `json:"steps"`
}

func (ComplexSegment) Kind() SegmentKind { return KindComplex }
func (ComplexSegment) segment()          {}

// MarshalJSON emits the segment with its kind tag. A nil Steps slice is
// written as an empty array.
func (c ComplexSegment) MarshalJSON() ([]byte, error) {
	type alias ComplexSegment
	a := alias(c)
	if a.Steps == nil {
		a.Steps = []SimpleSegment{}
	}
	return json.Marshal(struct {
		Kind SegmentKind `json:"kind"`
		alias
	}{KindComplex, a})
}

// Plan is one complete workout definition and the unit of storage.
type Plan struct {
	ID       string
	Meta     WorkoutMeta
	Segments []Segment
}

// MarshalJSON writes every field, including defaulted ones, in a stable order.
func (p Plan) MarshalJSON() ([]byte, error) {
	segs := make([]json.RawMessage, 0, len(p.Segments))
	for i, s := range p.Segments {
		var (
			data []byte
			err  error
		)
		switch seg := s.(type) {
		case SimpleSegment:
			data, err = seg.MarshalJSON()
		case *SimpleSegment:
			data, err = seg.MarshalJSON()
		case ComplexSegment:
			data, err = seg.MarshalJSON()
		case *ComplexSegment:
			data, err = seg.MarshalJSON()
		default:
			return nil, fmt.Errorf("segments[%d]: unsupported segment type %T", i, s)
		}
		if err != nil {
			return nil, fmt.Errorf("segments[%d]: %w", i, err)
		}
		segs = append(segs, data)
	}
	return json.Marshal(struct {
		ID       string            `json:"id"`
		Meta     WorkoutMeta       `json:"meta"`
		Segments []json.RawMessage `json:"segments"`
	}{p.ID, p.Meta, segs})
}

// UnmarshalJSON validates data against the workout model. The receiver is
// left untouched when validation fails.
func (p *Plan) UnmarshalJSON(data []byte) error {
	plan, err := ParsePlan(data)
	if err != nil {
		return err
	}
	*p = plan
	return nil
}
