// Package onboarding asks the shopper only for what their first query left
// out and assembles the profile handed to the recommendation generator.
package onboarding

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"shoppa-backend/internal/analyzer"
)

type Step string

const (
	StepQuestion Step = "question"
	StepDetails  Step = "details"
	StepDone     Step = "done"
)

var (
	ErrNotFound       = errors.New("onboarding session not found")
	ErrNoSelection    = errors.New("select at least one option to continue")
	ErrUnknownOption  = errors.New("unknown option")
	ErrSingleSelect   = errors.New("this question accepts exactly one option")
	ErrWrongStep      = errors.New("operation not allowed at this step")
	ErrNoPreviousStep = errors.New("no previous step")
	ErrFinished       = errors.New("onboarding already finished")
)

// Flow is the onboarding state machine: one step per missing dimension, then
// the additional-details step, then done.
type Flow struct {
	ID        string                 `json:"id"`
	Principal string                 `json:"principal"`
	Analysis  analyzer.QueryAnalysis `json:"analysis"`
	// Steps are the asked dimensions in order.
	Steps []analyzer.Dimension `json:"steps"`
	// Index is the current question; len(Steps) is the details step.
	Index     int                             `json:"index"`
	Answers   map[analyzer.Dimension][]string `json:"answers"`
	Details   string                          `json:"details,omitempty"`
	Done      bool                            `json:"done"`
	Profile   string                          `json:"profile,omitempty"`
	CreatedAt time.Time                       `json:"createdAt"`
	UpdatedAt time.Time                       `json:"updatedAt"`
}

// NewFlow starts a flow for the analysis. With nothing missing it begins at
// the details step.
func NewFlow(id, principal string, analysis analyzer.QueryAnalysis, now time.Time) *Flow {
	steps := make([]analyzer.Dimension, 0, 3)
	for _, q := range QuestionsFor(analysis.Missing) {
		steps = append(steps, q.Dimension)
	}
	return &Flow{
		ID:        id,
		Principal: principal,
		Analysis:  analysis,
		Steps:     steps,
		Answers:   make(map[analyzer.Dimension][]string, len(steps)),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Step reports where the flow is.
func (f *Flow) Step() Step {
	switch {
	case f.Done:
		return StepDone
	case f.Index < len(f.Steps):
		return StepQuestion
	default:
		return StepDetails
	}
}

// Question returns the current structured question.
func (f *Flow) Question() (Question, bool) {
	if f.Step() != StepQuestion {
		return Question{}, false
	}
	return questions[f.Steps[f.Index]], true
}

// Select replaces the selection on the current question. An empty selection
// clears it.
func (f *Flow) Select(optionIDs []string) error {
	if f.Done {
		return ErrFinished
	}
	q, ok := f.Question()
	if !ok {
		return ErrWrongStep
	}
	ids := dedupe(optionIDs)
	if !q.Multi && len(ids) > 1 {
		return ErrSingleSelect
	}
	for _, id := range ids {
		if _, ok := q.Option(id); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownOption, id)
		}
	}
	if len(ids) == 0 {
		delete(f.Answers, q.Dimension)
		return nil
	}
	f.Answers[q.Dimension] = ids
	return nil
}

// CanAdvance reports whether Next is allowed.
func (f *Flow) CanAdvance() bool {
	q, ok := f.Question()
	return ok && len(f.Answers[q.Dimension]) > 0
}

// Next moves to the following question or to the details step.
func (f *Flow) Next() error {
	if f.Done {
		return ErrFinished
	}
	if f.Step() != StepQuestion {
		return ErrWrongStep
	}
	if !f.CanAdvance() {
		return ErrNoSelection
	}
	f.Index++
	return nil
}

// Back moves to the previous structured question.
func (f *Flow) Back() error {
	if f.Done {
		return ErrFinished
	}
	if f.Index == 0 {
		return ErrNoPreviousStep
	}
	f.Index--
	return nil
}

// Finish is only valid at the details step. It records the optional details
// and returns the assembled profile.
func (f *Flow) Finish(details string) (string, error) {
	if f.Done {
		return "", ErrFinished
	}
	if f.Step() != StepDetails {
		return "", ErrWrongStep
	}
	f.Details = strings.TrimSpace(details)
	f.Profile = BuildProfile(f.Analysis, f.answerLabels(), f.Details)
	f.Done = true
	return f.Profile, nil
}

// Answer is a question paired with the labels the user picked.
type Answer struct {
	Question string   `json:"question"`
	Labels   []string `json:"labels"`
}

func (f *Flow) answerLabels() []Answer {
	out := make([]Answer, 0, len(f.Steps))
	for _, d := range f.Steps {
		q := questions[d]
		var labels []string
		for _, id := range f.Answers[d] {
			if o, ok := q.Option(id); ok {
				labels = append(labels, o.Label)
			}
		}
		if len(labels) > 0 {
			out = append(out, Answer{Question: q.Title, Labels: labels})
		}
	}
	return out
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
