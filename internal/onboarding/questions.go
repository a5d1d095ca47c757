package onboarding

import "shoppa-backend/internal/analyzer"

type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Question is one structured onboarding step.
type Question struct {
	Dimension analyzer.Dimension `json:"dimension"`
	Title     string             `json:"title"`
	Multi     bool               `json:"multiSelect"`
	Options   []Option           `json:"options"`
}

// Option returns the option with the given id.
func (q Question) Option(id string) (Option, bool) {
	for _, o := range q.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// questionOrder is the order questions are asked in, independent of the
// order the analyzer reports missing dimensions.
var questionOrder = []analyzer.Dimension{
	analyzer.DimensionUseCase,
	analyzer.DimensionPriority,
	analyzer.DimensionBudget,
}

// Budget labels carry the words the catalog pre-filter keys on.
var questions = map[analyzer.Dimension]Question{
	analyzer.DimensionUseCase: {
		Dimension: analyzer.DimensionUseCase,
		Title:     "¿Para qué usarás principalmente tu celular?",
		Multi:     true,
		Options: []Option{
			{ID: "fotos", Label: "Fotos y videos"},
			{ID: "gaming", Label: "Juegos"},
			{ID: "trabajo", Label: "Trabajo y productividad"},
		},
	},
	analyzer.DimensionPriority: {
		Dimension: analyzer.DimensionPriority,
		Title:     "¿Qué es lo más importante para ti?",
		Multi:     true,
		Options: []Option{
			{ID: "bateria", Label: "Batería que dure todo el día"},
			{ID: "camara", Label: "Una cámara excelente"},
			{ID: "rendimiento", Label: "Que sea rápido y fluido"},
		},
	},
	analyzer.DimensionBudget: {
		Dimension: analyzer.DimensionBudget,
		Title:     "¿Cuál es tu presupuesto?",
		Options: []Option{
			{ID: "economico", Label: "Económico y accesible (menos de $600)"},
			{ID: "medio", Label: "Gama media ($600 a $800)"},
			{ID: "premium", Label: "Premium gama alta (más de $800)"},
		},
	},
}

// QuestionsFor returns the structured questions for the missing dimensions,
// in asking order.
func QuestionsFor(missing []analyzer.Dimension) []Question {
	want := make(map[analyzer.Dimension]bool, len(missing))
	for _, d := range missing {
		want[d] = true
	}
	out := make([]Question, 0, len(missing))
	for _, d := range questionOrder {
		if want[d] {
			out = append(out, questions[d])
		}
	}
	return out
}
