package onboarding

import (
	"strings"

	"shoppa-backend/internal/analyzer"
)

// BuildProfile flattens everything known about the shopper into the text the
// generator receives. Answer labels are copied verbatim. The result is never
// empty.
func BuildProfile(analysis analyzer.QueryAnalysis, answers []Answer, details string) string {
	var b strings.Builder
	line := func(label, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\n")
	}

	query := strings.TrimSpace(analysis.Query)
	if query == "" {
		query = "(sin consulta inicial)"
	}
	line("Consulta inicial", query)

	d := analysis.Detected
	line("Marca", d.Brand)
	line("Modelo", d.Model)
	line("Uso principal", strings.Join(d.UseCase, ", "))
	line("Prioridades", strings.Join(d.Priority, ", "))
	line("Presupuesto", d.Budget)
	line("Necesidades especiales", d.Special)

	for _, a := range answers {
		line(a.Question, strings.Join(a.Labels, ", "))
	}
	line("Detalles adicionales", details)

	return strings.TrimRight(b.String(), "\n")
}
