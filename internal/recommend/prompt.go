package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"shoppa-backend/internal/catalog"
	"shoppa-backend/internal/llm"
)

const catalogToolName = "get_catalog"

// Instructions is the one system prompt shared by every provider and both
// batch sizes.
const Instructions = `Eres el asesor de compras de Shoppa!, una tienda de smartphones en Latinoamérica.
Aplicas la estrategia del "embudo de 3 opciones": el usuario decide mejor entre exactamente tres alternativas claras.

Proceso:
1. Llama siempre a la herramienta get_catalog antes de responder. Solo puedes recomendar equipos que aparezcan en ella.
2. Copia productName, price e imageUrl exactamente como aparecen en el catálogo. productName es la marca seguida del modelo.
3. Ordena las opciones así: la opción 1 es la que mejor encaja con el perfil dentro del presupuesto, la opción 2 es la alternativa de mejor valor, la opción 3 es la opción aspiracional.

Presupuesto:
- Al menos el 90% de las recomendaciones deben respetar el presupuesto máximo del usuario.
- Como máximo una puede superarlo, y solo si en justification explicas con claridad el valor adicional que obtiene.
- Si no hay presupuesto, prioriza la relación calidad-precio.

Tono:
- Habla de la experiencia del usuario, no de especificaciones. No menciones GB de RAM, mAh, nombres de procesadores ni megapíxeles.
- Escribe en español neutro latinoamericano, cálido y concreto.
- availability describe la disponibilidad en lenguaje sencillo, por ejemplo "Disponible" o "Pocas unidades".

Puntajes:
- qualityScore entre 70 y 98.
- matchPercentage entre 65 y 98, coherente con el orden de las opciones.
- matchTags entre 2 y 4 etiquetas cortas, cada una con level "high", "medium" o "low".

Responde únicamente con el JSON del esquema.`

// rankFocus describes the funnel position requested by the single-rank variant.
var rankFocus = map[int]string{
	1: "la opción que mejor encaja con el perfil dentro del presupuesto",
	2: "la alternativa de mejor valor, con la mejor relación calidad-precio del catálogo",
	3: "la opción aspiracional, que puede acercarse al límite del presupuesto",
}

var recommendationSchema = llm.SchemaFor[Recommendation]()

func schemaFor(count int) llm.Schema {
	return llm.Schema{
		Name:        fmt.Sprintf("recommendations_%d", count),
		Description: fmt.Sprintf("Exactamente %d recomendaciones de smartphones del catálogo", count),
		Definition:  llm.ArrayOf("recommendations", recommendationSchema, count),
	}
}

func systemPrompt(t task) string {
	if t.rank == 0 {
		return Instructions
	}
	return Instructions + fmt.Sprintf("\n\nEn esta llamada devuelve solo la opción %d del embudo: %s. El arreglo recommendations debe tener exactamente un elemento.", t.rank, rankFocus[t.rank])
}

func userPrompt(t task) string {
	var b strings.Builder
	b.WriteString("Perfil del usuario:\n")
	b.WriteString(t.profile)
	b.WriteString("\n\n")
	if t.rank == 0 {
		fmt.Fprintf(&b, "Recomienda exactamente %d smartphones del catálogo.", BatchSize)
	} else {
		fmt.Fprintf(&b, "Recomienda exactamente 1 smartphone del catálogo (opción %d).", t.rank)
	}
	if len(t.exclude) > 0 {
		fmt.Fprintf(&b, "\nNo repitas estos equipos, ya fueron elegidos para otras opciones: %s.", strings.Join(t.exclude, ", "))
	}
	return b.String()
}

// catalogEntry is the view of a device the model sees.
type catalogEntry struct {
	ID                  string        `json:"id"`
	ProductName         string        `json:"productName"`
	Price               string        `json:"price"`
	Tier                string        `json:"gama"`
	EstimatedPriceRange string        `json:"estimatedPriceRange,omitempty"`
	ImageURL            string        `json:"imageUrl"`
	RecommendedUse      []string      `json:"recommendedUse"`
	IdealFor            []string      `json:"idealFor"`
	Durability          string        `json:"durability,omitempty"`
	Specs               catalog.Specs `json:"specs"`
}

// catalogTool exposes exactly the request's candidate slice. The closure owns
// its own copy, so concurrent requests never observe each other's view.
func catalogTool(candidates []catalog.Device) llm.Tool {
	entries := make([]catalogEntry, 0, len(candidates))
	for _, d := range candidates {
		entries = append(entries, catalogEntry{
			ID:                  d.ID,
			ProductName:         d.Name(),
			Price:               d.Price,
			Tier:                d.Tier,
			EstimatedPriceRange: d.EstimatedPriceRange,
			ImageURL:            d.ImageURL,
			RecommendedUse:      append([]string(nil), d.RecommendedUse...),
			IdealFor:            append([]string(nil), d.IdealFor...),
			Durability:          d.Durability,
			Specs:               d.Specs,
		})
	}
	payload, err := json.Marshal(map[string]any{"devices": entries})
	return llm.Tool{
		Name:        catalogToolName,
		Description: "Devuelve los smartphones disponibles para este usuario, con precio, gama y especificaciones.",
		Parameters: map[string]any{
			"type":                 "object",
			"properties":           map[string]any{},
			"additionalProperties": false,
		},
		Handler: func(context.Context, json.RawMessage) (string, error) {
			if err != nil {
				return "", err
			}
			return string(payload), nil
		},
	}
}
