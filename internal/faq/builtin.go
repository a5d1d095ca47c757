package faq

import "fmt"

// FollowUps returns the questions shoppers usually ask about a named brand or
// model.
func FollowUps(subject string) []string {
	return []string{
		fmt.Sprintf("¿Cómo se compara el %s con otros equipos de precio similar?", subject),
		fmt.Sprintf("¿Cuántos años de actualizaciones recibe el %s?", subject),
		fmt.Sprintf("¿Qué incluye la garantía del %s en Shoppa!?", subject),
	}
}

var builtIns = []Entry{
	{
		Patterns: []string{"bateria", "autonomia", "carga"},
		Answers: []string{
			"¿Cuántas horas de pantalla aguanta con uso intensivo?",
			"¿Tiene carga rápida y cargador incluido?",
			"¿Admite carga inalámbrica?",
		},
	},
	{
		Patterns: []string{"camara", "foto", "video"},
		Answers: []string{
			"¿Qué tal rinde la cámara de noche?",
			"¿Graba video en 4K estabilizado?",
			"¿Tiene zoom óptico o solo digital?",
		},
	},
	{
		Patterns: []string{"juego", "gaming", "jugar"},
		Answers: []string{
			"¿Se calienta en sesiones largas de juego?",
			"¿La pantalla tiene alta tasa de refresco?",
			"¿Cuánta RAM tiene para juegos exigentes?",
		},
	},
	{
		Patterns: []string{"garantia", "envio", "devolucion"},
		Answers: []string{
			"¿Cuánto dura la garantía del fabricante?",
			"¿Cuánto tarda el envío a mi ciudad?",
			"¿Puedo devolverlo si no me convence?",
		},
	},
	{
		Patterns: []string{"precio", "cuotas", "pago", "barato"},
		Answers: []string{
			"¿Se puede pagar en cuotas sin interés?",
			"¿Hay descuento por pago de contado?",
			"¿Qué modelo anterior ofrece lo mismo por menos?",
		},
	},
}
