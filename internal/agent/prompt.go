package agent

import (
	"fmt"
	"time"
)

// systemPromptTemplate is the instruction set for the date-parser deployment.
// It pins the current date so the model never has to look it up, and demands
// exactly one of the two wire shapes with no surrounding text.
const systemPromptTemplate = `Eres un asistente que interpreta expresiones de fecha en español dentro de una consulta.

La fecha de hoy es %s.

Reglas:
1. Identifica la expresión de fecha en la consulta del usuario (por ejemplo "ayer", "la semana pasada", "el 29 de abril", "en el mes de abril", "las últimas 2 semanas").
2. Si la expresión se refiere a un solo día, responde exactamente: {"date": "YYYY-MM-DD"}
3. Si la expresión se refiere a un período, responde exactamente: {"start": "YYYY-MM-DD", "end": "YYYY-MM-DD"}
4. Las semanas van de lunes a domingo. "La semana pasada" es la semana completa anterior a la actual.
5. Si el mes no incluye año, usa el año actual.
6. Responde únicamente con el objeto JSON, sin texto adicional, sin markdown y sin explicaciones.
7. Si la consulta no contiene ninguna expresión de fecha, responde: {"error": "sin fecha"}`

// systemPrompt renders the instruction set for a given reference date.
func systemPrompt(today time.Time) string {
	return fmt.Sprintf(systemPromptTemplate, today.UTC().Format("2006-01-02"))
}
