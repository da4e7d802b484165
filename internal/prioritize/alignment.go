package prioritize

import (
	"strings"

	"github.com/kmatsuda/userscope/internal/persona"
)

// alignPersonas measures textual overlap between a pain point description
// and each persona's declared pain points, behaviors, and goals. Matching
// uses only the first 5 words of the compared text, case-insensitive
// substring containment. Zero personas yield an empty alignment.
func alignPersonas(description string, personas []persona.Persona) PersonaAlignment {
	if len(personas) == 0 {
		return PersonaAlignment{
			AffectedPersonas: []string{},
			Affinities:       map[string]AffinityLevel{},
		}
	}

	descLower := strings.ToLower(description)
	descWords := firstWords(descLower, 5)

	affected := []string{}
	affinities := make(map[string]AffinityLevel, len(personas))
	totalWeight := 0.0

	for _, p := range personas {
		matches := 0
		for _, pp := range p.PainPoints {
			for _, w := range firstWords(strings.ToLower(pp), 5) {
				if strings.Contains(descLower, w) {
					matches++
					break
				}
			}
		}

		var affinity AffinityLevel
		switch {
		case matches >= 2:
			affinity = AffinityVeryHigh
			affected = append(affected, p.Name)
		case matches >= 1:
			affinity = AffinityHigh
			affected = append(affected, p.Name)
		default:
			behaviors := strings.ToLower(strings.Join(p.Behaviors, " "))
			goals := strings.ToLower(strings.Join(p.Goals, " "))
			affinity = AffinityLow
			for _, w := range descWords {
				if strings.Contains(behaviors, w) || strings.Contains(goals, w) {
					affinity = AffinityMedium
					affected = append(affected, p.Name)
					break
				}
			}
		}

		affinities[p.Name] = affinity
		totalWeight += affinityScores[affinity]
	}

	return PersonaAlignment{
		AffectedPersonas: affected,
		Coverage:         float64(len(affected)) / float64(len(personas)),
		Affinities:       affinities,
		Weight:           totalWeight / float64(len(personas)),
	}
}

func firstWords(s string, n int) []string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return words
}
