package prompt

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/alnah/go-studygen/internal/lang"
	"github.com/alnah/go-studygen/internal/study"
)

// registry maps a language code to its parsed template set.
// Each set defines single.system, single.user, chunk.system and chunk.user.
var registry = map[string]*template.Template{
	lang.English: template.Must(template.New(lang.English).Parse(englishTemplates)),
	lang.French:  template.Must(template.New(lang.French).Parse(frenchTemplates)),
}

// sources names the source material per language and mode.
var sources = map[string]map[string]string{
	lang.English: {
		study.Document:   "a single document",
		study.Collection: "a collection of related documents",
		study.Subject:    "the course material of a whole subject",
	},
	lang.French: {
		study.Document:   "un document unique",
		study.Collection: "une collection de documents liés",
		study.Subject:    "l'ensemble des supports de cours d'une matière",
	},
}

// render executes the named template, trimming surrounding blank lines.
func render(set *template.Template, name string, d data) (string, error) {
	var b strings.Builder
	if err := set.ExecuteTemplate(&b, name, d); err != nil {
		return "", fmt.Errorf("render %s/%s: %w", set.Name(), name, err)
	}
	return strings.TrimSpace(b.String()), nil
}

// The JSON contract is shared by both languages: field names are part of the
// decoder contract and must not be translated.
const jsonContract = `{
  "flashcards": [
    {"question": "...", "answer": "...", "tags": ["..."]}
  ],
  "quiz": [
    {"id": "q1", "type": "multiple_choice", "prompt": "...", "options": ["...", "...", "...", "..."], "answer": "...", "explanation": "...", "tags": ["..."]},
    {"id": "q2", "type": "true_false", "prompt": "...", "answer": "true", "explanation": "...", "tags": ["..."]},
    {"id": "q3", "type": "completion", "prompt": "... ___ ...", "answer": "...", "explanation": "...", "tags": ["..."]}
  ],
  "metadata": {"summary": "...", "recommendedSessionLength": 30, "notes": ["..."]}
}`

const englishTemplates = `
{{define "rules"}}
Rules:
- Produce EXACTLY {{.Flashcards}} flashcards and EXACTLY {{.Quiz}} quiz questions. No more, no fewer.
- Quiz types: {{.Mix.MultipleChoice}} multiple_choice{{if .Mix.TrueFalse}}, {{.Mix.TrueFalse}} true_false{{end}}{{if .Mix.Completion}}, {{.Mix.Completion}} completion{{end}}.
- multiple_choice: 4 options, exactly one correct; "answer" must be copied verbatim from "options".
- true_false: "answer" is "true" or "false"; omit "options".
- completion: "prompt" contains a blank written ___ and "answer" is the missing text; omit "options".
- Every quiz item has a unique "id" and a one-sentence "explanation".
- Flashcards: one concept per card, a precise question and a self-contained answer.
- Tags: 1 to 3 short lowercase topic tags per item.
- Mathematical notation must use LaTeX math delimiters: $...$ inline and $$...$$ for display formulas. Never write formulas as plain text.
- Write all content in English.
- Do not invent facts that are not supported by the text.
{{end}}

{{define "contract"}}
Respond with ONE JSON object and nothing else: no prose, no markdown, no code fences.
The object must have exactly this shape:
` + jsonContract + `
"metadata.recommendedSessionLength" is a number of minutes.
{{end}}

{{define "single.system"}}
You are an experienced teacher who writes study material from {{.Source}}.
Your task is to create flashcards and quiz questions that help a student learn and review the key concepts of the text you are given.
{{template "rules" .}}
{{template "contract" .}}
{{end}}

{{define "single.user"}}
{{if .Title}}Title: {{.Title}}

{{end}}Create exactly {{.Flashcards}} flashcards and exactly {{.Quiz}} quiz questions from the following text.

[TEXT]
{{.Text}}
[END TEXT]
{{end}}

{{define "chunk.system"}}
You are an experienced teacher who writes study material from {{.Source}}.
The material is too long for a single pass, so it was split into {{.Total}} fragments processed separately. You receive fragment {{.Index}} of {{.Total}}.
{{template "rules" .}}
- Use ONLY the content of this fragment. Do not rely on knowledge of other fragments.
- Other fragments are handled separately: focus on concepts specific to this fragment and avoid generic questions that would be redundant across fragments.
- Text between [CONTEXT FROM PREVIOUS FRAGMENT] or [CONTEXT FROM NEXT FRAGMENT] and [END CONTEXT] is continuation text for reading only. Do not create items from it.
{{template "contract" .}}
{{end}}

{{define "chunk.user"}}
{{if .Title}}Title: {{.Title}}
{{end}}Fragment {{.Index}} of {{.Total}}.
Create exactly {{.Flashcards}} flashcards and exactly {{.Quiz}} quiz questions from this fragment.
{{if .Leading}}
[CONTEXT FROM PREVIOUS FRAGMENT]
{{.Leading}}
[END CONTEXT]
{{end}}
[FRAGMENT]
{{.Text}}
[END FRAGMENT]
{{if .Trailing}}
[CONTEXT FROM NEXT FRAGMENT]
{{.Trailing}}
[END CONTEXT]
{{end}}
{{end}}
`

const frenchTemplates = `
{{define "rules"}}
Règles :
- Produis EXACTEMENT {{.Flashcards}} flashcards et EXACTEMENT {{.Quiz}} questions de quiz. Ni plus, ni moins.
- Types de questions : {{.Mix.MultipleChoice}} multiple_choice{{if .Mix.TrueFalse}}, {{.Mix.TrueFalse}} true_false{{end}}{{if .Mix.Completion}}, {{.Mix.Completion}} completion{{end}}.
- multiple_choice : 4 options, une seule correcte ; "answer" doit être recopiée mot pour mot depuis "options".
- true_false : "answer" vaut "true" ou "false" ; omets "options".
- completion : "prompt" contient un blanc écrit ___ et "answer" est le texte manquant ; omets "options".
- Chaque question a un "id" unique et une "explanation" d'une phrase.
- Flashcards : un concept par carte, une question précise et une réponse autonome.
- Tags : 1 à 3 tags de thème courts, en minuscules, par élément.
- Les notations mathématiques doivent utiliser les délimiteurs LaTeX : $...$ en ligne et $$...$$ pour les formules centrées. N'écris jamais une formule en texte brut.
- Rédige tout le contenu en français.
- N'invente aucun fait qui ne soit pas appuyé par le texte.
{{end}}

{{define "contract"}}
Réponds avec UN SEUL objet JSON et rien d'autre : pas de prose, pas de markdown, pas de bloc de code.
L'objet doit avoir exactement cette forme (les noms de champs restent en anglais) :
` + jsonContract + `
"metadata.recommendedSessionLength" est un nombre de minutes.
{{end}}

{{define "single.system"}}
Tu es un enseignant expérimenté qui rédige du matériel de révision à partir de {{.Source}}.
Ta tâche est de créer des flashcards et des questions de quiz qui aident un étudiant à apprendre et réviser les concepts clés du texte fourni.
{{template "rules" .}}
{{template "contract" .}}
{{end}}

{{define "single.user"}}
{{if .Title}}Titre : {{.Title}}

{{end}}Crée exactement {{.Flashcards}} flashcards et exactement {{.Quiz}} questions de quiz à partir du texte suivant.

[TEXTE]
{{.Text}}
[FIN DU TEXTE]
{{end}}

{{define "chunk.system"}}
Tu es un enseignant expérimenté qui rédige du matériel de révision à partir de {{.Source}}.
Le support est trop long pour un seul passage : il a été découpé en {{.Total}} fragments traités séparément. Tu reçois le fragment {{.Index}} sur {{.Total}}.
{{template "rules" .}}
- Utilise UNIQUEMENT le contenu de ce fragment. Ne t'appuie pas sur les autres fragments.
- Les autres fragments sont traités à part : concentre-toi sur les concepts propres à ce fragment et évite les questions génériques qui seraient redondantes d'un fragment à l'autre.
- Le texte entre [CONTEXTE DU FRAGMENT PRÉCÉDENT] ou [CONTEXTE DU FRAGMENT SUIVANT] et [FIN DU CONTEXTE] sert uniquement à la lecture. N'en tire aucun élément.
{{template "contract" .}}
{{end}}

{{define "chunk.user"}}
{{if .Title}}Titre : {{.Title}}
{{end}}Fragment {{.Index}} sur {{.Total}}.
Crée exactement {{.Flashcards}} flashcards et exactement {{.Quiz}} questions de quiz à partir de ce fragment.
{{if .Leading}}
[CONTEXTE DU FRAGMENT PRÉCÉDENT]
{{.Leading}}
[FIN DU CONTEXTE]
{{end}}
[FRAGMENT]
{{.Text}}
[FIN DU FRAGMENT]
{{if .Trailing}}
[CONTEXTE DU FRAGMENT SUIVANT]
{{.Trailing}}
[FIN DU CONTEXTE]
{{end}}
{{end}}
`
