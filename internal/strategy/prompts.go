// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package strategy

import (
	"bytes"
	"fmt"
	"text/template"
)

// Prompt templates sent to the completion capability. Each asks for a JSON
// object so responses parse deterministically; parsing falls back to
// line-splitting for models that ignore the instruction.

var questionsPromptTmpl = template.Must(template.New("questions").Parse(`You are a research assistant decomposing a question into search queries.

Research question:
{{.Question}}

{{if .Notes}}Findings so far:
{{.Notes}}

{{end}}Generate exactly {{.Count}} short, self-contained search queries that would surface the evidence still needed to answer the research question. Avoid repeating searches already covered by the findings.

Respond with a JSON object: {"questions": ["...", "..."]}. Do not include any text outside the JSON object.
`))

var gapQuestionsPromptTmpl = template.Must(template.New("gap-questions").Parse(`You are a research assistant drilling into the gaps of a previous research round.

Research question:
{{.Question}}

Most recent synthesis:
{{.LastNotes}}

Identify the specific factual gaps, unresolved claims, or missing details in the synthesis above, then generate exactly {{.Count}} search queries that drill down into those gaps. Each query must target a concrete gap, not restate the original question.

Respond with a JSON object: {"questions": ["...", "..."]}. Do not include any text outside the JSON object.
`))

var focusedQuestionsPromptTmpl = template.Must(template.New("focused-questions").Parse(`You are a research assistant resolving the single most uncertain aspect of a question.

Research question:
{{.Question}}

{{if .Notes}}Findings so far:
{{.Notes}}

{{end}}First decide which single aspect of the research question is currently the most uncertain given the findings. Then generate exactly {{.Count}} search queries, all aimed at resolving that one aspect from different angles.

Respond with a JSON object: {"questions": ["...", "..."]}. Do not include any text outside the JSON object.
`))

var sourceQuestionsPromptTmpl = template.Must(template.New("source-questions").Parse(`You are a research assistant deriving follow-up queries from retrieved sources.

Research question:
{{.Question}}

Retrieved sources:
{{.Sources}}

Based on what the sources actually contain, generate exactly {{.Count}} search queries that follow the most promising leads toward answering the research question.

Respond with a JSON object: {"questions": ["...", "..."]}. Do not include any text outside the JSON object.
`))

var synthesisPromptTmpl = template.Must(template.New("synthesis").Parse(`You are a research assistant taking notes from newly retrieved sources.

Research question:
{{.Question}}

{{if .Notes}}Notes from earlier rounds:
{{.Notes}}

{{end}}New sources:
{{.Sources}}

Write concise notes capturing every fact in the new sources that bears on the research question. Preserve exact figures, dates, and names. Note contradictions between sources explicitly. Plain text only.
`))

var answerPromptTmpl = template.Must(template.New("answer").Parse(`You are a research assistant writing a final, cited answer.

Research question:
{{.Question}}

Accumulated research notes:
{{.Notes}}

Numbered sources:
{{.Sources}}

Write a direct answer to the research question based only on the notes and sources above. Cite supporting sources inline using bracketed numbers matching the source list, e.g. [1] or [2][3]. If the evidence is insufficient, say what is missing.
`))

// render executes a prompt template against its data struct.
func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
