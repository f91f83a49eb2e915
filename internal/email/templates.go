package email

import (
	"bytes"
	"html/template"
)

var summaryTemplate = template.Must(template.New("summary").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>Reconciliation run summary</h2>
  <p>Trigger: <strong>{{.Trigger}}</strong></p>
  <table cellpadding="6" cellspacing="0" border="0">
    <tr><td>Tasks created</td><td><strong>{{.CreatedTasks}}</strong></td></tr>
    <tr><td>Tasks skipped (already existed)</td><td>{{.SkippedTasks}}</td></tr>
    <tr><td>Failed tuples</td><td>{{.FailedTuples}}</td></tr>
    <tr><td>Writes lost</td><td>{{.LostWrites}}</td></tr>
    <tr><td>Degraded chunk scans</td><td>{{.ChunkFailures}}</td></tr>
  </table>
  {{if .PlanIDs}}
  <p>Plans: {{range $i, $id := .PlanIDs}}{{if $i}}, {{end}}{{$id}}{{end}}</p>
  {{end}}
</body>
</html>`))

func renderSummaryTemplate(summary RunSummary) (string, error) {
	var buf bytes.Buffer
	if err := summaryTemplate.Execute(&buf, summary); err != nil {
		return "", err
	}
	return buf.String(), nil
}
