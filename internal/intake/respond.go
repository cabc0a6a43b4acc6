package intake

import (
	"github.com/ppiankov/plo/internal/advisory"
	"github.com/ppiankov/plo/internal/config"
	"github.com/ppiankov/plo/internal/core"
	"github.com/ppiankov/plo/internal/report"
)

// SuppressedNotice replaces the advisory section when tasks were supplied
// but planning is denied.
const SuppressedNotice = "AGENT RESPONSE SUPPRESSED BY AUTHORITY"

// Response is the rendered reply to an issue plus the evaluation behind it.
type Response struct {
	Text       string
	Evaluation core.Evaluation
	Advisory   *advisory.Result
}

// Respond evaluates the issue and renders the reply. Task lines are only
// analyzed when the evaluation allows planning; otherwise the advisory
// section is replaced by SuppressedNotice.
func Respond(issue Issue, cfg *config.Config) (Response, error) {
	e, err := core.Evaluate(issue.Metrics, cfg)
	if err != nil {
		return Response{}, err
	}
	resp := Response{Text: report.FormatText(e), Evaluation: e}

	tasks := ParseTasks(issue.TasksText)
	if len(tasks) == 0 {
		return resp, nil
	}
	if !e.Authority.PlanningAllowed() {
		resp.Text += "\n" + SuppressedNotice + "\n"
		return resp, nil
	}

	adv, err := e.Advise(tasks, advisory.Constraint{})
	if err != nil {
		return Response{}, err
	}
	resp.Advisory = &adv
	resp.Text = report.FormatFull(e, &adv)
	return resp, nil
}
