package sessions

import (
	"time"

	"skincare-backend/internal/profile"
	"skincare-backend/internal/recommendation"
	"skincare-backend/internal/wizard"
)

type stepView struct {
	Number   int      `json:"number"`
	Title    string   `json:"title"`
	Fields   []string `json:"fields"`
	Required []string `json:"required"`
}

type sessionView struct {
	ID            string                 `json:"id"`
	Flow          string                 `json:"flow"`
	State         wizard.State           `json:"state"`
	Step          stepView               `json:"step"`
	Steps         []string               `json:"steps"`
	AtResults     bool                   `json:"atResults"`
	Profile       map[string]any         `json:"profile"`
	ImageAnalysis *profile.ImageAnalysis `json:"imageAnalysis,omitempty"`
	HasImage      bool                   `json:"hasImage"`
	HasResult     bool                   `json:"hasResult"`
	Notice        *recommendation.Notice `json:"notice,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

func toView(sess *wizard.Session, flow wizard.Flow) sessionView {
	snap := sess.Profile.Snapshot()
	v := sessionView{
		ID:            sess.ID,
		Flow:          sess.Flow,
		State:         sess.State,
		Steps:         make([]string, 0, flow.TotalSteps()),
		AtResults:     sess.AtResults(),
		Profile:       snap.Raw(),
		ImageAnalysis: snap.Analysis(),
		HasImage:      sess.ImageKey != "",
		HasResult:     sess.Result != nil,
		Notice:        sess.Notice,
		CreatedAt:     sess.CreatedAt,
		UpdatedAt:     sess.UpdatedAt,
	}
	for _, st := range flow.Steps {
		v.Steps = append(v.Steps, st.Title)
	}
	if st, ok := flow.Step(sess.State.CurrentStep); ok {
		v.Step = stepView{
			Number:   sess.State.CurrentStep,
			Title:    st.Title,
			Fields:   make([]string, 0, len(st.Fields)),
			Required: make([]string, 0, len(st.Required)),
		}
		for _, f := range st.Fields {
			v.Step.Fields = append(v.Step.Fields, string(f))
		}
		for _, r := range st.Required {
			v.Step.Required = append(v.Step.Required, r.String())
		}
	}
	return v
}
