package scenario

// Option is a selectable answer. Score is copied verbatim into the answer
// record when the option is chosen; negative and zero scores count as wrong.
type Option struct {
	Text  string `json:"text"`
	Score int    `json:"score"`
}

type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"question"`
	Options []Option `json:"options"`
}

type Stage struct {
	Name         string     `json:"stage"`
	TimeLimitSec int        `json:"time_limit_sec"`
	Questions    []Question `json:"questions"`
}

// Scenario is the full content definition for one topic. It is immutable
// once loaded; question ids are unique within a scenario.
type Scenario struct {
	Topic  string  `json:"topic"`
	Stages []Stage `json:"stages"`
}
