package bugreport

// Report is a validated, normalized bug report ready to be filed. It is
// the only shape downstream code accepts; anything model-generated passes
// through Extract first.
type Report struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	StepsToReproduce []string `json:"stepsToReproduce"`
	ExpectedResult   string   `json:"expectedResult"`
	ActualResult     string   `json:"actualResult"`
	Component        string   `json:"component,omitempty"`
	Environment      string   `json:"environment,omitempty"`
	Reproducibility  string   `json:"reproducibility,omitempty"`
	Workaround       *string  `json:"workaround,omitempty"`
	Impact           string   `json:"impact,omitempty"`
	Priority         string   `json:"priority"`
}
