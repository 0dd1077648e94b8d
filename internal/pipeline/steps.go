package pipeline

import "fmt"

// Step names
const (
	StepFetch     = "fetch_articles"
	StepTransform = "transform_articles"
	StepExtract   = "extract_content"
	StepScore     = "score_sentiment"
	StepWrite     = "write_rows"
)

// Step categories
const (
	CategorySource    = "source"
	CategoryTransform = "transform"
	CategoryEnrich    = "enrich"
	CategorySink      = "sink"
)

// StepDefinition defines metadata for a pipeline step
type StepDefinition struct {
	Name     string
	Category string
}

// Steps lists the ETL steps in execution order.
var Steps = []StepDefinition{
	{Name: StepFetch, Category: CategorySource},
	{Name: StepTransform, Category: CategoryTransform},
	{Name: StepExtract, Category: CategoryEnrich},
	{Name: StepScore, Category: CategoryEnrich},
	{Name: StepWrite, Category: CategorySink},
}

// StepCategory returns the category of a step, or "" for unknown steps.
func StepCategory(step string) string {
	for _, def := range Steps {
		if def.Name == step {
			return def.Category
		}
	}
	return ""
}

// StepError records which step a fatal error came from.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
