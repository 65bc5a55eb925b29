package quiz

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"pdfquiz/models"

	"github.com/invopop/jsonschema"
)

// quizOutput documents the reply shape requested from the model. It is only
// used to render the JSON Schema embedded in the prompt; replies are decoded
// leniently by decodeQuiz.
type quizOutput struct {
	Title     string           `json:"title" jsonschema:"description=Short title describing the quiz topic"`
	Questions []questionOutput `json:"questions" jsonschema:"required"`
}

type questionOutput struct {
	ID               int      `json:"id" jsonschema:"required,minimum=1,description=Sequential question number starting at 1"`
	Type             string   `json:"type" jsonschema:"required,enum=multiple_choice,enum=true_false"`
	Question         string   `json:"question" jsonschema:"required,description=The question text"`
	Options          []string `json:"options,omitempty" jsonschema:"description=Answer choices for multiple_choice questions. Omit for true_false"`
	Answer           any      `json:"answer" jsonschema:"required,oneof_type=integer;boolean,description=Zero-based index into options for multiple_choice. JSON boolean for true_false"`
	Explanation      string   `json:"explanation,omitempty" jsonschema:"description=One sentence explaining the correct answer"`
	TimeLimitSeconds int      `json:"timeLimitSeconds" jsonschema:"required,minimum=1,maximum=3600"`
}

var (
	schemaOnce sync.Once
	schemaText string
)

func outputSchema() string {
	schemaOnce.Do(func() {
		reflector := jsonschema.Reflector{
			AllowAdditionalProperties: false,
			DoNotReference:            true,
			Anonymous:                 true,
		}
		b, err := json.MarshalIndent(reflector.Reflect(&quizOutput{}), "", "  ")
		if err != nil {
			panic(fmt.Sprintf("failed to render quiz output schema: %v", err))
		}
		schemaText = string(b)
	})
	return schemaText
}

// BuildPrompt renders the generation prompt. The output depends only on its
// arguments.
func BuildPrompt(source string, opts Options) string {
	var b strings.Builder

	b.WriteString("You are an expert educator writing a quiz about the document below.\n")
	b.WriteString("Use only facts stated in the document.\n\n")

	b.WriteString("Requirements:\n")
	fmt.Fprintf(&b, "- Write exactly %d questions.\n", opts.NumQuestions)
	fmt.Fprintf(&b, "- Question types: %s.\n", describeTypes(opts.Types))
	fmt.Fprintf(&b, "- Difficulty: %s.\n", opts.Difficulty)
	fmt.Fprintf(&b, "- Set timeLimitSeconds to %d for every question.\n", opts.Difficulty.DefaultTimeLimit())
	if opts.Types.Allows(models.MultipleChoice) {
		b.WriteString("- multiple_choice questions have exactly 4 distinct options and answer is the zero-based index of the correct option.\n")
	}
	if opts.Types.Allows(models.TrueFalse) {
		b.WriteString("- true_false questions omit options and answer is the JSON boolean true or false.\n")
	}
	b.WriteString("- Number questions sequentially from 1 in the id field.\n\n")

	b.WriteString("Respond with a single JSON object and nothing else. No markdown fences and no commentary.\n")
	b.WriteString("The object must validate against this JSON Schema:\n")
	b.WriteString(outputSchema())
	b.WriteString("\n\n")

	b.WriteString("Document:\n\"\"\"\n")
	b.WriteString(source)
	b.WriteString("\n\"\"\"\n")

	return b.String()
}

func describeTypes(f models.TypeFilter) string {
	switch f {
	case models.OnlyMultipleChoice:
		return "multiple_choice only"
	case models.OnlyTrueFalse:
		return "true_false only"
	default:
		return "a mix of multiple_choice and true_false"
	}
}
