package judge0

// Judge verdict codes as reported in Result.Status.ID.
const (
	StatusInQueue    = 1
	StatusProcessing = 2
	StatusAccepted   = 3
)

// Submission is one code+test-case pair in a batch dispatch. MemoryLimit is
// in KB per the judge protocol.
type Submission struct {
	LanguageID     int     `json:"language_id"`
	SourceCode     string  `json:"source_code"`
	Stdin          string  `json:"stdin"`
	ExpectedOutput string  `json:"expected_output"`
	CPUTimeLimit   float64 `json:"cpu_time_limit"`
	MemoryLimit    int     `json:"memory_limit"`
}

type batchRequest struct {
	Submissions []Submission `json:"submissions"`
}

type tokenEnvelope struct {
	Token string `json:"token"`
}

// Status is the judge's classification of one execution.
type Status struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

// IsTerminal reports whether the entry has left the queued/processing states.
func (s Status) IsTerminal() bool {
	return s.ID != StatusInQueue && s.ID != StatusProcessing
}

// Result is the judge's record for one token. Null wire fields decode to
// zero values.
type Result struct {
	Token          string `json:"token"`
	Stdout         string `json:"stdout"`
	Stderr         string `json:"stderr"`
	CompileOutput  string `json:"compile_output"`
	ExpectedOutput string `json:"expected_output"`
	Time           string `json:"time"`
	Memory         int    `json:"memory"`
	Status         Status `json:"status"`
}

type batchResponse struct {
	Submissions []Result `json:"submissions"`
}
