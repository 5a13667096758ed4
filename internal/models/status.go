package models

// Judge verdict codes. The numeric values are fixed by the remote judge
// protocol and must never be renumbered.
const (
	StatusInQueue            = 1
	StatusProcessing         = 2
	StatusAccepted           = 3
	StatusWrongAnswer        = 4
	StatusTimeLimitExceeded  = 5
	StatusCompilationError   = 6
	StatusRuntimeErrorSIGSEGV = 7
	StatusRuntimeErrorSIGXFSZ = 8
	StatusRuntimeErrorSIGFPE  = 9
	StatusRuntimeErrorSIGABRT = 10
	StatusRuntimeErrorNZEC    = 11
	StatusRuntimeErrorOther   = 12
	StatusInternalError       = 13
	StatusExecFormatError     = 14
)

// Status is one judge verdict, keyed by its stable numeric code.
// Immutable reference data, seeded once.
type Status struct {
	ID      uint     `gorm:"primaryKey" json:"id"`
	Number  int      `gorm:"not null;uniqueIndex" json:"number"`
	Name    string   `gorm:"size:64;not null" json:"name"`
	Results []Result `gorm:"foreignKey:StatusID" json:"-"`
}

// IsTerminal reports whether the verdict means the judge has finished with
// the entry. In Queue and Processing are the only non-terminal codes.
func (s Status) IsTerminal() bool {
	return s.Number != StatusInQueue && s.Number != StatusProcessing
}

// SeedStatuses returns the full verdict enumeration in judge order.
func SeedStatuses() []Status {
	return []Status{
		{Number: StatusInQueue, Name: "In Queue"},
		{Number: StatusProcessing, Name: "Processing"},
		{Number: StatusAccepted, Name: "Accepted"},
		{Number: StatusWrongAnswer, Name: "Wrong Answer"},
		{Number: StatusTimeLimitExceeded, Name: "Time Limit Exceeded"},
		{Number: StatusCompilationError, Name: "Compilation Error"},
		{Number: StatusRuntimeErrorSIGSEGV, Name: "Runtime Error (SIGSEGV)"},
		{Number: StatusRuntimeErrorSIGXFSZ, Name: "Runtime Error (SIGXFSZ)"},
		{Number: StatusRuntimeErrorSIGFPE, Name: "Runtime Error (SIGFPE)"},
		{Number: StatusRuntimeErrorSIGABRT, Name: "Runtime Error (SIGABRT)"},
		{Number: StatusRuntimeErrorNZEC, Name: "Runtime Error (NZEC)"},
		{Number: StatusRuntimeErrorOther, Name: "Runtime Error"},
		{Number: StatusInternalError, Name: "Internal Error"},
		{Number: StatusExecFormatError, Name: "Exec Format Error"},
	}
}
