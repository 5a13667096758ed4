package s3store

import "fmt"

// Blob keys are deterministic paths so that a problem's or submission's
// objects can be located, and swept, from relational identifiers alone.

// TestCaseInputKey returns the key for test case n's input blob.
func TestCaseInputKey(classID, problemID uint, n int) string {
	return fmt.Sprintf("classes/%d/problems/%d/input_files/input%d.txt", classID, problemID, n)
}

// TestCaseOutputKey returns the key for test case n's expected-output blob.
func TestCaseOutputKey(classID, problemID uint, n int) string {
	return fmt.Sprintf("classes/%d/problems/%d/output_files/output%d.txt", classID, problemID, n)
}

// SubmissionKey returns the key for a student's uploaded source file. The
// task id keeps resubmissions from overwriting each other.
func SubmissionKey(classID, problemID, studentID uint, taskID, extension string) string {
	return fmt.Sprintf("classes/%d/problems/%d/submissions/%d-%s.%s", classID, problemID, studentID, taskID, extension)
}

// ProblemPrefix returns the key prefix shared by every blob of a problem.
func ProblemPrefix(classID, problemID uint) string {
	return fmt.Sprintf("classes/%d/problems/%d/", classID, problemID)
}

// Keys carries the key scheme as a value so consumers can take it by
// interface.
type Keys struct{}

// TestCaseInputKey returns the key for test case n's input blob.
func (Keys) TestCaseInputKey(classID, problemID uint, n int) string {
	return TestCaseInputKey(classID, problemID, n)
}

// TestCaseOutputKey returns the key for test case n's expected-output blob.
func (Keys) TestCaseOutputKey(classID, problemID uint, n int) string {
	return TestCaseOutputKey(classID, problemID, n)
}

// SubmissionKey returns the key for a student's uploaded source file.
func (Keys) SubmissionKey(classID, problemID, studentID uint, taskID, extension string) string {
	return SubmissionKey(classID, problemID, studentID, taskID, extension)
}
