package s3store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyScheme(t *testing.T) {
	require.Equal(t, "classes/3/problems/9/input_files/input2.txt", TestCaseInputKey(3, 9, 2))
	require.Equal(t, "classes/3/problems/9/output_files/output2.txt", TestCaseOutputKey(3, 9, 2))
	require.Equal(t, "classes/3/problems/9/submissions/5-task-1.py", SubmissionKey(3, 9, 5, "task-1", "py"))

	prefix := ProblemPrefix(3, 9)
	for _, key := range []string{
		TestCaseInputKey(3, 9, 1),
		TestCaseOutputKey(3, 9, 4),
		SubmissionKey(3, 9, 5, "task-1", "py"),
	} {
		require.True(t, strings.HasPrefix(key, prefix), key)
	}
}
