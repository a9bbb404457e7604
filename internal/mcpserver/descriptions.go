package mcpserver

// Tool descriptions with interpretation guidance for LLMs.

func describeAnalyzeFile() string {
	return `Reviews one Python file: style issues, cyclomatic complexity per block, maintainability index, and a formatted copy.

USE WHEN:
- Reviewing a Python file before committing or opening a pull request
- Deciding which functions to refactor first
- Checking whether a file follows the project's style rules

INTERPRETING RESULTS:
- A section holding only {error: ...} means that tool was unavailable; the others are still valid
- Complexity >= 8 marks a block as high complexity and produces a suggestion
- Rank A-B complexity is simple; D-F means the block is hard to test
- Maintainability index above 20 (rank A) is healthy; below 10 (rank C) needs attention
- Suggestions are the short actionable summary

METRICS RETURNED:
- issues: line, column, code, message
- complexity: per file, blocks with name, kind, complexity, line, rank
- maintainability: per file, score (0-100) and rank
- formatting: whether the formatter succeeded and where the copy was written
- summary: issue count, affected lines, mean/P90/max complexity`
}

func describeFormatFile() string {
	return `Runs the code formatter on a Python file.

USE WHEN:
- Producing a formatted version of a file to compare against the original
- Reformatting a file in place after editing it

INTERPRETING RESULTS:
- succeeded=false with a message means the formatter is missing or rejected the file
- Without in_place the original is never touched; the copy is written to dest
- With in_place the file itself is rewritten

METRICS RETURNED:
- succeeded, message, output_path`
}

func describeGetReport() string {
	return `Fetches a stored review report by name (report_<stem> or report_<stem>.json).

USE WHEN:
- Revisiting an earlier analysis without re-running the tools
- Comparing a new review against the previous one

INTERPRETING RESULTS:
- Same layout as analyze_file output
- The report is validated before it is returned; an invalid file is an error

METRICS RETURNED:
- The full stored report`
}
