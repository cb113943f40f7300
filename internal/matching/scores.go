package matching

// Match score constants for path template matching.
// Higher scores indicate more specific matches.
const (
	// ScorePathExact is the score for a template that equals the path literally.
	ScorePathExact = 1000

	// ScorePathNamedParams is the base score for a template with {param} segments.
	// Each literal segment that matched adds ScoreLiteralSegment on top.
	ScorePathNamedParams = 100

	// ScoreLiteralSegment is added per literal (non-parameter) segment in a template match.
	ScoreLiteralSegment = 10
)
