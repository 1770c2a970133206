package apperrors

import "errors"

var (
	// ErrNoTemplate means no rule fired and the similarity fallback found
	// nothing above the threshold. The caller should ask the user to
	// rephrase instead of guessing a template.
	ErrNoTemplate = errors.New("no template identified for question")

	// ErrCorpusUnfit means the reference-question corpus was empty or the
	// vectorizer was never fitted. This is a configuration problem, not a
	// property of the question.
	ErrCorpusUnfit = errors.New("reference corpus is empty or not fitted")

	// ErrMissingParameter means a template was identified but a parameter
	// it requires was not found in the question.
	ErrMissingParameter = errors.New("required parameter not found in question")

	ErrEmptyQuestion    = errors.New("question must not be empty")
	ErrTemplateNotFound = errors.New("template file not found")
)
