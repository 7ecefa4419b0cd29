package dataset

import "errors"

var (
	// ErrSourceUnavailable means the raw dataset folder is missing or holds no CSV rows.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrPrerequisiteMissing means no cleaned artifact exists yet for a dataset.
	ErrPrerequisiteMissing = errors.New("cleaned dataset not found, run data cleaning first")
	// ErrUnknownDataset means the dataset identifier is not registered.
	ErrUnknownDataset = errors.New("unknown dataset")
)
