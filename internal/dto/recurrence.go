package dto

// ProjectionOutcome describes why a projection run produced its counts.
type ProjectionOutcome string

const (
	ProjectionOK         ProjectionOutcome = "OK"
	ProjectionDisabled   ProjectionOutcome = "DISABLED"
	ProjectionEmptyRange ProjectionOutcome = "EMPTY_RANGE"
)

// ProjectionReport summarises one projection run over a seed session.
type ProjectionReport struct {
	Created int               `json:"created"`
	Skipped int               `json:"skipped"`
	Outcome ProjectionOutcome `json:"outcome"`
}

// GenerateRecurrencesRequest triggers projection from a seed's own
// recurrence fields. Until, when set (YYYY-MM-DD), overrides the seed's
// recurrence_until.
type GenerateRecurrencesRequest struct {
	Until  string `json:"until,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DryRun bool   `json:"dry_run,omitempty"`
}

// BatchGenerateCommand projects a fixed number of occurrences for several
// seeds at once with caller-supplied cadence and a shared skip list.
type BatchGenerateCommand struct {
	SessionIDs  []string `json:"session_ids" validate:"required,min=1,dive,required"`
	Occurrences int      `json:"occurrences" validate:"required,min=1"`
	EveryNWeeks int      `json:"every_n_weeks" validate:"required,min=1"`
	SkipDates   []string `json:"skip_dates,omitempty"`
	DryRun      bool     `json:"dry_run,omitempty"`
}

// BatchProjectionReport aggregates counts across all seeds in a batch run.
type BatchProjectionReport struct {
	Created int                         `json:"created"`
	Skipped int                         `json:"skipped"`
	Seeds   map[string]ProjectionReport `json:"seeds"`
}
