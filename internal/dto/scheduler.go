package dto

// GenerateTimetableRequest instructs the engine to build a draft timetable
// proposal for a term's classes; a non-empty ClassIDs limits the regular
// (non-elective) requirements to the listed classes.
type GenerateTimetableRequest struct {
	TermID          string  `json:"termId" validate:"required"`
	Seed            int64   `json:"seed"`
	ClassIDs        []string `json:"classIds" validate:"omitempty,dive,required"`
	ClearExisting   bool    `json:"clearExisting"`
	RunOptimizer    bool    `json:"runOptimizer"`
}

// TimetableSlotProposal represents one generated allocation.
type TimetableSlotProposal struct {
	ClassID           string `json:"classId"`
	DayOfWeek         int    `json:"dayOfWeek"`
	Period            int    `json:"period"`
	SubjectID         string `json:"subjectId"`
	TeacherID         string `json:"teacherId"`
	RoomID            string `json:"roomId"`
	Component         string `json:"component"`
	IsLabContinuation bool   `json:"isLabContinuation"`
	IsElective        bool   `json:"isElective"`
	BasketID          string `json:"basketId,omitempty"`
}

// PhaseOutcome summarises one scheduler phase's result, mirrored from the
// engine's internal report.
type PhaseOutcome struct {
	Name      string `json:"name"`
	Succeeded bool   `json:"succeeded"`
	Detail    string `json:"detail,omitempty"`
}

// CoverageGap reports a requirement the engine could not fully satisfy.
type CoverageGap struct {
	ClassID   string `json:"classId"`
	SubjectID string `json:"subjectId"`
	Component string `json:"component"`
	Message   string `json:"message"`
}

// GenerateTimetableResponse returns a draft proposal awaiting commit.
type GenerateTimetableResponse struct {
	ProposalID         string                   `json:"proposalId"`
	Seed               int64                    `json:"seed"`
	Score              float64                  `json:"score"`
	Success            bool                     `json:"success"`
	Slots              []TimetableSlotProposal  `json:"slots"`
	Phases             []PhaseOutcome           `json:"phases"`
	CoverageGaps       []CoverageGap            `json:"coverageGaps"`
	UnscheduledBaskets []string                 `json:"unscheduledBaskets"`
	FixedSlotConflicts []string                 `json:"fixedSlotConflicts"`
	ElapsedMillis      int64                    `json:"elapsedMillis"`
}

// CommitTimetableRequest persists a previously generated draft proposal.
type CommitTimetableRequest struct {
	ProposalID string `json:"proposalId" validate:"required"`
}

// TimetableQuery filters timetable lookups by term.
type TimetableQuery struct {
	TermID string `form:"termId" json:"termId" validate:"required"`
}
