package courses

import "strings"

type Level string

const (
	LevelBeginner     Level = "BEGINNER"
	LevelIntermediate Level = "INTERMEDIATE"
	LevelAdvanced     Level = "ADVANCED"
	LevelAllLevels    Level = "ALL_LEVELS"
)

func (l Level) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced, LevelAllLevels:
		return true
	}
	return false
}

type Status string

const (
	StatusDraft           Status = "DRAFT"
	StatusPendingApproval Status = "PENDING_APPROVAL"
	StatusApproved        Status = "APPROVED"
	StatusRejected        Status = "REJECTED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPendingApproval, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Editable reports whether tutors may still change structure or media.
func (s Status) Editable() bool {
	return s == StatusDraft || s == StatusRejected
}

func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	return s, s.Valid()
}

func ParseLevel(raw string) (Level, bool) {
	l := Level(strings.ToUpper(strings.TrimSpace(raw)))
	return l, l.Valid()
}

type ResourceType string

const (
	ResourcePDF      ResourceType = "PDF"
	ResourceDocument ResourceType = "DOCUMENT"
	ResourceLink     ResourceType = "LINK"
	ResourceAudio    ResourceType = "AUDIO"
	ResourceVideo    ResourceType = "VIDEO"
	ResourceImage    ResourceType = "IMAGE"
)

type ExerciseType string

const (
	ExerciseMultipleChoice ExerciseType = "MULTIPLE_CHOICE"
	ExerciseFillInBlank    ExerciseType = "FILL_IN_BLANK"
	ExerciseListening      ExerciseType = "LISTENING"
	ExerciseSpeaking       ExerciseType = "SPEAKING"
	ExerciseWriting        ExerciseType = "WRITING"
	ExerciseMatching       ExerciseType = "MATCHING"
)

func (t ResourceType) Valid() bool {
	switch t {
	case ResourcePDF, ResourceDocument, ResourceLink, ResourceAudio, ResourceVideo, ResourceImage:
		return true
	}
	return false
}

func (t ExerciseType) Valid() bool {
	switch t {
	case ExerciseMultipleChoice, ExerciseFillInBlank, ExerciseListening, ExerciseSpeaking, ExerciseWriting, ExerciseMatching:
		return true
	}
	return false
}
