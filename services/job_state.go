package services

import (
	"github.com/ParthDhoot27/stichUP/models"
)

// jobAction is one edge set of the job state machine: the statuses it may
// start from and the status it moves the job to.
type jobAction struct {
	name string
	from []models.JobStatus
	to   models.JobStatus
}

var (
	actionAccept = jobAction{
		name: "accept",
		from: []models.JobStatus{models.StatusRequested},
		to:   models.StatusAccepted,
	}
	actionStart = jobAction{
		name: "start",
		from: []models.JobStatus{models.StatusAccepted, models.StatusRevisionRequested},
		to:   models.StatusInProgress,
	}
	actionFinish = jobAction{
		name: "finish",
		from: []models.JobStatus{models.StatusInProgress},
		to:   models.StatusFinishedByTailor,
	}
	actionConfirm = jobAction{
		name: "confirm",
		from: []models.JobStatus{models.StatusFinishedByTailor},
		to:   models.StatusAwaitingUserConfirmation,
	}
	actionRequestRevision = jobAction{
		name: "request_revision",
		from: []models.JobStatus{models.StatusAwaitingUserConfirmation},
		to:   models.StatusRevisionRequested,
	}
	actionAssignRider = jobAction{
		name: "assign_rider",
		from: []models.JobStatus{models.StatusAwaitingUserConfirmation},
		to:   models.StatusRiderAssigned,
	}
	actionDeliver = jobAction{
		name: "deliver",
		from: []models.JobStatus{models.StatusRiderAssigned},
		to:   models.StatusDelivered,
	}
	actionClose = jobAction{
		name: "close",
		from: []models.JobStatus{models.StatusDelivered},
		to:   models.StatusClosed,
	}
	actionCancel = jobAction{
		name: "cancel",
		from: nonTerminalStatuses(),
		to:   models.StatusCancelled,
	}
)

var allActions = []jobAction{
	actionAccept,
	actionStart,
	actionFinish,
	actionConfirm,
	actionRequestRevision,
	actionAssignRider,
	actionDeliver,
	actionClose,
	actionCancel,
}

// activeStatuses are the statuses counted in a tailor's current orders
var activeStatuses = []models.JobStatus{
	models.StatusAccepted,
	models.StatusInProgress,
	models.StatusRevisionRequested,
}

func nonTerminalStatuses() []models.JobStatus {
	var statuses []models.JobStatus
	for _, s := range models.AllJobStatuses {
		if !s.IsTerminal() {
			statuses = append(statuses, s)
		}
	}
	return statuses
}

func (a jobAction) allows(current models.JobStatus) bool {
	return containsStatus(a.from, current)
}

func containsStatus(statuses []models.JobStatus, status models.JobStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func isActiveStatus(status models.JobStatus) bool {
	return containsStatus(activeStatuses, status)
}

// CanTransition reports whether any operation moves a job from one status to another
func CanTransition(from, to models.JobStatus) bool {
	for _, a := range allActions {
		if a.to == to && a.allows(from) {
			return true
		}
	}
	return false
}

// AllowedNextStatuses lists the statuses reachable from current in one step
func AllowedNextStatuses(current models.JobStatus) []string {
	seen := make(map[models.JobStatus]bool)
	next := []string{}
	for _, a := range allActions {
		if a.allows(current) && !seen[a.to] {
			seen[a.to] = true
			next = append(next, string(a.to))
		}
	}
	return next
}

func transitionError(current models.JobStatus, action jobAction) *AppError {
	message := "Invalid status transition"
	if current.IsTerminal() || current == action.to {
		message = "Job is already " + string(current)
	}
	return invalidTransition(message, InvalidTransitionDetails{
		CurrentStatus:   string(current),
		RequestedStatus: string(action.to),
		AllowedStatuses: AllowedNextStatuses(current),
	})
}
