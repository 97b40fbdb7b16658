package event

import (
	"strconv"

	"github.com/roadwatch/roadwatch-web/internal/models"
)

const (
	ReportUpsertedType    = "ReportUpserted"
	FeedStatusChangedType = "FeedStatusChanged"
)

var MaxRetries = 5

type Retryable interface {
	RetryCount() int
	IncrementRetryCount()
}

type Identifiable interface {
	Retryable
	Identifier() string
	Type() string
	SetIdentifier(id string)
	SetType(t string)
}

type Event struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	RetryCount int    `json:"retry_count"`
}

// ReportUpserted fires after the report store accepts a merge or a report
// enters the store through a replace. Origin records which path produced it.
type ReportUpserted struct {
	Event
	Origin string        `json:"origin"` // "push" or "fetch"
	Report models.Report `json:"report"`
}

func (ru *ReportUpserted) RetryCount() int {
	return ru.Event.RetryCount
}

func (ru *ReportUpserted) IncrementRetryCount() {
	ru.Event.RetryCount++
}

func (ru *ReportUpserted) Type() string {
	return ru.Event.Type
}

func (ru *ReportUpserted) SetIdentifier(id string) {
	ru.ID = id
}

func (ru *ReportUpserted) SetType(t string) {
	ru.Event.Type = t
}

func (ru *ReportUpserted) Identifier() string {
	return strconv.FormatInt(ru.Report.ID, 10)
}

func NewReportUpsertedEvent(report models.Report, origin string) *ReportUpserted {
	return &ReportUpserted{
		Event: Event{
			Type: ReportUpsertedType,
		},
		Origin: origin,
		Report: report,
	}
}

// FeedStatusChanged fires on every live feed state transition so the UI can
// flip its connected/reconnecting indicator.
type FeedStatusChanged struct {
	Event
	Status string `json:"status"`
}

func (fs *FeedStatusChanged) RetryCount() int {
	return fs.Event.RetryCount
}

func (fs *FeedStatusChanged) IncrementRetryCount() {
	fs.Event.RetryCount++
}

func (fs *FeedStatusChanged) Type() string {
	return fs.Event.Type
}

func (fs *FeedStatusChanged) SetIdentifier(id string) {
	fs.ID = id
}

func (fs *FeedStatusChanged) SetType(t string) {
	fs.Event.Type = t
}

func (fs *FeedStatusChanged) Identifier() string {
	return fs.Status
}

func NewFeedStatusChangedEvent(status string) *FeedStatusChanged {
	return &FeedStatusChanged{
		Event: Event{
			Type: FeedStatusChangedType,
		},
		Status: status,
	}
}
