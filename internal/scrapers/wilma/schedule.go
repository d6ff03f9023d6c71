package wilma

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
)

var eventsJsonRegex = regexp.MustCompile(`(?s)var eventsJSON = (\{.*?\});\s*var weekdays`)

// dayWidth is the width of a single day on the portal's grid, X1 / dayWidth
// is the zero based column of an event.
const dayWidth = 10000

// Schedule is the embedded schedule object of the schedule page. Raw is kept
// exactly as decoded (numbers are float64), the accessors tolerate missing
// or mistyped fields.
type Schedule struct {
	Raw map[string]any
}

type ScheduleEvent struct {
	Id      string
	Weekday string
	Date    string
	// Start and End are minutes from midnight.
	Start int
	End   int
	// X1 and X2 are horizontal positions on the grid, Y1 and Y2 vertical.
	X1, X2, Y1, Y2 int
	Text           map[string]string
	LongText       map[string]string
	Teachers       map[string]string
	Rooms          map[string]string
	Color          string

	Raw map[string]any
}

func (e ScheduleEvent) DayPosition() int {
	return e.X1 / dayWidth
}

// Teacher is the first teacher of the event.
func (e ScheduleEvent) Teacher() string {
	return e.Teachers["0"]
}

// Room is the first room of the event.
func (e ScheduleEvent) Room() string {
	return e.Rooms["0"]
}

func (e ScheduleEvent) Title() string {
	if text := e.Text["0"]; text != "" {
		return text
	}
	return e.LongText["0"]
}

func extractSchedule(body string) (Schedule, error) {
	groups := eventsJsonRegex.FindStringSubmatch(body)
	if len(groups) < 2 {
		return Schedule{}, ErrNoEmbeddedData
	}
	raw, err := parseObjectLiteral(groups[1])
	if err != nil {
		return Schedule{}, newMalformedDataError(groups[1], err)
	}
	return Schedule{Raw: raw}, nil
}

// GetSchedule reads the schedule object embedded in the schedule page.
func (c *Client) GetSchedule(ctx context.Context, s *Session) (Schedule, error) {
	schedulePage, err := c.fetch(ctx, s, "/schedule")
	if err != nil {
		return Schedule{}, fmt.Errorf("wilma: get schedule: %w", err)
	}

	schedule, err := extractSchedule(string(schedulePage.body))
	if err != nil {
		c.tel.ReportBroken(report_client_get_schedule, err)
		return Schedule{}, fmt.Errorf("wilma: get schedule: %w", err)
	}
	c.tel.ReportCount(report_client_get_schedule, int64(len(schedule.Events())))
	return schedule, nil
}

func (s Schedule) DayCount() int {
	return intValue(s.Raw["DayCount"])
}

func (s Schedule) DayStarts() int {
	return intValue(s.Raw["DayStarts"])
}

func (s Schedule) DayEnds() int {
	return intValue(s.Raw["DayEnds"])
}

// Events returns the events in portal order, entries that are not objects
// are skipped.
func (s Schedule) Events() []ScheduleEvent {
	list, _ := s.Raw["Events"].([]any)
	events := make([]ScheduleEvent, 0, len(list))
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		events = append(events, ScheduleEvent{
			Id:       stringValue(obj["Id"]),
			Weekday:  stringValue(obj["ViikonPaiva"]),
			Date:     stringValue(obj["Date"]),
			Start:    intValue(obj["Start"]),
			End:      intValue(obj["End"]),
			X1:       intValue(obj["X1"]),
			X2:       intValue(obj["X2"]),
			Y1:       intValue(obj["Y1"]),
			Y2:       intValue(obj["Y2"]),
			Text:     stringMap(obj["Text"]),
			LongText: stringMap(obj["LongText"]),
			Teachers: stringMap(obj["Opet"]),
			Rooms:    stringMap(obj["Huoneet"]),
			Color:    stringValue(obj["Color"]),
			Raw:      obj,
		})
	}
	return events
}

// EventsByDay groups events by their grid column, each day sorted by start
// time.
func (s Schedule) EventsByDay() map[int][]ScheduleEvent {
	days := map[int][]ScheduleEvent{}
	for _, e := range s.Events() {
		day := e.DayPosition()
		days[day] = append(days[day], e)
	}
	for _, events := range days {
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].Start < events[j].Start
		})
	}
	return days
}

func intValue(v any) int {
	switch v := v.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return int(v)
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0
		}
		return n
	case bool:
		if v {
			return 1
		}
	}
	return 0
}

func stringValue(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

func stringMap(v any) map[string]string {
	obj, ok := v.(map[string]any)
	if !ok {
		return map[string]string{}
	}
	out := make(map[string]string, len(obj))
	for key, value := range obj {
		out[key] = stringValue(value)
	}
	return out
}
