package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrValidation = errors.New("validation failed")

const (
	MinConsultationDuration = 15
	MaxConsultationDuration = 120
	MinBufferTime           = 0
	MaxBufferTime           = 30
)

// parseMinutes converts an "HH:MM" 24h wall-clock string to minutes from
// midnight.
func parseMinutes(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: time %q is not HH:MM", ErrValidation, s)
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: time %q is not HH:MM", ErrValidation, s)
	}
	return h*60 + m, nil
}

func minutesToClock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// GenerateTimeSlots materializes the discrete bookable windows inside
// [startTime, endTime). It walks forward in steps of duration+buffer and
// emits a window while the full consultation still fits. A working window
// shorter than one consultation yields an empty sequence, not an error.
func GenerateTimeSlots(startTime, endTime string, duration, buffer int) ([]TimeWindow, error) {
	start, err := parseMinutes(startTime)
	if err != nil {
		return nil, err
	}
	end, err := parseMinutes(endTime)
	if err != nil {
		return nil, err
	}
	if end <= start {
		return nil, fmt.Errorf("%w: end time %s is not after start time %s", ErrValidation, endTime, startTime)
	}
	if duration < MinConsultationDuration || duration > MaxConsultationDuration {
		return nil, fmt.Errorf("%w: consultation duration %d outside %d-%d", ErrValidation, duration, MinConsultationDuration, MaxConsultationDuration)
	}
	if buffer < MinBufferTime || buffer > MaxBufferTime {
		return nil, fmt.Errorf("%w: buffer %d outside %d-%d", ErrValidation, buffer, MinBufferTime, MaxBufferTime)
	}

	var out []TimeWindow
	for cur := start; cur+duration <= end; cur += duration + buffer {
		out = append(out, TimeWindow{
			StartTime: minutesToClock(cur),
			EndTime:   minutesToClock(cur + duration),
		})
	}
	return out, nil
}

// materializeDay generates the slot windows for a day definition, dropping
// any window that overlaps a break.
func materializeDay(day DaySchedule, duration, buffer int) ([]TimeWindow, error) {
	if !day.IsAvailable {
		return nil, nil
	}
	windows, err := GenerateTimeSlots(day.StartTime, day.EndTime, duration, buffer)
	if err != nil {
		return nil, err
	}
	if len(day.Breaks) == 0 {
		return windows, nil
	}

	breaks := make([][2]int, 0, len(day.Breaks))
	for _, b := range day.Breaks {
		bs, err := parseMinutes(b.StartTime)
		if err != nil {
			return nil, err
		}
		be, err := parseMinutes(b.EndTime)
		if err != nil {
			return nil, err
		}
		if be <= bs {
			return nil, fmt.Errorf("%w: break end %s is not after start %s", ErrValidation, b.EndTime, b.StartTime)
		}
		breaks = append(breaks, [2]int{bs, be})
	}

	out := windows[:0]
	for _, w := range windows {
		ws, _ := parseMinutes(w.StartTime)
		we, _ := parseMinutes(w.EndTime)
		blocked := false
		for _, b := range breaks {
			if ws < b[1] && b[0] < we {
				blocked = true
				break
			}
		}
		if !blocked {
			out = append(out, w)
		}
	}
	return out, nil
}
