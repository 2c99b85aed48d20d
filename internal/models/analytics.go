package models

// OrganizerAnalytics aggregates outcomes across an organizer's
// completed events.
type OrganizerAnalytics struct {
	CompletedEventCount int     `json:"completedEventCount"`
	TotalRegistrations  int     `json:"totalRegistrations"`
	TotalAttended       int     `json:"totalAttended"`
	TotalRevenue        float64 `json:"totalRevenue"`
}

// AttendanceStats splits an event's confirmed registrations by
// attendance for the organizer dashboard.
type AttendanceStats struct {
	Total            int             `json:"total"`
	AttendedCount    int             `json:"attendedCount"`
	NotAttendedCount int             `json:"notAttendedCount"`
	Attended         []*Registration `json:"attended"`
	NotAttended      []*Registration `json:"notAttended"`
}
