package attendance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var marksRecorded = promauto.NewCounter(prometheus.CounterOpts{
	Name: "attendance_marks_recorded_total",
	Help: "Number of attendance marks written, including overwrites.",
})
