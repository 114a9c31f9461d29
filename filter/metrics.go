package filter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var rejectionsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moxie_filter_rejections",
	Help: "Number of candidate texts rejected, by gate",
}, []string{"gate"})
