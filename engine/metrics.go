package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var submissionsSeen = promauto.NewCounter(prometheus.CounterOpts{
	Name: "moxie_submissions_seen",
	Help: "Number of submissions observed on the stream",
})

var commentsSeen = promauto.NewCounter(prometheus.CounterOpts{
	Name: "moxie_comments_seen",
	Help: "Number of inbox comments/mentions observed",
})

var postsMade = promauto.NewCounter(prometheus.CounterOpts{
	Name: "moxie_posts_made",
	Help: "Number of posts published",
})

var commentsMade = promauto.NewCounter(prometheus.CounterOpts{
	Name: "moxie_comments_made",
	Help: "Number of replies published",
})

var generationFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "moxie_generation_failures",
	Help: "Number of generation backend calls that failed or returned nothing",
})

var budgetRejections = promauto.NewCounter(prometheus.CounterOpts{
	Name: "moxie_budget_rejections",
	Help: "Number of actions skipped because the daily character budget was exhausted",
})

var streamRestarts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moxie_stream_restarts",
	Help: "Number of times a loop resubscribed after a stream fault",
}, []string{"loop"})
