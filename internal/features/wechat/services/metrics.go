package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncPassesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wechat_sync_passes_total",
			Help: "Sync passes by listing source (published, materials, none)",
		},
		[]string{"source"},
	)

	articlesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wechat_articles_total",
			Help: "Articles handled by the import pipeline by outcome",
		},
		[]string{"outcome"},
	)

	tokenRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wechat_token_refreshes_total",
			Help: "Access token requests by result",
		},
		[]string{"result"},
	)

	imageImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wechat_image_imports_total",
			Help: "Remote image imports by result",
		},
		[]string{"result"},
	)
)
