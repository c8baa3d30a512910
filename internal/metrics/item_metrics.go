package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ItemsCreated is a Prometheus counter for tracking the total number of items created.
	ItemsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "items_created_total",
		Help: "The total number of items created",
	})

	// ItemsUpdated counts successful item edits.
	ItemsUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "items_updated_total",
		Help: "The total number of items edited",
	})

	// ItemsDeleted is a Prometheus counter for tracking the total number of items deleted.
	ItemsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "items_deleted_total",
		Help: "The total number of items deleted",
	})

	ItemImagesAdded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "item_images_added_total",
		Help: "The total number of images attached to items",
	})

	// AuthorizationDenials counts mutations rejected because the actor does not own the item.
	AuthorizationDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "item_authorization_denials_total",
		Help: "The total number of item mutations rejected by the ownership policy",
	}, []string{"operation"})
)
