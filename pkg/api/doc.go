// Package api exposes PIVOT's control plane over plain net/http: appliance
// submission and deletion, volume deletion, and read-throughs to the store
// for appliances, containers, and volumes. Routing and request validation
// are deliberately thin — the scheduling core lives in pkg/lifecycle,
// pkg/scheduler, and pkg/manager; this package only marshals it onto HTTP.
package api
