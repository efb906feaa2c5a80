// Package scheduler runs the two scheduling loops that turn a stored
// appliance into running tasks: one ApplianceLoop per live appliance that
// walks its task ensemble forward, and a singleton GlobalScheduler that
// drains every loop's output, consults the agent snapshot, and dispatches
// placements through the pluggable policies in pkg/scheduler/policy.
package scheduler
