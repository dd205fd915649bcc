// Package alerting raises threshold alerts on quota consumption and
// delivers them to pluggable sinks.
//
// # Overview
//
// The Evaluator inspects pool snapshots and emits an Event when a
// key's usage crosses the warning or critical threshold. Repeat alerts
// for the same key and severity are suppressed for a cooldown period;
// an escalation from warning to critical is never suppressed.
//
// The Dispatcher fans events out to registered sinks (email, Slack
// webhook, or any Sink implementation). A failing sink is logged and
// skipped; delivery problems never propagate to callers and one sink's
// failure never blocks another's delivery.
//
// The Sweeper ties the two together on a cron schedule, checking the
// pool periodically without any caller involvement.
//
// # Thread Safety
//
// Evaluator, Dispatcher, and Sweeper are safe for concurrent use.
package alerting
