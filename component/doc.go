// Package component defines the lifecycle contract for managed
// resources: backends, pools, and anything else that must be started,
// health-checked, and released as part of an application's lifetime.
package component
