// Package environment models the deployment posture (development, staging,
// production) as an explicit value carried in context, with middleware and a
// logger extractor for request pipelines.
//
// The posture, together with the TLS flag, drives the cookie transport
// policy matrix and the logger presets.
package environment
