// Package services contains the business-logic layer between the license
// core and the HTTP transport. Services translate trust decisions into API
// responses and gate on-demand operations, keeping handlers thin.
package services
